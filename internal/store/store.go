// Package store provides the host data services (metadata, record data and
// stored files) and their SQLite implementation.
package store

import (
	"context"
	"errors"
	"io"

	"github.com/rcliao/qrfield/internal/model"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrUnknownField    = errors.New("unknown field")
	ErrFileNotFound    = errors.New("stored file not found")
)

// SaveOptions controls a SaveData call.
type SaveOptions struct {
	// SkipFileUploadFields drops updates to file upload fields. The host
	// sets it by default so user-submitted data cannot point a file field
	// at an arbitrary stored file.
	SkipFileUploadFields bool
}

// Store defines the host services.
type Store interface {
	// ImportProject creates or replaces a project's metadata. Record data
	// is kept.
	ImportProject(ctx context.Context, p model.Project) error

	// Project loads a project's metadata.
	Project(ctx context.Context, projectID int64) (*model.Project, error)

	// GetData reads the values of fields (all fields when empty) for one
	// record and event, across all instances.
	GetData(ctx context.Context, projectID int64, record string, eventID int64, fields []string) (model.RecordData, error)

	// SaveData writes single-field updates and logs a revision for each.
	// Returns the number of values written.
	SaveData(ctx context.Context, projectID int64, updates []model.FieldUpdate, opts SaveOptions) (int, error)

	// Upload stores the file at path under the project and returns its doc id.
	Upload(ctx context.Context, projectID int64, name, path string) (string, error)

	// CopyToTemp copies a stored file into dir and returns the copy's path.
	CopyToTemp(ctx context.Context, docID, dir string) (string, error)

	// DeleteFile marks a stored file deleted and removes its content.
	DeleteFile(ctx context.Context, projectID int64, docID string) error

	// OpenFile opens a stored file's content.
	OpenFile(ctx context.Context, docID string) (io.ReadCloser, *model.StoredFile, error)

	// Close closes the store.
	Close() error
}
