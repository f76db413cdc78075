package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/qrfield/internal/model"
)

// Upload copies the file at path into the edoc directory under a random
// stored name and records it for the project.
func (s *SQLiteStore) Upload(ctx context.Context, projectID int64, name, path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(name)
	storedName := time.Now().UTC().Format("20060102150405") + "_pid" + fmt.Sprint(projectID) + "_" + uuid.NewString() + ext
	dstPath := filepath.Join(s.edocDir, storedName)

	size, err := copyFile(dstPath, src)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	docID := s.newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO edocs (doc_id, project_id, stored_name, doc_name, doc_size, mime_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		docID, projectID, storedName, name, size, mimeType, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("insert edoc: %w", err)
	}
	return docID, nil
}

// File returns the metadata of a stored file that has not been deleted.
func (s *SQLiteStore) File(ctx context.Context, docID string) (*model.StoredFile, error) {
	var f model.StoredFile
	var deletedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT doc_id, project_id, stored_name, doc_name, doc_size, mime_type, created_at, deleted_at
		 FROM edocs WHERE doc_id = ?`, docID).Scan(
		&f.DocID, &f.ProjectID, &f.StoredName, &f.Name, &f.Size, &f.MimeType, &f.CreatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) || deletedAt.Valid {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, docID)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// OpenFile opens a stored file's content.
func (s *SQLiteStore) OpenFile(ctx context.Context, docID string) (io.ReadCloser, *model.StoredFile, error) {
	f, err := s.File(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := os.Open(filepath.Join(s.edocDir, f.StoredName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s: content missing", ErrFileNotFound, docID)
	}
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

// CopyToTemp copies a stored file into dir under a unique name.
func (s *SQLiteStore) CopyToTemp(ctx context.Context, docID, dir string) (string, error) {
	rc, f, err := s.OpenFile(ctx, docID)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, "edoc_*"+filepath.Ext(f.Name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy %s: %w", docID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// DeleteFile marks the file deleted and removes its content.
func (s *SQLiteStore) DeleteFile(ctx context.Context, projectID int64, docID string) error {
	var storedName string
	err := s.db.QueryRowContext(ctx,
		`UPDATE edocs SET deleted_at = ?
		 WHERE doc_id = ? AND project_id = ? AND deleted_at IS NULL
		 RETURNING stored_name`,
		time.Now().UTC().Format(time.RFC3339), docID, projectID).Scan(&storedName)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, docID)
	}
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.edocDir, storedName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove content: %w", err)
	}
	return nil
}

// ListFiles returns the project's stored files, deleted ones included.
func (s *SQLiteStore) ListFiles(ctx context.Context, projectID int64) ([]model.StoredFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, project_id, stored_name, doc_name, doc_size, mime_type, created_at, deleted_at
		 FROM edocs WHERE project_id = ? ORDER BY doc_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StoredFile
	for rows.Next() {
		var f model.StoredFile
		var deletedAt sql.NullString
		if err := rows.Scan(&f.DocID, &f.ProjectID, &f.StoredName, &f.Name, &f.Size, &f.MimeType, &f.CreatedAt, &deletedAt); err != nil {
			return nil, err
		}
		f.DeletedAt = deletedAt.String
		out = append(out, f)
	}
	return out, rows.Err()
}

func copyFile(dst string, src io.Reader) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, src)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, nil
}
