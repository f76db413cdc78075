// Package hook renders @QRCODE directives into their destination fields
// from the host's save and page-render hooks.
package hook

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/rcliao/qrfield/internal/model"
	"github.com/rcliao/qrfield/internal/qr"
	"github.com/rcliao/qrfield/internal/store"
)

// ErrRendererUnavailable aborts a save when the QR library is missing.
var ErrRendererUnavailable = errors.New("qr renderer unavailable")

// Metadata supplies project metadata.
type Metadata interface {
	Project(ctx context.Context, projectID int64) (*model.Project, error)
}

// DataAccess reads and writes record values.
type DataAccess interface {
	GetData(ctx context.Context, projectID int64, record string, eventID int64, fields []string) (model.RecordData, error)
	SaveData(ctx context.Context, projectID int64, updates []model.FieldUpdate, opts store.SaveOptions) (int, error)
}

// FileStorage holds uploaded files.
type FileStorage interface {
	CopyToTemp(ctx context.Context, docID, dir string) (string, error)
	Upload(ctx context.Context, projectID int64, name, path string) (string, error)
	DeleteFile(ctx context.Context, projectID int64, docID string) error
}

// Writer renders directives and writes them back to the record.
type Writer struct {
	data     DataAccess
	files    FileStorage
	renderer qr.Renderer
	tempDir  string
	log      *slog.Logger
}

// NewWriter returns a Writer keeping its temporary artifacts in tempDir.
func NewWriter(data DataAccess, files FileStorage, renderer qr.Renderer, tempDir string, log *slog.Logger) *Writer {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{data: data, files: files, renderer: renderer, tempDir: tempDir, log: log}
}

// ApplyParams identifies the saved record context and its directives.
type ApplyParams struct {
	Project    *model.Project
	Record     string
	Form       string
	EventID    int64
	Instance   int
	Directives []model.Directive
}

// Apply renders each directive and stores the result in its destination.
// An empty source value leaves the destination as it is, so a cleared
// source keeps the code rendered from its previous value.
// Directives run in order and the first error stops the run; values
// written by earlier directives are kept.
func (w *Writer) Apply(ctx context.Context, p ApplyParams) ([]model.Outcome, error) {
	if len(p.Directives) == 0 {
		return nil, nil
	}
	if err := w.renderer.Check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRendererUnavailable, err)
	}

	loc := model.NewLocator(p.Project, p.Record, p.EventID, p.Form, p.Instance)
	data, err := w.data.GetData(ctx, p.Project.ID, p.Record, p.EventID, sources(p.Directives))
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	outcomes := make([]model.Outcome, 0, len(p.Directives))
	for _, d := range p.Directives {
		o, err := w.apply(ctx, p.Project.ID, loc, d, data.Value(loc, d.Source))
		if err != nil {
			return outcomes, fmt.Errorf("field %s: %w", d.Field, err)
		}
		w.log.Info("qrcode", "project", p.Project.ID, "record", p.Record, "event", p.EventID,
			"shape", loc.Shape().String(), "instance", loc.Instance, "field", d.Field, "action", o.Action)
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (w *Writer) apply(ctx context.Context, projectID int64, loc model.Locator, d model.Directive, text string) (model.Outcome, error) {
	o := model.Outcome{Field: d.Field, Kind: d.Kind, Source: d.Source}
	if text == "" {
		o.Action = model.ActionEmpty
		return o, nil
	}

	tmp := filepath.Join(w.tempDir, "temp_QR_"+ulid.Make().String()+".png")
	defer os.Remove(tmp)
	if err := w.renderer.WritePNG(text, tmp); err != nil {
		return o, fmt.Errorf("render: %w", err)
	}

	var value string
	switch d.Kind {
	case model.KindText:
		b, err := os.ReadFile(tmp)
		if err != nil {
			return o, err
		}
		value = base64.StdEncoding.EncodeToString(b)
		o.Action = model.ActionWritten
	case model.KindFile:
		prev, err := w.currentValue(ctx, projectID, loc, d.Field)
		if err != nil {
			return o, err
		}
		o.PrevDocID = prev
		same, err := w.sameContent(ctx, prev, tmp)
		if err != nil {
			return o, err
		}
		if same {
			o.Action = model.ActionUnchanged
			o.DocID = prev
			return o, nil
		}
		docID, err := w.files.Upload(ctx, projectID, "QR_"+d.Source+".png", tmp)
		if err != nil {
			return o, fmt.Errorf("upload: %w", err)
		}
		if prev != "" {
			if err := w.files.DeleteFile(ctx, projectID, prev); err != nil && !errors.Is(err, store.ErrFileNotFound) {
				return o, fmt.Errorf("delete previous %s: %w", prev, err)
			}
		}
		value = docID
		o.DocID = docID
		o.Action = model.ActionUploaded
	default:
		return o, fmt.Errorf("unsupported destination type %q", d.Kind)
	}

	_, err := w.data.SaveData(ctx, projectID,
		[]model.FieldUpdate{{Locator: loc, Field: d.Field, Value: value}},
		store.SaveOptions{SkipFileUploadFields: false})
	if err != nil {
		return o, fmt.Errorf("save: %w", err)
	}
	return o, nil
}

func (w *Writer) currentValue(ctx context.Context, projectID int64, loc model.Locator, field string) (string, error) {
	data, err := w.data.GetData(ctx, projectID, loc.Record, loc.EventID, []string{field})
	if err != nil {
		return "", fmt.Errorf("read %s: %w", field, err)
	}
	return data.Value(loc, field), nil
}

// sameContent reports whether the stored file prevDocID has the same
// content as the file at path. A previous file that is gone counts as
// different.
func (w *Writer) sameContent(ctx context.Context, prevDocID, path string) (bool, error) {
	if prevDocID == "" {
		return false, nil
	}
	newHash, err := hashFile(path)
	if err != nil {
		return false, err
	}
	prevPath, err := w.files.CopyToTemp(ctx, prevDocID, w.tempDir)
	if errors.Is(err, store.ErrFileNotFound) {
		w.log.Warn("previous qrcode file missing", "doc_id", prevDocID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("copy previous %s: %w", prevDocID, err)
	}
	defer os.Remove(prevPath)
	prevHash, err := hashFile(prevPath)
	if err != nil {
		return false, err
	}
	return prevHash == newHash, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h, _ := blake2b.New256(nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sources(directives []model.Directive) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range directives {
		if !seen[d.Source] {
			seen[d.Source] = true
			out = append(out, d.Source)
		}
	}
	return out
}
