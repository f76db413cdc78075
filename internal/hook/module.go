package hook

import (
	"context"
	"io"
	"log/slog"

	"github.com/rcliao/qrfield/internal/actiontag"
	"github.com/rcliao/qrfield/internal/model"
)

// SaveEvent is the context the host passes to the save hook.
type SaveEvent struct {
	ProjectID  int64  `json:"project_id"`
	Record     string `json:"record"`
	Instrument string `json:"instrument"`
	EventID    int64  `json:"event_id"`
	Instance   int    `json:"repeat_instance"`
}

// Module wires directive discovery to the host hooks.
type Module struct {
	meta   Metadata
	writer *Writer
	log    *slog.Logger
}

// NewModule returns a Module reading metadata from meta.
func NewModule(meta Metadata, writer *Writer, log *slog.Logger) *Module {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Module{meta: meta, writer: writer, log: log}
}

// Directives loads the project and scans form.
func (m *Module) Directives(ctx context.Context, projectID int64, form string) (*model.Project, []model.Directive, error) {
	p, err := m.meta.Project(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return p, actiontag.Scan(p, form), nil
}

// SaveRecord runs after an instrument is saved. Saves without an
// instrument and forms without directives are no-ops.
func (m *Module) SaveRecord(ctx context.Context, ev SaveEvent) ([]model.Outcome, error) {
	if ev.Instrument == "" {
		return nil, nil
	}
	p, directives, err := m.Directives(ctx, ev.ProjectID, ev.Instrument)
	if err != nil {
		return nil, err
	}
	if len(directives) == 0 {
		return nil, nil
	}
	m.log.Debug("save hook", "project", ev.ProjectID, "record", ev.Record, "instrument", ev.Instrument, "directives", len(directives))
	return m.writer.Apply(ctx, ApplyParams{
		Project:    p,
		Record:     ev.Record,
		Form:       ev.Instrument,
		EventID:    ev.EventID,
		Instance:   ev.Instance,
		Directives: directives,
	})
}

// DataEntryFormTop returns the snippet to print at the top of a data entry form.
func (m *Module) DataEntryFormTop(ctx context.Context, projectID int64, instrument string) (string, error) {
	return m.pageTop(ctx, projectID, instrument)
}

// SurveyPageTop returns the snippet to print at the top of a survey page.
func (m *Module) SurveyPageTop(ctx context.Context, projectID int64, instrument string) (string, error) {
	return m.pageTop(ctx, projectID, instrument)
}

func (m *Module) pageTop(ctx context.Context, projectID int64, instrument string) (string, error) {
	_, directives, err := m.Directives(ctx, projectID, instrument)
	if err != nil {
		return "", err
	}
	return actiontag.Script(directives), nil
}
