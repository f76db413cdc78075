package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/qrfield/internal/model"
)

// ImportProject creates or replaces the project's events, forms and fields.
func (s *SQLiteStore) ImportProject(ctx context.Context, p model.Project) error {
	if p.ID <= 0 {
		return fmt.Errorf("invalid project id %d", p.ID)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		p.ID, p.Name, now)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}

	for _, q := range []string{
		`DELETE FROM repeating_forms WHERE project_id = ?`,
		`DELETE FROM events WHERE project_id = ?`,
		`DELETE FROM fields WHERE project_id = ?`,
		`DELETE FROM forms WHERE project_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, p.ID); err != nil {
			return fmt.Errorf("clear metadata: %w", err)
		}
	}

	for i, e := range p.Events {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, project_id, name, seq, repeating) VALUES (?, ?, ?, ?, ?)`,
			e.ID, p.ID, e.Name, i, boolInt(e.Repeating))
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
		for _, f := range e.RepeatingForms {
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO repeating_forms (project_id, event_id, form_name) VALUES (?, ?, ?)`,
				p.ID, e.ID, f)
			if err != nil {
				return fmt.Errorf("insert repeating form: %w", err)
			}
		}
	}

	for i, form := range p.Forms {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO forms (project_id, name, seq) VALUES (?, ?, ?)`, p.ID, form.Name, i)
		if err != nil {
			return fmt.Errorf("insert form %s: %w", form.Name, err)
		}
		for j, name := range form.Fields {
			f, ok := p.Fields[name]
			if !ok {
				return fmt.Errorf("form %s: %w: %s", form.Name, ErrUnknownField, name)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO fields (project_id, name, form_name, seq, element_type, validation, annotation, label)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, name, form.Name, j, string(f.Kind), nullable(f.Validation), nullable(f.Annotation), nullable(f.Label))
			if err != nil {
				return fmt.Errorf("insert field %s: %w", name, err)
			}
		}
	}

	return tx.Commit()
}

// Project loads a project's metadata.
func (s *SQLiteStore) Project(ctx context.Context, projectID int64) (*model.Project, error) {
	p := &model.Project{ID: projectID, Fields: map[string]model.Field{}}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM projects WHERE id = ?`, projectID).Scan(&p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadEvents(ctx, p); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	if err := s.loadForms(ctx, p); err != nil {
		return nil, fmt.Errorf("load forms: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) loadEvents(ctx context.Context, p *model.Project) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.name, e.repeating, r.form_name
		 FROM events e LEFT JOIN repeating_forms r ON r.project_id = e.project_id AND r.event_id = e.id
		 WHERE e.project_id = ?
		 ORDER BY e.seq, r.form_name`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e model.Event
		var form sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Repeating, &form); err != nil {
			return err
		}
		n := len(p.Events)
		if n == 0 || p.Events[n-1].ID != e.ID {
			p.Events = append(p.Events, e)
			n++
		}
		if form.Valid {
			p.Events[n-1].RepeatingForms = append(p.Events[n-1].RepeatingForms, form.String)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadForms(ctx context.Context, p *model.Project) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fo.name, fi.name, fi.element_type, fi.validation, fi.annotation, fi.label
		 FROM forms fo LEFT JOIN fields fi ON fi.project_id = fo.project_id AND fi.form_name = fo.name
		 WHERE fo.project_id = ?
		 ORDER BY fo.seq, fi.seq`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var formName string
		var name, kind, validation, annotation, label sql.NullString
		if err := rows.Scan(&formName, &name, &kind, &validation, &annotation, &label); err != nil {
			return err
		}
		n := len(p.Forms)
		if n == 0 || p.Forms[n-1].Name != formName {
			p.Forms = append(p.Forms, model.Form{Name: formName})
			n++
		}
		if !name.Valid {
			continue
		}
		p.Forms[n-1].Fields = append(p.Forms[n-1].Fields, name.String)
		p.Fields[name.String] = model.Field{
			Name:       name.String,
			Form:       formName,
			Kind:       model.FieldKind(kind.String),
			Validation: validation.String,
			Annotation: annotation.String,
			Label:      label.String,
		}
	}
	return rows.Err()
}

// ProjectSummary is a row of ListProjects.
type ProjectSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Forms  int    `json:"forms"`
	Fields int    `json:"fields"`
}

// ListProjects returns all projects ordered by id.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name,
		       (SELECT COUNT(*) FROM forms WHERE project_id = p.id),
		       (SELECT COUNT(*) FROM fields WHERE project_id = p.id)
		FROM projects p ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectSummary
	for rows.Next() {
		var ps ProjectSummary
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Forms, &ps.Fields); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
