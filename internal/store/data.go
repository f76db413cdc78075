package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/qrfield/internal/model"
)

// GetData reads values for one record and event. Every instance is returned;
// callers pick theirs with a model.Locator.
func (s *SQLiteStore) GetData(ctx context.Context, projectID int64, record string, eventID int64, fields []string) (model.RecordData, error) {
	where := []string{"project_id = ?", "record = ?", "event_id = ?"}
	args := []interface{}{projectID, record, eventID}
	if len(fields) > 0 {
		where = append(where, "field_name IN ("+placeholders(len(fields))+")")
		for _, f := range fields {
			args = append(args, f)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record, event_id, repeat_form, instance, field_name, value
		 FROM record_data WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordData(rows)
}

// Export returns every value of the project.
func (s *SQLiteStore) Export(ctx context.Context, projectID int64) (model.RecordData, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record, event_id, repeat_form, instance, field_name, value
		 FROM record_data WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordData(rows)
}

func scanRecordData(rows *sql.Rows) (model.RecordData, error) {
	data := model.RecordData{}
	for rows.Next() {
		var loc model.Locator
		var field, value string
		if err := rows.Scan(&loc.Record, &loc.EventID, &loc.RepeatForm, &loc.Instance, &field, &value); err != nil {
			return nil, err
		}
		data.Set(loc, field, value)
	}
	return data, rows.Err()
}

// SaveData writes updates in one transaction. Updates to file upload fields
// are dropped when opts.SkipFileUploadFields is set.
func (s *SQLiteStore) SaveData(ctx context.Context, projectID int64, updates []model.FieldUpdate, opts SaveOptions) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	saved := 0
	for _, u := range updates {
		var kind string
		err := tx.QueryRowContext(ctx,
			`SELECT element_type FROM fields WHERE project_id = ? AND name = ?`,
			projectID, u.Field).Scan(&kind)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownField, u.Field)
		}
		if err != nil {
			return 0, err
		}
		if opts.SkipFileUploadFields && model.FieldKind(kind) == model.KindFile {
			continue
		}

		loc := u.Locator.Key()
		if loc.Instance < 1 {
			loc.Instance = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO record_data (project_id, record, event_id, repeat_form, instance, field_name, value)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(project_id, record, event_id, repeat_form, instance, field_name)
			 DO UPDATE SET value = excluded.value`,
			projectID, loc.Record, loc.EventID, loc.RepeatForm, loc.Instance, u.Field, u.Value)
		if err != nil {
			return 0, fmt.Errorf("write %s: %w", u.Field, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO data_log (id, project_id, record, event_id, repeat_form, instance, field_name, value, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), projectID, loc.Record, loc.EventID, loc.RepeatForm, loc.Instance, u.Field, u.Value, now)
		if err != nil {
			return 0, fmt.Errorf("log %s: %w", u.Field, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

// Revisions returns the data log of a record, newest first.
func (s *SQLiteStore) Revisions(ctx context.Context, projectID int64, record string) ([]model.Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, record, event_id, repeat_form, instance, field_name, value, created_at
		 FROM data_log WHERE project_id = ? AND record = ?
		 ORDER BY id DESC`, projectID, record)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Revision
	for rows.Next() {
		r := model.Revision{ProjectID: projectID}
		err := rows.Scan(&r.ID, &r.Locator.Record, &r.Locator.EventID, &r.Locator.RepeatForm,
			&r.Locator.Instance, &r.Field, &r.Value, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
