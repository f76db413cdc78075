package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath       string         `json:"db_path"`
	DBSizeBytes  int64          `json:"db_size_bytes"`
	Projects     int            `json:"projects"`
	Values       int            `json:"values"`
	Revisions    int            `json:"revisions"`
	ActiveFiles  int            `json:"active_files"`
	DeletedFiles int            `json:"deleted_files"`
	PerProject   []ProjectStats `json:"per_project"`
}

// ProjectStats holds per-project counts.
type ProjectStats struct {
	ProjectID int64 `json:"project_id"`
	Records   int   `json:"records"`
	Values    int   `json:"values"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&st.Projects)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM record_data`).Scan(&st.Values)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM data_log`).Scan(&st.Revisions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edocs WHERE deleted_at IS NULL`).Scan(&st.ActiveFiles)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edocs WHERE deleted_at IS NOT NULL`).Scan(&st.DeletedFiles)

	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, COUNT(DISTINCT record), COUNT(*)
		FROM record_data
		GROUP BY project_id ORDER BY project_id`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ps ProjectStats
		rows.Scan(&ps.ProjectID, &ps.Records, &ps.Values)
		st.PerProject = append(st.PerProject, ps)
	}

	return st, nil
}
