package store

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite for metadata and record data
// and a directory for stored file content.
type SQLiteStore struct {
	db      *sql.DB
	edocDir string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at dbPath. Stored files
// live in edocDir, or in an "edocs" directory next to the database when
// edocDir is empty.
func NewSQLiteStore(dbPath, edocDir string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	if edocDir == "" {
		edocDir = filepath.Join(dir, "edocs")
	}
	if err := os.MkdirAll(edocDir, 0o755); err != nil {
		return nil, fmt.Errorf("create edoc dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		edocDir: edocDir,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newID returns a ULID. Ids from one store sort in creation order.
func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		project_id INTEGER NOT NULL REFERENCES projects(id),
		id         INTEGER NOT NULL,
		name       TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		repeating  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, id)
	);

	CREATE TABLE IF NOT EXISTS repeating_forms (
		project_id INTEGER NOT NULL,
		event_id   INTEGER NOT NULL,
		form_name  TEXT NOT NULL,
		PRIMARY KEY (project_id, event_id, form_name),
		FOREIGN KEY (project_id, event_id) REFERENCES events(project_id, id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS forms (
		project_id INTEGER NOT NULL REFERENCES projects(id),
		name       TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		PRIMARY KEY (project_id, name)
	);

	CREATE TABLE IF NOT EXISTS fields (
		project_id   INTEGER NOT NULL REFERENCES projects(id),
		name         TEXT NOT NULL,
		form_name    TEXT NOT NULL,
		seq          INTEGER NOT NULL,
		element_type TEXT NOT NULL,
		validation   TEXT,
		annotation   TEXT,
		label        TEXT,
		PRIMARY KEY (project_id, name)
	);

	CREATE TABLE IF NOT EXISTS record_data (
		project_id  INTEGER NOT NULL,
		record      TEXT NOT NULL,
		event_id    INTEGER NOT NULL,
		repeat_form TEXT NOT NULL DEFAULT '',
		instance    INTEGER NOT NULL DEFAULT 1,
		field_name  TEXT NOT NULL,
		value       TEXT NOT NULL,
		PRIMARY KEY (project_id, record, event_id, repeat_form, instance, field_name)
	);

	CREATE TABLE IF NOT EXISTS data_log (
		id          TEXT PRIMARY KEY,
		project_id  INTEGER NOT NULL,
		record      TEXT NOT NULL,
		event_id    INTEGER NOT NULL,
		repeat_form TEXT NOT NULL DEFAULT '',
		instance    INTEGER NOT NULL DEFAULT 1,
		field_name  TEXT NOT NULL,
		value       TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_data_log_record ON data_log(project_id, record);

	CREATE TABLE IF NOT EXISTS edocs (
		doc_id      TEXT PRIMARY KEY,
		project_id  INTEGER NOT NULL,
		stored_name TEXT NOT NULL,
		doc_name    TEXT NOT NULL,
		doc_size    INTEGER NOT NULL,
		mime_type   TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		deleted_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_edocs_project ON edocs(project_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
