package taskdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	position      INTEGER PRIMARY KEY,
	name          TEXT NOT NULL,
	command       TEXT NOT NULL,
	frequency     TEXT NOT NULL,
	timer_options TEXT NOT NULL
)`

// SQLiteStore keeps the records in a SQLite table ordered by position.
// The connection is opened per call; taskgen is a single-shot process.
type SQLiteStore struct {
	path string
}

// NewSQLiteStore creates a SQLiteStore backed by path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Path returns the backing file.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open task db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Load reads all rows. A missing file is an empty store and is not created.
func (s *SQLiteStore) Load(ctx context.Context) LoadResult {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return LoadResult{}
	}

	records, err := s.load(ctx)
	if err != nil {
		slog.Warn("task db corrupt, treating as empty", "path", s.path, "error", err)
		return recovered(err.Error())
	}
	return LoadResult{Records: records}
}

func (s *SQLiteStore) load(ctx context.Context) ([]TaskRecord, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// A zero-byte file is a valid database without the table yet.
	var tables int
	if err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&tables); err != nil {
		return nil, fmt.Errorf("inspect task db: %w", err)
	}
	if tables == 0 {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT name, command, frequency, timer_options FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var r TaskRecord
		if err := rows.Scan(&r.Name, &r.Command, &r.Frequency, &r.TimerOptions); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return records, nil
}

// Save replaces every row in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []TaskRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create task db dir: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (position, name, command, frequency, timer_options) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.Name, r.Command, r.Frequency, r.TimerOptions); err != nil {
			return fmt.Errorf("insert task %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
