// Package store is the durable application state store: postings,
// applications, append-only history and the daily quota counter, all in one
// sqlite file. Every mutation that changes a status commits together with
// its history event or not at all.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the sqlite database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// single writer: all mutations are serialized through one connection,
	// so two concurrent attempts on the same posting cannot interleave
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. Safe to call on every start.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS postings (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	external_id TEXT NOT NULL,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	salary_min INTEGER,
	salary_max INTEGER,
	description TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL,
	scraped_at TEXT NOT NULL,
	UNIQUE(source, external_id)
);

CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	status TEXT NOT NULL,
	resume_path TEXT NOT NULL DEFAULT '',
	submitted_at TEXT,
	last_updated TEXT NOT NULL,
	retry_count INTEGER NOT NULL DEFAULT 0,
	last_error_reason TEXT NOT NULL DEFAULT '',
	FOREIGN KEY(job_id) REFERENCES postings(id)
);

-- at most one open (non-terminal) application per job
CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_application_per_job
	ON applications(job_id)
	WHERE status NOT IN ('rejected', 'offered', 'withdrawn');

CREATE TABLE IF NOT EXISTS application_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	application_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	FOREIGN KEY(application_id) REFERENCES applications(id)
);

CREATE TABLE IF NOT EXISTS quota_windows (
	window TEXT PRIMARY KEY,
	count INTEGER NOT NULL DEFAULT 0
);
`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// times are stored as RFC3339Nano strings so they survive any sqlite driver
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
