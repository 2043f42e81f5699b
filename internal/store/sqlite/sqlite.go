// Package sqlite backs the Persistence Facade (C11) with an embedded
// relational store: sessions, messages, memories (with a BLOB-encoded
// float32 embedding column), notes, workspaces, and jobs.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver
)

// Store is a modernc.org/sqlite-backed implementation of store.Store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and runs
// schema migration. Pass ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			archived INTEGER NOT NULL DEFAULT 0,
			persona_id TEXT,
			working_dir TEXT,
			primary_workspace_id TEXT,
			attached_workspace_ids TEXT,
			debug_snapshot TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_archived ON sessions(archived)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT,
			created_at DATETIME,
			reasoning TEXT,
			tool_calls TEXT,
			tool_call_id TEXT,
			parent_id TEXT,
			recalled_memory_ids TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			title TEXT,
			content TEXT,
			tags TEXT,
			embedding BLOB,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			content TEXT,
			tags TEXT,
			always_append INTEGER NOT NULL DEFAULT 0,
			source_file TEXT,
			created_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_session ON notes(session_id)`,
		`CREATE TABLE IF NOT EXISTS workspaces (
			id TEXT PRIMARY KEY,
			uri TEXT,
			host TEXT,
			owner_id TEXT,
			root_path TEXT,
			trust TEXT,
			created_at DATETIME,
			tools TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			agent_ref TEXT,
			title TEXT,
			description TEXT,
			status TEXT NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			next_run_at DATETIME,
			priority INTEGER NOT NULL DEFAULT 0,
			log TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_dequeue ON jobs(status, next_run_at, priority, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func marshalStrings(v []string) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func unmarshalStrings(v string) ([]string, error) {
	if v == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
