// Package launchlog keeps a persistent journal of sidecar launch attempts.
//
// Each initialization records one row: when it started, how the connection
// was resolved, and how it ended. The journal backs `skipper history` and
// gives failure reports a trail that survives daemon restarts.
package launchlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome values for a journal entry.
const (
	OutcomePending  = "pending"
	OutcomeReady    = "ready"
	OutcomeExisting = "existing"
	OutcomeFailed   = "failed"
)

// Entry is one recorded launch attempt.
type Entry struct {
	ID        int64     `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
	Strategy  string    `json:"strategy"`
	URL       string    `json:"url,omitempty"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS launches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    ended_at TEXT,
    strategy TEXT NOT NULL,
    url TEXT,
    outcome TEXT NOT NULL,
    detail TEXT
)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Begin records the start of an initialization attempt and returns its id.
func (s *Store) Begin(ctx context.Context, strategy string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO launches (started_at, strategy, outcome) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), strategy, OutcomePending)
	if err != nil {
		return 0, fmt.Errorf("insert launch: %w", err)
	}
	return res.LastInsertId()
}

// Finish records the terminal outcome of an attempt.
func (s *Store) Finish(ctx context.Context, id int64, outcome, url, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE launches SET ended_at = ?, outcome = ?, url = ?, detail = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), outcome, url, detail, id)
	if err != nil {
		return fmt.Errorf("finish launch: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, strategy, url, outcome, detail
         FROM launches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query launches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry            Entry
			startedAt        string
			endedAt          sql.NullString
			url, detailValue sql.NullString
		)
		if err := rows.Scan(&entry.ID, &startedAt, &endedAt, &entry.Strategy, &url, &entry.Outcome, &detailValue); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			entry.StartedAt = parsed
		}
		if endedAt.Valid {
			if parsed, err := time.Parse(time.RFC3339Nano, endedAt.String); err == nil {
				entry.EndedAt = parsed
			}
		}
		entry.URL = url.String
		entry.Detail = detailValue.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
