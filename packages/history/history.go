// Package history records sent requests in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const DefaultPath = ".httper/history.db"

const schema = `CREATE TABLE IF NOT EXISTS exchanges (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sent_at     TIMESTAMP NOT NULL,
	file        TEXT NOT NULL,
	name        TEXT NOT NULL,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	status      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	saved_to    TEXT NOT NULL,
	error       TEXT NOT NULL
)`

// Entry is one recorded exchange. Status is zero when the request failed
// before a response arrived.
type Entry struct {
	ID       int64
	SentAt   time.Time
	File     string
	Name     string
	Method   string
	URL      string
	Status   int
	Duration time.Duration
	Size     int64
	SavedTo  string
	Error    string
}

// Store represents a history database
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens the database at path, creating it and its directory if needed.
func Open(path string) (*Store, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "sqlite://")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise history: %w", err)
	}

	return &Store{db: db, queryTimeout: 30 * time.Second}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e and returns its ID.
func (s *Store) Record(ctx context.Context, e *Entry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (sent_at, file, name, method, url, status, duration_ms, size, saved_to, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SentAt.UTC(), e.File, e.Name, e.Method, e.URL, e.Status,
		e.Duration.Milliseconds(), e.Size, e.SavedTo, e.Error)
	if err != nil {
		return 0, fmt.Errorf("recording exchange: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recording exchange: %w", err)
	}
	e.ID = id
	return id, nil
}

// Latest returns up to limit entries, newest first.
func (s *Store) Latest(ctx context.Context, limit int) ([]*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sent_at, file, name, method, url, status, duration_ms, size, saved_to, error
		 FROM exchanges ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.SentAt, &e.File, &e.Name, &e.Method, &e.URL,
			&e.Status, &durationMs, &e.Size, &e.SavedTo, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
