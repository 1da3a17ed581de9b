// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seenstore persists the SeenSet: identifiers of papers that were
// already posted. SQLite is the default backend; Cloud Storage suits
// stateless deployments; the in-memory set backs dry runs and tests.
package seenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperbot/internal/dedup"
	"github.com/pdiddy/paperbot/pkg/types"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps seen entries in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and creates the schema
// if it does not exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// OpenSQLiteReadOnly opens the database at path in query-only mode without
// creating it or its directory. A missing database yields an empty in-memory
// store.
func OpenSQLiteReadOnly(path string) (Store, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return NewMemory(), nil
	} else if err != nil {
		return nil, fmt.Errorf("checking database: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_query_only=true&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS seen (
			id TEXT PRIMARY KEY,
			url TEXT,
			title TEXT,
			source TEXT,
			posted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_posted_at ON seen(posted_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Contains reports whether id has been recorded.
func (s *SQLiteStore) Contains(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM seen WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying seen: %w", err)
	}
	return n > 0, nil
}

// Add records an entry. Adding an existing id keeps the original row.
func (s *SQLiteStore) Add(ctx context.Context, e dedup.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen (id, url, title, source, posted_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		e.ID, e.URL, e.Title, string(e.Source), e.PostedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting seen entry %s: %w", e.ID, err)
	}
	return nil
}

// Remove deletes id so the paper is posted again on the next run. It
// reports whether a row was deleted.
func (s *SQLiteStore) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM seen WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting seen entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("counting deleted rows: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of recorded entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM seen`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting seen entries: %w", err)
	}
	return n, nil
}

// List returns the most recently posted entries, newest first. A limit of
// zero or less returns every entry.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]dedup.Entry, error) {
	query := `SELECT id, url, title, source, posted_at FROM seen ORDER BY posted_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing seen entries: %w", err)
	}
	defer rows.Close()

	var out []dedup.Entry
	for rows.Next() {
		var e dedup.Entry
		var url, title, source, postedAt sql.NullString
		if err := rows.Scan(&e.ID, &url, &title, &source, &postedAt); err != nil {
			return nil, fmt.Errorf("scanning seen entry: %w", err)
		}
		e.URL = url.String
		e.Title = title.String
		e.Source = types.Source(source.String)
		if t, parseErr := time.Parse(timeLayout, postedAt.String); parseErr == nil {
			e.PostedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries posted before cutoff and returns how many were
// removed. Pruned papers become eligible again if a source still lists
// them, so cutoffs should be well beyond any source's lookback.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seen WHERE posted_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning seen entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return int(n), nil
}
