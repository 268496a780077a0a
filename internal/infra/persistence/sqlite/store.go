// Package sqlite stores simulation history in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"stepgen/internal/infra/persistence/historysql"
	"stepgen/pkg/domain"
)

var _ domain.HistoryStore = (*Store)(nil)

const defaultPath = "stepgen.db"

// Store is a SQLite-backed domain.HistoryStore.
type Store struct {
	db   *sql.DB
	path string
}

func placeholder(int) string { return "?" }

// NewStore opens (creating when needed) the database at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent batch runs
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS simulation_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		author TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		schema_version TEXT NOT NULL,
		engine_version TEXT NOT NULL,
		command_count INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		halted INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying handle for diagnostics.
func (s *Store) DB() *sql.DB { return s.db }

// Add implements domain.HistoryStore.
func (s *Store) Add(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, historysql.Insert(placeholder, ""),
		entry.RunID, entry.Name, entry.Author, entry.ContentHash, entry.SchemaVersion,
		entry.EngineVersion, entry.CommandCount, entry.ErrorCount, entry.Halted, entry.CreatedAt.UnixNano())
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("history id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// Find implements domain.HistoryStore.
func (s *Store) Find(ctx context.Context, query domain.HistoryQuery) ([]domain.HistoryEntry, error) {
	stmt, args := historysql.Select(query, placeholder)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e       domain.HistoryEntry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Name, &e.Author, &e.ContentHash, &e.SchemaVersion,
			&e.EngineVersion, &e.CommandCount, &e.ErrorCount, &e.Halted, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// All implements domain.HistoryStore.
func (s *Store) All(ctx context.Context) ([]domain.HistoryEntry, error) {
	return s.Find(ctx, domain.HistoryQuery{})
}

// Close implements domain.HistoryStore.
func (s *Store) Close() error {
	return s.db.Close()
}
