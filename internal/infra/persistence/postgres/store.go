// Package postgres stores simulation history in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"stepgen/internal/infra/persistence/historysql"
	"stepgen/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.HistoryStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenHistoryStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/stepgen?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const createTable = `CREATE TABLE IF NOT EXISTS simulation_history (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	author TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	schema_version TEXT NOT NULL,
	engine_version TEXT NOT NULL,
	command_count INTEGER NOT NULL,
	error_count INTEGER NOT NULL,
	halted BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// Store is a Postgres-backed domain.HistoryStore.
type Store struct {
	db *sql.DB
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }

// NewStore connects using dsn (falls back to defaultDSN) and ensures the
// history table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for diagnostics.
func (s *Store) DB() *sql.DB { return s.db }

// Add implements domain.HistoryStore.
func (s *Store) Add(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	row := s.db.QueryRowContext(ctx, historysql.Insert(placeholder, "RETURNING id"),
		entry.RunID, entry.Name, entry.Author, entry.ContentHash, entry.SchemaVersion,
		entry.EngineVersion, entry.CommandCount, entry.ErrorCount, entry.Halted, entry.CreatedAt)
	if err := row.Scan(&entry.ID); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("insert history: %w", err)
	}
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
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Name, &e.Author, &e.ContentHash, &e.SchemaVersion,
			&e.EngineVersion, &e.CommandCount, &e.ErrorCount, &e.Halted, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
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

// OverrideSQLOpen swaps the sql.Open implementation (intended for tests) and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
