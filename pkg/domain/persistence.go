package domain

import (
	"context"
	"time"
)

// HistoryEntry records one simulation run.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	Name          string    `json:"name"`
	Author        string    `json:"author"`
	ContentHash   string    `json:"content_hash"`
	SchemaVersion string    `json:"schema_version"`
	EngineVersion string    `json:"engine_version"`
	CommandCount  int       `json:"command_count"`
	ErrorCount    int       `json:"error_count"`
	Halted        bool      `json:"halted"`
	CreatedAt     time.Time `json:"created_at"`
}

// HistoryQuery selects entries matching every non-empty field.
type HistoryQuery struct {
	Name          string
	ContentHash   string
	SchemaVersion string
	EngineVersion string
}

// Matches reports whether the entry satisfies the query.
func (q HistoryQuery) Matches(e HistoryEntry) bool {
	return (q.Name == "" || q.Name == e.Name) &&
		(q.ContentHash == "" || q.ContentHash == e.ContentHash) &&
		(q.SchemaVersion == "" || q.SchemaVersion == e.SchemaVersion) &&
		(q.EngineVersion == "" || q.EngineVersion == e.EngineVersion)
}

// HistoryStore is the durable record of simulation runs. Add assigns ID and,
// when unset, CreatedAt. Find and All return entries ordered by ID.
type HistoryStore interface {
	Add(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)
	Find(ctx context.Context, query HistoryQuery) ([]HistoryEntry, error)
	All(ctx context.Context) ([]HistoryEntry, error)
	Close() error
}
