// Package memory provides an in-memory simulation history store used for
// tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stepgen/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.HistoryStore = (*Store)(nil)

// Store keeps history entries in insertion order.
type Store struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	runIDs  map[string]struct{}
	nextID  int64
	now     func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		runIDs: make(map[string]struct{}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add implements domain.HistoryStore.
func (s *Store) Add(_ context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.RunID != "" {
		if _, exists := s.runIDs[entry.RunID]; exists {
			return domain.HistoryEntry{}, fmt.Errorf("history entry for run %s already exists", entry.RunID)
		}
		s.runIDs[entry.RunID] = struct{}{}
	}
	s.nextID++
	entry.ID = s.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

// Find implements domain.HistoryStore.
func (s *Store) Find(_ context.Context, query domain.HistoryQuery) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.HistoryEntry
	for _, e := range s.entries {
		if query.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// All implements domain.HistoryStore.
func (s *Store) All(ctx context.Context) ([]domain.HistoryEntry, error) {
	return s.Find(ctx, domain.HistoryQuery{})
}

// Close implements domain.HistoryStore.
func (s *Store) Close() error { return nil }
