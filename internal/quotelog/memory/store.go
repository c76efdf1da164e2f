// Package memory implements quotelog.Store in-process.
package memory

import (
	"context"
	"sync"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/quotelog"
)

// Store is an in-memory implementation of quotelog.Store.
type Store struct {
	mu      sync.Mutex
	entries []domain.QuoteLogEntry
}

// New creates an empty in-memory quote log.
func New() *Store {
	return &Store{}
}

var _ quotelog.Store = (*Store)(nil)

// InsertBulk appends entries.
func (s *Store) InsertBulk(_ context.Context, entries []domain.QuoteLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

// All returns a copy of every entry inserted so far, for tests.
func (s *Store) All() []domain.QuoteLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuoteLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
