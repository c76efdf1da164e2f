// Package memory implements history.Store in-process, for environments
// without Postgres. Grounded on internal/storage/memory/swap_store.go.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/history"
)

// Store is an in-memory implementation of history.Store.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	records []*domain.SwapExecution
}

// New creates an empty in-memory history store.
func New() *Store {
	return &Store{}
}

var _ history.Store = (*Store)(nil)

// Insert appends exec, assigning it the next sequential ID.
func (s *Store) Insert(_ context.Context, exec *domain.SwapExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	copy := *exec
	copy.ID = s.nextID
	s.records = append(s.records, &copy)
	return nil
}

// GetRecent returns up to limit executions, most recently submitted first
// (ties broken by most recently inserted).
func (s *Store) GetRecent(_ context.Context, limit int) ([]*domain.SwapExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.SwapExecution, len(s.records))
	copy(out, s.records)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
