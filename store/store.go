// Package store persists finished match results.
package store

import (
	"context"
	"sync"

	"github.com/plus3/tickbox/match"
	"github.com/rotisserie/eris"
)

var ErrNotFound = eris.New("match result not found")

// ResultStore saves and loads match results by match ID.
type ResultStore interface {
	Save(ctx context.Context, result *match.Result) error
	Get(ctx context.Context, matchID string) (*match.Result, error)
	// Recent returns up to n match IDs, newest first.
	Recent(ctx context.Context, n int) ([]string, error)
}

// MemoryStore keeps results in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*match.Result
	order   []string
}

var _ ResultStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*match.Result)}
}

func (s *MemoryStore) Save(_ context.Context, result *match.Result) error {
	if result == nil || result.MatchID == "" {
		return eris.New("result must have a match id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[result.MatchID]; !exists {
		s.order = append(s.order, result.MatchID)
	}
	clone := *result
	s.results[result.MatchID] = &clone
	return nil
}

func (s *MemoryStore) Get(_ context.Context, matchID string) (*match.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[matchID]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "match %s", matchID)
	}
	clone := *result
	return &clone, nil
}

func (s *MemoryStore) Recent(_ context.Context, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, max(0, min(n, len(s.order))))
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.order[i])
	}
	return out, nil
}
