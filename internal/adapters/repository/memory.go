package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps the latest run in process. The HTTP API reads from it.
type MemoryStore struct {
	mu     sync.RWMutex
	latest *Run
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the held run.
func (s *MemoryStore) Save(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := run
	s.latest = &r
	return nil
}

// Latest returns the held run.
func (s *MemoryStore) Latest(ctx context.Context) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Run{}, ErrNotFound
	}
	return *s.latest, nil
}
