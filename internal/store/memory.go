package store

import (
	"context"
	"sync"

	"github.com/aport-academy/appraisal-api/internal/core"
)

// MemoryStore holds the snapshot in process memory. Used in tests and when
// no durable backend is configured.
type MemoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, core.ErrNotFound
	}
	return s.snap.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
