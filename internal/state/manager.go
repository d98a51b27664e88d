// Package state owns the in-memory working set of the application snapshot
// and serializes every mutation through a single queue, so concurrent
// requests never interleave partial writes.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/store"
)

type Manager struct {
	store  store.Store
	logger *slog.Logger

	// mu guards snap and orders Update calls. Readers go through View and
	// receive the live snapshot; they must not retain references past the
	// callback.
	mu   chan struct{}
	snap *store.Snapshot
}

// NewManager loads the persisted snapshot, falling back to a freshly seeded
// one when the store is empty or unreadable. A corrupt payload is logged and
// replaced rather than treated as fatal.
func NewManager(
	ctx context.Context,
	st store.Store,
	seedPassword string,
	logger *slog.Logger,
) (*Manager, error) {
	snap, err := st.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrStoreCorrupt):
		if errors.Is(err, core.ErrStoreCorrupt) {
			logger.Warn("snapshot unreadable, reseeding", "error", err)
		} else {
			logger.Info("no snapshot found, seeding defaults")
		}
		snap, err = store.SeedSnapshot(seedPassword)
		if err != nil {
			return nil, fmt.Errorf("seeding snapshot: %w", err)
		}
		if err := st.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("persisting seeded snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	m := &Manager{
		store:  st,
		logger: logger,
		mu:     make(chan struct{}, 1),
		snap:   snap,
	}
	m.mu <- struct{}{}
	return m, nil
}

// View runs fn against the current snapshot under the lock. fn must treat
// the snapshot as read-only and must not keep references to it.
func (m *Manager) View(fn func(snap *store.Snapshot)) {
	<-m.mu
	defer func() { m.mu <- struct{}{} }()
	fn(m.snap)
}

// Update applies fn to a working copy of the snapshot and persists the
// result before it becomes visible. If fn errors or the save fails, the
// in-memory state is unchanged. Updates are strictly ordered: at most one
// mutation is in flight at a time.
func (m *Manager) Update(ctx context.Context, fn func(snap *store.Snapshot) error) error {
	select {
	case <-m.mu:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { m.mu <- struct{}{} }()

	working := m.snap.Clone()
	if err := fn(working); err != nil {
		return err
	}
	working.UpdatedAt = time.Now().UTC()

	if err := m.store.Save(ctx, working); err != nil {
		m.logger.Error("snapshot save failed, discarding update", "error", err)
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	m.snap = working
	return nil
}
