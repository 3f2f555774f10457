package usecase

import (
	"context"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"go.uber.org/zap"
)

// ResetToDefaults wipes the active backend and reseeds it from the catalog.
// If the wipe fails nothing changes. If reseeding fails the catalog is shown
// in StatusError, as a failed load would.
func (s *TreeStore) ResetToDefaults(ctx context.Context) error {
	st, err := s.begin()
	defer s.end()
	if err != nil {
		return err
	}

	// Reorders queued against the old board must land before the wipe, or
	// they would rearrange the reseeded one.
	s.orders.wait()

	a := st.adapter
	if err := s.call(a, "clear_all", func() error { return a.ClearAll(ctx) }); err != nil {
		return err
	}

	h, seedErr := s.fetchOrSeed(ctx, a)
	if seedErr != nil {
		s.logger.Warn("board reseed failed after reset",
			zap.String("backend", string(a.Backend())), zap.Error(seedErr))
		h = s.catalog.Hierarchy()
	}

	s.mu.Lock()
	if st.gen != s.gen {
		s.mu.Unlock()
		return seedErr
	}
	h.Reindex()
	s.hierarchy = h
	s.change = board.Change{Op: board.OpReset}
	if seedErr != nil {
		s.status = board.StatusError
		s.lastErr = seedErr
	} else {
		s.status = board.StatusReady
		s.lastErr = nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return seedErr
}
