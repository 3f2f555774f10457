package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/speakeasy-board-service/internal/auth"
	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/catalog"
	"github.com/fekuna/speakeasy-board-service/internal/logger"
	"github.com/fekuna/speakeasy-board-service/internal/metrics"
	"github.com/fekuna/speakeasy-board-service/internal/model"
	"go.uber.org/zap"
)

// RemoteFactory returns the remote adapter scoped to userID.
type RemoteFactory func(userID string) board.Adapter

type Options struct {
	Local   board.Adapter
	Remote  RemoteFactory // nil keeps every identity on the local backend
	Catalog *catalog.Catalog
	Logger  logger.ZapLogger
}

// TreeStore owns the in-memory board and routes every change through the
// adapter selected by the current identity.
//
// opMu serializes operations. mu guards the published state so readers never
// wait on adapter I/O. Subscribers run under opMu and must not call back into
// mutating methods.
type TreeStore struct {
	local   board.Adapter
	remote  RemoteFactory
	catalog *catalog.Catalog
	logger  logger.ZapLogger

	opMu sync.Mutex

	mu        sync.RWMutex
	user      *auth.User
	adapter   board.Adapter
	hierarchy model.Hierarchy
	status    board.Status
	lastErr   error
	change    board.Change
	gen       uint64

	subMu   sync.Mutex
	subs    map[int]func(board.Snapshot)
	nextSub int

	orders *orderQueue
}

var _ board.UseCase = (*TreeStore)(nil)

func NewTreeStore(opts Options) *TreeStore {
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &TreeStore{
		local:   opts.Local,
		remote:  opts.Remote,
		catalog: cat,
		logger:  log,
		adapter: opts.Local,
		status:  board.StatusUninitialized,
		subs:    make(map[int]func(board.Snapshot)),
		orders:  newOrderQueue(),
	}
}

func (s *TreeStore) Snapshot() board.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *TreeStore) snapshotLocked() board.Snapshot {
	snap := board.Snapshot{
		Hierarchy: s.hierarchy.Clone(),
		Status:    s.status,
		Err:       s.lastErr,
		Change:    s.change,
	}
	if s.adapter != nil {
		snap.Backend = s.adapter.Backend()
	}
	if s.user != nil {
		snap.UserID = s.user.ID
	}
	return snap
}

// Subscribe registers fn for every committed change, in commit order.
func (s *TreeStore) Subscribe(fn func(board.Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *TreeStore) notify(snap board.Snapshot) {
	s.subMu.Lock()
	subs := make([]func(board.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// SwitchUser selects the backend for u (nil for guests) and reloads.
func (s *TreeStore) SwitchUser(ctx context.Context, u *auth.User) error {
	adapter := s.local
	if u != nil && s.remote != nil {
		adapter = s.remote(u.ID)
	}
	return s.load(ctx, func() {
		s.user = u
		s.adapter = adapter
	})
}

// Watch follows p until ctx is done, reloading on every identity change. It
// performs the first load for p's current user before returning.
func (s *TreeStore) Watch(ctx context.Context, p auth.Provider) error {
	unsubscribe := p.Subscribe(func(u *auth.User) {
		if err := s.SwitchUser(ctx, u); err != nil {
			s.logger.Warn("board reload after identity change failed", zap.Error(err))
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return s.SwitchUser(ctx, p.CurrentUser())
}

// Load replaces the board with the active backend's content, seeding a
// backend that holds no board yet from the catalog. A local board saved empty
// stays empty. When the backend fails the board falls back to the local copy
// (or the catalog) and the store enters StatusError; the error is returned
// but the store stays usable. A load overtaken by a newer one is discarded.
func (s *TreeStore) Load(ctx context.Context) error {
	return s.load(ctx, nil)
}

// load runs swap and starts a new generation under opMu, so no mutation can
// pair one identity's adapter with another identity's board.
func (s *TreeStore) load(ctx context.Context, swap func()) error {
	s.opMu.Lock()
	s.mu.Lock()
	if swap != nil {
		swap()
	}
	s.gen++
	gen := s.gen
	adapter := s.adapter
	s.status = board.StatusLoading
	s.lastErr = nil
	s.mu.Unlock()
	s.opMu.Unlock()

	backend := string(adapter.Backend())
	log := s.logger.With(zap.String("backend", backend), zap.Uint64("generation", gen))

	h, loadErr := s.fetchOrSeed(ctx, adapter)
	status := board.StatusReady
	if loadErr != nil {
		status = board.StatusError
		h = s.fallback(ctx)
		log.Warn("board load failed, using fallback", zap.Error(loadErr))
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		metrics.ObserveLoad(backend, "stale")
		log.Debug("discarding stale board load")
		return nil
	}
	s.hierarchy = h
	s.status = status
	s.lastErr = loadErr
	s.change = board.Change{Op: board.OpLoad}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if loadErr != nil {
		metrics.ObserveLoad(backend, "fallback")
	} else {
		metrics.ObserveLoad(backend, "ready")
		log.Info("board loaded", zap.Int("categories", len(h)))
	}
	s.notify(snap)
	return loadErr
}

func (s *TreeStore) fetchOrSeed(ctx context.Context, a board.Adapter) (model.Hierarchy, error) {
	h, err := s.fetch(ctx, a)
	if err != nil {
		return nil, err
	}
	if len(h) > 0 {
		return h, nil
	}
	provisioned, err := s.provisioned(ctx, a)
	if err != nil {
		return nil, err
	}
	if provisioned {
		return h, nil
	}
	if err := s.seed(ctx, a); err != nil {
		return nil, err
	}
	return s.fetch(ctx, a)
}

func (s *TreeStore) fetch(ctx context.Context, a board.Adapter) (model.Hierarchy, error) {
	var h model.Hierarchy
	err := s.call(a, "fetch_all", func() error {
		var err error
		h, err = a.FetchAll(ctx)
		return err
	})
	return h, err
}

// seed writes the catalog into a. A retry after a partial seed only writes
// what is still missing.
func (s *TreeStore) seed(ctx context.Context, a board.Adapter) error {
	defaults := s.catalog.Hierarchy()
	if seeder, ok := a.(board.Seeder); ok {
		return s.call(a, "seed", func() error { return seeder.Seed(ctx, defaults) })
	}

	existing, err := s.fetch(ctx, a)
	if err != nil {
		return err
	}
	for i, dc := range defaults {
		ci := existing.CategoryIndex(dc.Key)
		var cat model.Category
		if ci >= 0 {
			cat = existing[ci]
		} else {
			cat = dc.Clone()
			cat.Items = []model.Item{}
			cat.SortOrder = i
			if err := s.call(a, "create_category", func() error { return a.CreateCategory(ctx, &cat) }); err != nil {
				return err
			}
		}
		for j, it := range dc.Items {
			if cat.ItemIndex(it.Key) >= 0 {
				continue
			}
			it.SortOrder = j
			if err := s.call(a, "create_item", func() error { return a.CreateItem(ctx, &cat, &it) }); err != nil {
				return err
			}
		}
	}
	return nil
}

// provisioned reports whether an empty result from a is a board saved empty.
// Adapters that cannot tell count as never written.
func (s *TreeStore) provisioned(ctx context.Context, a board.Adapter) (bool, error) {
	p, ok := a.(board.Provisioner)
	if !ok {
		return false, nil
	}
	var out bool
	err := s.call(a, "provisioned", func() error {
		var err error
		out, err = p.Provisioned(ctx)
		return err
	})
	return out, err
}

// fallback is the board shown while the active backend is unreachable: the
// last saved local board, even an empty one, else the catalog.
func (s *TreeStore) fallback(ctx context.Context) model.Hierarchy {
	if s.local != nil {
		h, err := s.local.FetchAll(ctx)
		if err != nil {
			s.logger.Warn("local fallback unreadable", zap.Error(err))
			return s.catalog.Hierarchy()
		}
		if len(h) == 0 {
			if saved, err := s.provisioned(ctx, s.local); err != nil || !saved {
				return s.catalog.Hierarchy()
			}
		}
		h.Reindex()
		return h
	}
	return s.catalog.Hierarchy()
}

// call runs one adapter call, recording it and classifying its error.
// Domain errors pass through; everything else becomes ErrAdapterUnavailable.
func (s *TreeStore) call(a board.Adapter, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveAdapterCall(string(a.Backend()), op, start, err)
	if err == nil {
		return nil
	}
	s.logger.Error("board adapter call failed",
		zap.String("backend", string(a.Backend())),
		zap.String("op", op),
		zap.Error(err),
	)
	if errors.Is(err, board.ErrNotFound) || errors.Is(err, board.ErrDuplicateKey) ||
		errors.Is(err, board.ErrInvalidPermutation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", board.ErrAdapterUnavailable, op, err)
}

// opState is what a mutation works from. It is taken with opMu held.
type opState struct {
	gen       uint64
	adapter   board.Adapter
	hierarchy model.Hierarchy
}

// begin acquires opMu and captures the state. The caller must call s.end.
func (s *TreeStore) begin() (opState, error) {
	s.opMu.Lock()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status != board.StatusReady && s.status != board.StatusError {
		return opState{}, board.ErrNotLoaded
	}
	return opState{
		gen:       s.gen,
		adapter:   s.adapter,
		hierarchy: s.hierarchy.Clone(),
	}, nil
}

func (s *TreeStore) end() {
	s.opMu.Unlock()
}

// commit publishes next unless a load started since st was taken; in that
// case the change belongs to a board that is being replaced.
func (s *TreeStore) commit(st opState, next model.Hierarchy, change board.Change) {
	next.Reindex()

	s.mu.Lock()
	if st.gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("dropping change for replaced board", zap.String("op", string(change.Op)))
		return
	}
	s.hierarchy = next
	s.change = change
	if s.status == board.StatusReady {
		s.lastErr = nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// remoteless reports whether a remote-backed write has to be skipped because
// the target was never created remotely. The skip is logged so the drift can
// be reconciled by a reload.
func (s *TreeStore) remoteless(a board.Adapter, remoteID string, op board.Op, fields ...zap.Field) bool {
	if a.Backend() != board.BackendRemote || remoteID != "" {
		return false
	}
	s.logger.Warn("board entry has no remote id, change kept in memory only",
		append(fields, zap.String("op", string(op)))...)
	return true
}

func (s *TreeStore) Phrase(categoryKey, itemKey string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ci := s.hierarchy.CategoryIndex(categoryKey)
	if ci < 0 {
		return "", fmt.Errorf("category %q: %w", categoryKey, board.ErrNotFound)
	}
	cat := s.hierarchy[ci]
	ii := cat.ItemIndex(itemKey)
	if ii < 0 {
		return "", fmt.Errorf("item %q in %q: %w", itemKey, categoryKey, board.ErrNotFound)
	}
	return cat.Phrase(cat.Items[ii]), nil
}
