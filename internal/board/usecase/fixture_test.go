package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/speakeasy-board-service/internal/auth"
	"github.com/fekuna/speakeasy-board-service/internal/blob"
	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/board/repository"
	"github.com/fekuna/speakeasy-board-service/internal/catalog"
	"github.com/fekuna/speakeasy-board-service/internal/logger"
	"github.com/fekuna/speakeasy-board-service/internal/model"
	"github.com/fekuna/speakeasy-board-service/internal/testutil"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errBackendDown = errors.New("connection refused")

// faultyAdapter wraps a real adapter and fails the methods named in fail.
type faultyAdapter struct {
	board.Adapter

	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

func newFaultyAdapter(a board.Adapter) *faultyAdapter {
	return &faultyAdapter{Adapter: a, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *faultyAdapter) failOn(methods ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range methods {
		f.fail[m] = true
	}
}

func (f *faultyAdapter) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[string]bool{}
}

func (f *faultyAdapter) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *faultyAdapter) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.fail[method] {
		return errBackendDown
	}
	return nil
}

func (f *faultyAdapter) FetchAll(ctx context.Context) (model.Hierarchy, error) {
	if err := f.check("FetchAll"); err != nil {
		return nil, err
	}
	return f.Adapter.FetchAll(ctx)
}

func (f *faultyAdapter) CreateCategory(ctx context.Context, c *model.Category) error {
	if err := f.check("CreateCategory"); err != nil {
		return err
	}
	return f.Adapter.CreateCategory(ctx, c)
}

func (f *faultyAdapter) UpdateCategory(ctx context.Context, c *model.Category) error {
	if err := f.check("UpdateCategory"); err != nil {
		return err
	}
	return f.Adapter.UpdateCategory(ctx, c)
}

func (f *faultyAdapter) DeleteCategory(ctx context.Context, c *model.Category) error {
	if err := f.check("DeleteCategory"); err != nil {
		return err
	}
	return f.Adapter.DeleteCategory(ctx, c)
}

func (f *faultyAdapter) CreateItem(ctx context.Context, c *model.Category, it *model.Item) error {
	if err := f.check("CreateItem"); err != nil {
		return err
	}
	return f.Adapter.CreateItem(ctx, c, it)
}

func (f *faultyAdapter) UpdateItem(ctx context.Context, c *model.Category, it *model.Item) error {
	if err := f.check("UpdateItem"); err != nil {
		return err
	}
	return f.Adapter.UpdateItem(ctx, c, it)
}

func (f *faultyAdapter) DeleteItem(ctx context.Context, c *model.Category, it *model.Item) error {
	if err := f.check("DeleteItem"); err != nil {
		return err
	}
	return f.Adapter.DeleteItem(ctx, c, it)
}

func (f *faultyAdapter) SetCategoryOrder(ctx context.Context, ordered []model.Category) error {
	if err := f.check("SetCategoryOrder"); err != nil {
		return err
	}
	return f.Adapter.SetCategoryOrder(ctx, ordered)
}

func (f *faultyAdapter) SetItemOrder(ctx context.Context, c *model.Category) error {
	if err := f.check("SetItemOrder"); err != nil {
		return err
	}
	return f.Adapter.SetItemOrder(ctx, c)
}

func (f *faultyAdapter) ClearAll(ctx context.Context) error {
	if err := f.check("ClearAll"); err != nil {
		return err
	}
	return f.Adapter.ClearAll(ctx)
}

func (f *faultyAdapter) Seed(ctx context.Context, h model.Hierarchy) error {
	if err := f.check("Seed"); err != nil {
		return err
	}
	return f.Adapter.(board.Seeder).Seed(ctx, h)
}

type fixture struct {
	store *TreeStore
	db    *sqlx.DB
	local *repository.LocalRepository
	logs  *observer.ObservedLogs

	mu      sync.Mutex
	remotes map[string]*faultyAdapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	files, err := blob.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })

	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		db:      testutil.NewSQLiteDB(t),
		local:   repository.NewLocalRepository(files),
		logs:    logs,
		remotes: map[string]*faultyAdapter{},
	}
	f.store = NewTreeStore(Options{
		Local:   f.local,
		Remote:  func(userID string) board.Adapter { return f.remote(userID) },
		Catalog: catalog.Default(),
		Logger:  logger.Wrap(zap.New(core)),
	})
	t.Cleanup(f.store.WaitPersisted)
	return f
}

// remote returns the adapter the store uses for userID.
func (f *fixture) remote(userID string) *faultyAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.remotes[userID]
	if !ok {
		a = newFaultyAdapter(repository.NewPGRepository(f.db, userID))
		f.remotes[userID] = a
	}
	return a
}

// activate loads the board for backend, signing in as "u1" for the remote.
func (f *fixture) activate(t *testing.T, backend board.Backend) {
	t.Helper()
	var u *auth.User
	if backend == board.BackendRemote {
		u = &auth.User{ID: "u1"}
	}
	require.NoError(t, f.store.SwitchUser(context.Background(), u))
	require.Equal(t, backend, f.store.Snapshot().Backend)
}

// reload waits for pending reorders and loads again.
func (f *fixture) reload(t *testing.T) board.Snapshot {
	t.Helper()
	f.store.WaitPersisted()
	require.NoError(t, f.store.Load(context.Background()))
	return f.store.Snapshot()
}

var backends = []board.Backend{board.BackendLocal, board.BackendRemote}

func defaults() model.Hierarchy {
	return catalog.Default().Hierarchy()
}

func findCategory(t *testing.T, h model.Hierarchy, key string) model.Category {
	t.Helper()
	i := h.CategoryIndex(key)
	require.GreaterOrEqual(t, i, 0, "category %q missing", key)
	return h[i]
}

func findItem(t *testing.T, h model.Hierarchy, categoryKey, itemKey string) model.Item {
	t.Helper()
	c := findCategory(t, h, categoryKey)
	j := c.ItemIndex(itemKey)
	require.GreaterOrEqual(t, j, 0, "item %q missing in %q", itemKey, categoryKey)
	return c.Items[j]
}

func reversed(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[len(keys)-1-i] = k
	}
	return out
}
