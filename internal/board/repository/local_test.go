package repository_test

import (
	"context"
	"testing"

	"github.com/fekuna/speakeasy-board-service/internal/blob"
	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/board/repository"
	"github.com/fekuna/speakeasy-board-service/internal/catalog"
	"github.com/fekuna/speakeasy-board-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*repository.LocalRepository, blob.Store) {
	t.Helper()
	store, err := blob.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return repository.NewLocalRepository(store), store
}

func TestLocalRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newLocal(t)

	h := catalog.Default().Hierarchy()
	h[0].Items[0].ImageRef = "img/yes.png"
	h = append(h, model.Category{Key: "empty", Label: "Nothing yet", Items: []model.Item{}})
	h.Reindex()

	require.NoError(t, repo.Save(ctx, h))
	got, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestLocalRepositoryMissingOrMalformedReadsEmpty(t *testing.T) {
	ctx := context.Background()
	repo, store := newLocal(t)

	h, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)

	require.NoError(t, store.Put(ctx, repository.StorageKey, []byte("{not json")))
	h, err = repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestLocalRepositoryRowOperations(t *testing.T) {
	ctx := context.Background()
	repo, _ := newLocal(t)
	require.NoError(t, repo.Seed(ctx, catalog.Default().Hierarchy()))

	pizza := &model.Item{Key: "pizza", Label: "pizza", Icon: "🍕"}
	eat := &model.Category{Key: "eat"}
	require.NoError(t, repo.CreateItem(ctx, eat, pizza))
	assert.ErrorIs(t, repo.CreateItem(ctx, eat, pizza), board.ErrDuplicateKey)

	pizza.Label = "Pizza Night"
	require.NoError(t, repo.UpdateItem(ctx, eat, pizza))

	require.NoError(t, repo.CreateCategory(ctx, &model.Category{Key: "music", Label: "Play"}))
	assert.ErrorIs(t, repo.CreateCategory(ctx, &model.Category{Key: "music"}), board.ErrDuplicateKey)

	require.NoError(t, repo.UpdateCategory(ctx, &model.Category{Key: "music", Label: "Listen to", Icon: "🎵"}))
	require.NoError(t, repo.DeleteItem(ctx, eat, &model.Item{Key: "soup"}))
	require.NoError(t, repo.DeleteCategory(ctx, &model.Category{Key: "watch"}))
	assert.ErrorIs(t, repo.DeleteCategory(ctx, &model.Category{Key: "watch"}), board.ErrNotFound)

	h, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.NoError(t, h.Validate())

	ei := h.CategoryIndex("eat")
	require.GreaterOrEqual(t, ei, 0)
	last := h[ei].Items[len(h[ei].Items)-1]
	assert.Equal(t, "Pizza Night", last.Label)
	assert.Equal(t, -1, h[ei].ItemIndex("soup"))
	assert.Equal(t, -1, h.CategoryIndex("watch"))
	assert.Equal(t, "Listen to", h[len(h)-1].Label)
}

func TestLocalRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	repo, _ := newLocal(t)
	require.NoError(t, repo.Seed(ctx, catalog.Default().Hierarchy()))

	h, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	ordered := []model.Category{h[7], h[6], h[5], h[4], h[3], h[2], h[1], h[0]}
	require.NoError(t, repo.SetCategoryOrder(ctx, ordered))

	drink := h[h.CategoryIndex("drink")].Clone()
	drink.Items[0], drink.Items[1] = drink.Items[1], drink.Items[0]
	require.NoError(t, repo.SetItemOrder(ctx, &drink))

	got, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"places", "people", "drink", "eat", "watch", "needs", "feelings", "responses"}, got.Keys())
	assert.Equal(t, []string{"tea", "water"}, got[got.CategoryIndex("drink")].ItemKeys()[:2])
	assert.NoError(t, got.Validate())
}

func TestLocalRepositoryOrderToleratesConcurrentChanges(t *testing.T) {
	ctx := context.Background()
	repo, _ := newLocal(t)
	require.NoError(t, repo.Seed(ctx, model.Hierarchy{
		{Key: "a", Items: []model.Item{}},
		{Key: "b", Items: []model.Item{}},
		{Key: "c", Items: []model.Item{}},
	}))

	// Order captured before "d" was added and "a" was deleted.
	captured := []model.Category{{Key: "c"}, {Key: "a"}, {Key: "b"}}
	require.NoError(t, repo.CreateCategory(ctx, &model.Category{Key: "d"}))
	require.NoError(t, repo.DeleteCategory(ctx, &model.Category{Key: "a"}))
	require.NoError(t, repo.SetCategoryOrder(ctx, captured))

	got, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "d"}, got.Keys())
	assert.NoError(t, got.Validate())
}

func TestLocalRepositoryClearAll(t *testing.T) {
	ctx := context.Background()
	repo, _ := newLocal(t)
	require.NoError(t, repo.Seed(ctx, catalog.Default().Hierarchy()))
	require.NoError(t, repo.ClearAll(ctx))

	h, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestLocalRepositoryProvisioned(t *testing.T) {
	ctx := context.Background()
	repo, store := newLocal(t)

	ok, err := repo.Provisioned(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, model.Hierarchy{}))
	ok, err = repo.Provisioned(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	h, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Hierarchy{}, h)

	require.NoError(t, store.Put(ctx, repository.StorageKey, []byte("{")))
	ok, err = repo.Provisioned(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.ClearAll(ctx))
	ok, err = repo.Provisioned(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
