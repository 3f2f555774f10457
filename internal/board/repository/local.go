package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fekuna/speakeasy-board-service/internal/blob"
	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/model"
)

// StorageKey is the fixed key the guest board lives under.
const StorageKey = "speakeasy-categories"

// LocalRepository keeps the whole board as one JSON document. Every write
// reads the document, changes it and writes it back.
type LocalRepository struct {
	Store blob.Store
	mu    sync.Mutex // Serializes read-modify-write cycles
}

var (
	_ board.Adapter = (*LocalRepository)(nil)
	_ board.Seeder      = (*LocalRepository)(nil)
	_ board.Provisioner = (*LocalRepository)(nil)
)

func NewLocalRepository(store blob.Store) *LocalRepository {
	return &LocalRepository{Store: store}
}

func (r *LocalRepository) Backend() board.Backend {
	return board.BackendLocal
}

// FetchAll returns the stored board. Missing or malformed data reads as an
// empty board.
func (r *LocalRepository) FetchAll(ctx context.Context) (model.Hierarchy, error) {
	data, err := r.Store.Get(ctx, StorageKey)
	if errors.Is(err, blob.ErrNotFound) {
		return model.Hierarchy{}, nil
	}
	if err != nil {
		return nil, err
	}

	var h model.Hierarchy
	if err := json.Unmarshal(data, &h); err != nil {
		return model.Hierarchy{}, nil
	}
	if h == nil {
		h = model.Hierarchy{}
	}
	return h, nil
}

// Provisioned reports whether a readable board has been saved, even an empty
// one. A missing or malformed document counts as never written.
func (r *LocalRepository) Provisioned(ctx context.Context) (bool, error) {
	data, err := r.Store.Get(ctx, StorageKey)
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var h model.Hierarchy
	if err := json.Unmarshal(data, &h); err != nil || h == nil {
		return false, nil
	}
	return true, nil
}

// Save overwrites the stored board with h.
func (r *LocalRepository) Save(ctx context.Context, h model.Hierarchy) error {
	if h == nil {
		h = model.Hierarchy{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	return r.Store.Put(ctx, StorageKey, data)
}

func (r *LocalRepository) modify(ctx context.Context, fn func(h model.Hierarchy) (model.Hierarchy, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.FetchAll(ctx)
	if err != nil {
		return err
	}
	h, err = fn(h)
	if err != nil {
		return err
	}
	h.Reindex()
	return r.Save(ctx, h)
}

func (r *LocalRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		if h.CategoryIndex(c.Key) >= 0 {
			return nil, fmt.Errorf("category %q: %w", c.Key, board.ErrDuplicateKey)
		}
		cat := c.Clone()
		if cat.Items == nil {
			cat.Items = []model.Item{}
		}
		return append(h, cat), nil
	})
}

func (r *LocalRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		i := h.CategoryIndex(c.Key)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", c.Key, board.ErrNotFound)
		}
		h[i].Label = c.Label
		h[i].Icon = c.Icon
		return h, nil
	})
}

func (r *LocalRepository) DeleteCategory(ctx context.Context, c *model.Category) error {
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		i := h.CategoryIndex(c.Key)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", c.Key, board.ErrNotFound)
		}
		return append(h[:i], h[i+1:]...), nil
	})
}

func (r *LocalRepository) CreateItem(ctx context.Context, c *model.Category, it *model.Item) error {
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		i := h.CategoryIndex(c.Key)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", c.Key, board.ErrNotFound)
		}
		if h[i].ItemIndex(it.Key) >= 0 {
			return nil, fmt.Errorf("item %q in %q: %w", it.Key, c.Key, board.ErrDuplicateKey)
		}
		h[i].Items = append(h[i].Items, *it)
		return h, nil
	})
}

func (r *LocalRepository) UpdateItem(ctx context.Context, c *model.Category, it *model.Item) error {
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		i := h.CategoryIndex(c.Key)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", c.Key, board.ErrNotFound)
		}
		j := h[i].ItemIndex(it.Key)
		if j < 0 {
			return nil, fmt.Errorf("item %q in %q: %w", it.Key, c.Key, board.ErrNotFound)
		}
		h[i].Items[j].Label = it.Label
		h[i].Items[j].Icon = it.Icon
		h[i].Items[j].ImageRef = it.ImageRef
		return h, nil
	})
}

func (r *LocalRepository) DeleteItem(ctx context.Context, c *model.Category, it *model.Item) error {
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		i := h.CategoryIndex(c.Key)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", c.Key, board.ErrNotFound)
		}
		j := h[i].ItemIndex(it.Key)
		if j < 0 {
			return nil, fmt.Errorf("item %q in %q: %w", it.Key, c.Key, board.ErrNotFound)
		}
		h[i].Items = append(h[i].Items[:j], h[i].Items[j+1:]...)
		return h, nil
	})
}

// SetCategoryOrder moves the listed categories to the front in the given
// order. Stored categories that are not listed keep their relative order
// after them and listed keys that are not stored are ignored, so an order
// captured before a concurrent add or delete still applies cleanly.
func (r *LocalRepository) SetCategoryOrder(ctx context.Context, ordered []model.Category) error {
	keys := make([]string, len(ordered))
	for i, c := range ordered {
		keys[i] = c.Key
	}
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		return arrange(h, keys, func(c model.Category) string { return c.Key }), nil
	})
}

func (r *LocalRepository) SetItemOrder(ctx context.Context, c *model.Category) error {
	keys := c.ItemKeys()
	return r.modify(ctx, func(h model.Hierarchy) (model.Hierarchy, error) {
		i := h.CategoryIndex(c.Key)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", c.Key, board.ErrNotFound)
		}
		h[i].Items = arrange(h[i].Items, keys, func(it model.Item) string { return it.Key })
		return h, nil
	})
}

func arrange[T any](cur []T, keys []string, keyOf func(T) string) []T {
	pos := make(map[string]int, len(cur))
	for i, v := range cur {
		pos[keyOf(v)] = i
	}
	out := make([]T, 0, len(cur))
	used := make([]bool, len(cur))
	for _, k := range keys {
		if i, ok := pos[k]; ok && !used[i] {
			out = append(out, cur[i])
			used[i] = true
		}
	}
	for i, v := range cur {
		if !used[i] {
			out = append(out, v)
		}
	}
	return out
}

func (r *LocalRepository) ClearAll(ctx context.Context) error {
	return r.Store.Delete(ctx, StorageKey)
}

// Seed merges h into the stored board in one write, keeping existing keys.
func (r *LocalRepository) Seed(ctx context.Context, h model.Hierarchy) error {
	return r.modify(ctx, func(cur model.Hierarchy) (model.Hierarchy, error) {
		return mergeMissing(cur, h), nil
	})
}

// mergeMissing appends the categories and items of seed whose keys are not
// yet in cur, preserving seed order.
func mergeMissing(cur, seed model.Hierarchy) model.Hierarchy {
	for _, sc := range seed {
		i := cur.CategoryIndex(sc.Key)
		if i < 0 {
			cur = append(cur, sc.Clone())
			continue
		}
		for _, it := range sc.Items {
			if cur[i].ItemIndex(it.Key) < 0 {
				cur[i].Items = append(cur[i].Items, it)
			}
		}
	}
	return cur
}
