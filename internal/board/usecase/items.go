package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/board/dto"
	"github.com/fekuna/speakeasy-board-service/internal/model"
	"go.uber.org/zap"
)

func (s *TreeStore) AddItem(ctx context.Context, categoryKey string, input *dto.CreateItemInput) (*model.Item, error) {
	if input.Key == "" {
		return nil, fmt.Errorf("item: %w", board.ErrInvalidKey)
	}

	st, err := s.begin()
	defer s.end()
	if err != nil {
		return nil, err
	}

	h := st.hierarchy
	ci := h.CategoryIndex(categoryKey)
	if ci < 0 {
		return nil, fmt.Errorf("category %q: %w", categoryKey, board.ErrNotFound)
	}
	cat := h[ci]
	if cat.ItemIndex(input.Key) >= 0 {
		return nil, fmt.Errorf("item %q in %q: %w", input.Key, categoryKey, board.ErrDuplicateKey)
	}

	item := model.Item{
		Key:       input.Key,
		Label:     input.Label,
		Icon:      input.Icon,
		ImageRef:  input.ImageRef,
		SortOrder: len(cat.Items),
	}
	if !s.remoteless(st.adapter, cat.RemoteID, board.OpAddItem,
		zap.String("category_key", categoryKey), zap.String("item_key", item.Key)) {
		if err := s.call(st.adapter, "create_item", func() error {
			return st.adapter.CreateItem(ctx, &cat, &item)
		}); err != nil {
			return nil, err
		}
	}

	h[ci].Items = append(cat.Items, item)
	s.commit(st, h, board.Change{Op: board.OpAddItem, CategoryKey: categoryKey, ItemKey: item.Key})
	out := item
	return &out, nil
}

func (s *TreeStore) UpdateItem(ctx context.Context, categoryKey, itemKey string, patch *dto.ItemPatch) (*model.Item, error) {
	st, err := s.begin()
	defer s.end()
	if err != nil {
		return nil, err
	}

	h := st.hierarchy
	ci, ii, err := locateItem(h, categoryKey, itemKey)
	if err != nil {
		return nil, err
	}
	cat := h[ci]
	item := cat.Items[ii]
	if patch.Label != nil {
		item.Label = *patch.Label
	}
	if patch.Icon != nil {
		item.Icon = *patch.Icon
	}
	if patch.ImageRef != nil {
		item.ImageRef = *patch.ImageRef
	}

	if !s.remoteless(st.adapter, item.RemoteID, board.OpUpdateItem,
		zap.String("category_key", categoryKey), zap.String("item_key", itemKey)) {
		if err := s.call(st.adapter, "update_item", func() error {
			return st.adapter.UpdateItem(ctx, &cat, &item)
		}); err != nil {
			return nil, err
		}
	}

	h[ci].Items[ii] = item
	s.commit(st, h, board.Change{Op: board.OpUpdateItem, CategoryKey: categoryKey, ItemKey: itemKey})
	out := item
	return &out, nil
}

func (s *TreeStore) DeleteItem(ctx context.Context, categoryKey, itemKey string) error {
	st, err := s.begin()
	defer s.end()
	if err != nil {
		return err
	}

	h := st.hierarchy
	ci, ii, err := locateItem(h, categoryKey, itemKey)
	if err != nil {
		return err
	}
	cat := h[ci]
	item := cat.Items[ii]

	if !s.remoteless(st.adapter, item.RemoteID, board.OpDeleteItem,
		zap.String("category_key", categoryKey), zap.String("item_key", itemKey)) {
		if err := s.call(st.adapter, "delete_item", func() error {
			return st.adapter.DeleteItem(ctx, &cat, &item)
		}); err != nil {
			return err
		}
	}

	h[ci].Items = append(cat.Items[:ii:ii], cat.Items[ii+1:]...)
	s.commit(st, h, board.Change{Op: board.OpDeleteItem, CategoryKey: categoryKey, ItemKey: itemKey})
	return nil
}

// ReorderItems is the per-category counterpart of ReorderCategories.
func (s *TreeStore) ReorderItems(ctx context.Context, categoryKey string, keys []string) error {
	st, err := s.begin()
	defer s.end()
	if err != nil {
		return err
	}

	h := st.hierarchy
	ci := h.CategoryIndex(categoryKey)
	if ci < 0 {
		return fmt.Errorf("category %q: %w", categoryKey, board.ErrNotFound)
	}
	cat := h[ci]
	if !model.IsPermutation(cat.ItemKeys(), keys) {
		return fmt.Errorf("item order in %q: %w", categoryKey, board.ErrInvalidPermutation)
	}

	items := make([]model.Item, len(keys))
	for i, k := range keys {
		items[i] = cat.Items[cat.ItemIndex(k)]
	}
	h[ci].Items = items
	s.commit(st, h, board.Change{Op: board.OpReorderItems, CategoryKey: categoryKey})

	ordered := h[ci].Clone()
	adapter := st.adapter
	s.orders.enqueue(fmt.Sprintf("%d/items/%s", st.gen, categoryKey), func(ctx context.Context) error {
		return s.call(adapter, "set_item_order", func() error {
			return adapter.SetItemOrder(ctx, &ordered)
		})
	}, s.reorderFailed(adapter))
	return nil
}

func locateItem(h model.Hierarchy, categoryKey, itemKey string) (int, int, error) {
	ci := h.CategoryIndex(categoryKey)
	if ci < 0 {
		return 0, 0, fmt.Errorf("category %q: %w", categoryKey, board.ErrNotFound)
	}
	ii := h[ci].ItemIndex(itemKey)
	if ii < 0 {
		return 0, 0, fmt.Errorf("item %q in %q: %w", itemKey, categoryKey, board.ErrNotFound)
	}
	return ci, ii, nil
}
