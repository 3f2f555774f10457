package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/board/dto"
	"github.com/fekuna/speakeasy-board-service/internal/model"
	"go.uber.org/zap"
)

// AddCategory appends a new empty category. The key must already be
// normalized. The board only changes once the backend accepted the row.
func (s *TreeStore) AddCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if input.Key == "" {
		return nil, fmt.Errorf("category: %w", board.ErrInvalidKey)
	}

	st, err := s.begin()
	defer s.end()
	if err != nil {
		return nil, err
	}

	h := st.hierarchy
	if h.CategoryIndex(input.Key) >= 0 {
		return nil, fmt.Errorf("category %q: %w", input.Key, board.ErrDuplicateKey)
	}

	cat := model.Category{
		Key:       input.Key,
		Label:     input.Label,
		Icon:      input.Icon,
		Items:     []model.Item{},
		SortOrder: len(h),
	}
	if err := s.call(st.adapter, "create_category", func() error {
		return st.adapter.CreateCategory(ctx, &cat)
	}); err != nil {
		return nil, err
	}

	s.commit(st, append(h, cat), board.Change{Op: board.OpAddCategory, CategoryKey: cat.Key})
	out := cat.Clone()
	return &out, nil
}

// UpdateCategory changes label and icon only.
func (s *TreeStore) UpdateCategory(ctx context.Context, key string, patch *dto.CategoryPatch) (*model.Category, error) {
	st, err := s.begin()
	defer s.end()
	if err != nil {
		return nil, err
	}

	h := st.hierarchy
	i := h.CategoryIndex(key)
	if i < 0 {
		return nil, fmt.Errorf("category %q: %w", key, board.ErrNotFound)
	}

	cat := h[i]
	if patch.Label != nil {
		cat.Label = *patch.Label
	}
	if patch.Icon != nil {
		cat.Icon = *patch.Icon
	}

	if !s.remoteless(st.adapter, cat.RemoteID, board.OpUpdateCategory, zap.String("category_key", key)) {
		if err := s.call(st.adapter, "update_category", func() error {
			return st.adapter.UpdateCategory(ctx, &cat)
		}); err != nil {
			return nil, err
		}
	}

	h[i] = cat
	s.commit(st, h, board.Change{Op: board.OpUpdateCategory, CategoryKey: key})
	out := cat.Clone()
	return &out, nil
}

// DeleteCategory removes a category with its items. On a backend failure
// the board is left exactly as it was.
func (s *TreeStore) DeleteCategory(ctx context.Context, key string) error {
	st, err := s.begin()
	defer s.end()
	if err != nil {
		return err
	}

	h := st.hierarchy
	i := h.CategoryIndex(key)
	if i < 0 {
		return fmt.Errorf("category %q: %w", key, board.ErrNotFound)
	}

	cat := h[i]
	if !s.remoteless(st.adapter, cat.RemoteID, board.OpDeleteCategory, zap.String("category_key", key)) {
		if err := s.call(st.adapter, "delete_category", func() error {
			return st.adapter.DeleteCategory(ctx, &cat)
		}); err != nil {
			return err
		}
	}

	next := append(h[:i:i], h[i+1:]...)
	s.commit(st, next, board.Change{Op: board.OpDeleteCategory, CategoryKey: key})
	return nil
}

// ReorderCategories applies a new category order immediately and persists
// it in the background. Persistence failures are logged, never rolled back.
func (s *TreeStore) ReorderCategories(ctx context.Context, keys []string) error {
	st, err := s.begin()
	defer s.end()
	if err != nil {
		return err
	}

	h := st.hierarchy
	if !model.IsPermutation(h.Keys(), keys) {
		return fmt.Errorf("category order: %w", board.ErrInvalidPermutation)
	}

	next := make(model.Hierarchy, len(keys))
	for i, k := range keys {
		next[i] = h[h.CategoryIndex(k)]
	}
	s.commit(st, next, board.Change{Op: board.OpReorderCategories})

	ordered := next.Clone()
	adapter := st.adapter
	s.orders.enqueue(fmt.Sprintf("%d/categories", st.gen), func(ctx context.Context) error {
		return s.call(adapter, "set_category_order", func() error {
			return adapter.SetCategoryOrder(ctx, ordered)
		})
	}, s.reorderFailed(adapter))
	return nil
}

func (s *TreeStore) reorderFailed(a board.Adapter) func(scope string, err error) {
	return func(scope string, err error) {
		s.logger.Error("reorder not persisted",
			zap.String("backend", string(a.Backend())),
			zap.String("scope", scope),
			zap.Error(err),
		)
		observeReorderFailure(a)
	}
}
