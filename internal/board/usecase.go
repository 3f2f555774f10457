package board

import (
	"context"

	"github.com/fekuna/speakeasy-board-service/internal/board/dto"
	"github.com/fekuna/speakeasy-board-service/internal/model"
)

type UseCase interface {
	Load(ctx context.Context) error
	Snapshot() Snapshot
	Subscribe(fn func(Snapshot)) (unsubscribe func())

	AddCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, key string, patch *dto.CategoryPatch) (*model.Category, error)
	DeleteCategory(ctx context.Context, key string) error
	ReorderCategories(ctx context.Context, keys []string) error

	AddItem(ctx context.Context, categoryKey string, input *dto.CreateItemInput) (*model.Item, error)
	UpdateItem(ctx context.Context, categoryKey, itemKey string, patch *dto.ItemPatch) (*model.Item, error)
	DeleteItem(ctx context.Context, categoryKey, itemKey string) error
	ReorderItems(ctx context.Context, categoryKey string, keys []string) error

	ResetToDefaults(ctx context.Context) error
	Phrase(categoryKey, itemKey string) (string, error)
}
