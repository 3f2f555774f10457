package board

import (
	"context"

	"github.com/fekuna/speakeasy-board-service/internal/model"
)

type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// Adapter persists the board. Methods that create rows may assign RemoteID on
// the value they are given; callers must treat every other field as read-only.
type Adapter interface {
	Backend() Backend
	FetchAll(ctx context.Context) (model.Hierarchy, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, c *model.Category) error

	CreateItem(ctx context.Context, c *model.Category, it *model.Item) error
	UpdateItem(ctx context.Context, c *model.Category, it *model.Item) error
	DeleteItem(ctx context.Context, c *model.Category, it *model.Item) error

	SetCategoryOrder(ctx context.Context, ordered []model.Category) error
	SetItemOrder(ctx context.Context, c *model.Category) error

	ClearAll(ctx context.Context) error
}

// Seeder is implemented by adapters that can write a whole seed hierarchy in
// one step. Seed must skip categories and items whose keys already exist.
type Seeder interface {
	Seed(ctx context.Context, h model.Hierarchy) error
}

// Provisioner is implemented by adapters that can tell a store that was never
// written (or is unreadable) from one that was saved empty. Such a store is
// only seeded in the first case.
type Provisioner interface {
	Provisioned(ctx context.Context) (bool, error)
}
