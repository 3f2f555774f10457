package board

import "github.com/fekuna/speakeasy-board-service/internal/model"

type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusError         Status = "error"
)

type Op string

const (
	OpLoad              Op = "load"
	OpAddCategory       Op = "add_category"
	OpUpdateCategory    Op = "update_category"
	OpDeleteCategory    Op = "delete_category"
	OpReorderCategories Op = "reorder_categories"
	OpAddItem           Op = "add_item"
	OpUpdateItem        Op = "update_item"
	OpDeleteItem        Op = "delete_item"
	OpReorderItems      Op = "reorder_items"
	OpReset             Op = "reset"
)

// Change describes the operation that produced a snapshot.
type Change struct {
	Op          Op
	CategoryKey string
	ItemKey     string
}

// Snapshot is a point-in-time copy of the board state. The hierarchy is
// owned by the receiver.
type Snapshot struct {
	Hierarchy model.Hierarchy
	Status    Status
	Backend   Backend
	UserID    string
	Err       error // Last load failure while in StatusError
	Change    Change
}
