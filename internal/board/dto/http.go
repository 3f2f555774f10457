package dto

import "github.com/fekuna/speakeasy-board-service/internal/model"

// CreateCategoryRequest derives the key from the label when key is omitted.
type CreateCategoryRequest struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

func (r CreateCategoryRequest) Input() *CreateCategoryInput {
	key := r.Key
	if key == "" {
		key = r.Label
	}
	return &CreateCategoryInput{Key: NormalizeKey(key), Label: r.Label, Icon: r.Icon}
}

type UpdateCategoryRequest struct {
	Label *string `json:"label"`
	Icon  *string `json:"icon"`
}

func (r UpdateCategoryRequest) Patch() *CategoryPatch {
	return &CategoryPatch{Label: r.Label, Icon: r.Icon}
}

type CreateItemRequest struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Icon     string `json:"icon"`
	ImageRef string `json:"imageRef"`
}

func (r CreateItemRequest) Input() *CreateItemInput {
	key := r.Key
	if key == "" {
		key = r.Label
	}
	return &CreateItemInput{Key: NormalizeKey(key), Label: r.Label, Icon: r.Icon, ImageRef: r.ImageRef}
}

type UpdateItemRequest struct {
	Label    *string `json:"label"`
	Icon     *string `json:"icon"`
	ImageRef *string `json:"imageRef"`
}

func (r UpdateItemRequest) Patch() *ItemPatch {
	return &ItemPatch{Label: r.Label, Icon: r.Icon, ImageRef: r.ImageRef}
}

type OrderRequest struct {
	Keys []string `json:"keys"`
}

type SessionRequest struct {
	UserID string `json:"user_id"`
}

type BoardResponse struct {
	Status     string          `json:"status"`
	Backend    string          `json:"backend"`
	UserID     string          `json:"user_id,omitempty"`
	Error      string          `json:"error,omitempty"`
	Categories model.Hierarchy `json:"categories"`
}

type PhraseResponse struct {
	Phrase string `json:"phrase"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
