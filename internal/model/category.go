package model

// Category is one board page: a label that prefixes the phrase and the items
// selectable under it.
type Category struct {
	Key       string `json:"key"`
	RemoteID  string `json:"remoteId,omitempty"`
	Label     string `json:"label"` // Empty: the phrase is the item label alone
	Icon      string `json:"icon"`
	Items     []Item `json:"items"`
	SortOrder int    `json:"sortOrder"`
}

type Item struct {
	Key       string `json:"key"`
	RemoteID  string `json:"remoteId,omitempty"`
	Label     string `json:"label"`
	Icon      string `json:"icon"`
	ImageRef  string `json:"imageRef,omitempty"`
	SortOrder int    `json:"sortOrder"`
}

// CategoryRow is the remote representation of a category.
type CategoryRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	CategoryKey string `db:"category_key"`
	Label       string `db:"label"`
	Icon        string `db:"icon"`
	SortOrder   int    `db:"sort_order"`
}

type ItemRow struct {
	ID         string  `db:"id"`
	UserID     string  `db:"user_id"`
	CategoryID string  `db:"category_id"`
	ItemKey    string  `db:"item_key"`
	Label      string  `db:"label"`
	Icon       string  `db:"icon"`
	ImagePath  *string `db:"image_path"` // Nullable
	SortOrder  int     `db:"sort_order"`
}

func (c Category) Clone() Category {
	out := c
	if c.Items != nil {
		out.Items = make([]Item, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}

// ItemIndex returns the position of the item with key, or -1.
func (c Category) ItemIndex(key string) int {
	for i, it := range c.Items {
		if it.Key == key {
			return i
		}
	}
	return -1
}

func (c Category) ItemKeys() []string {
	keys := make([]string, len(c.Items))
	for i, it := range c.Items {
		keys[i] = it.Key
	}
	return keys
}

// Phrase is what gets spoken when item is selected under c.
func (c Category) Phrase(item Item) string {
	if c.Label == "" {
		return item.Label
	}
	return c.Label + " " + item.Label
}
