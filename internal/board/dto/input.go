package dto

type CreateCategoryInput struct {
	Key   string
	Label string
	Icon  string
}

// CategoryPatch carries the fields to change; nil leaves a field untouched.
type CategoryPatch struct {
	Label *string
	Icon  *string
}

type CreateItemInput struct {
	Key      string
	Label    string
	Icon     string
	ImageRef string
}

type ItemPatch struct {
	Label    *string
	Icon     *string
	ImageRef *string
}
