package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/ncruces/go-sqlite3"
)

const pgUniqueViolation = "23505"

// PGRepository is the remote board of a single user. Every statement is
// filtered by UserID, so one repository can never read or touch another
// user's rows.
type PGRepository struct {
	DB     *sqlx.DB
	UserID string
}

var (
	_ board.Adapter = (*PGRepository)(nil)
	_ board.Seeder  = (*PGRepository)(nil)
)

func NewPGRepository(db *sqlx.DB, userID string) *PGRepository {
	return &PGRepository{DB: db, UserID: userID}
}

func (r *PGRepository) Backend() board.Backend {
	return board.BackendRemote
}

func (r *PGRepository) FetchAll(ctx context.Context) (model.Hierarchy, error) {
	var cats []model.CategoryRow
	query := r.DB.Rebind(`
        SELECT id, user_id, category_key, label, icon, sort_order
        FROM categories WHERE user_id = ? ORDER BY sort_order ASC`)
	if err := r.DB.SelectContext(ctx, &cats, query, r.UserID); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	var items []model.ItemRow
	query = r.DB.Rebind(`
        SELECT id, user_id, category_id, item_key, label, icon, image_path, sort_order
        FROM items WHERE user_id = ? ORDER BY sort_order ASC`)
	if err := r.DB.SelectContext(ctx, &items, query, r.UserID); err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	byCategory := make(map[string][]model.Item, len(cats))
	for _, it := range items {
		item := model.Item{
			Key:       it.ItemKey,
			RemoteID:  it.ID,
			Label:     it.Label,
			Icon:      it.Icon,
			SortOrder: it.SortOrder,
		}
		if it.ImagePath != nil {
			item.ImageRef = *it.ImagePath
		}
		byCategory[it.CategoryID] = append(byCategory[it.CategoryID], item)
	}

	h := make(model.Hierarchy, 0, len(cats))
	for _, c := range cats {
		items := byCategory[c.ID]
		if items == nil {
			items = []model.Item{}
		}
		h = append(h, model.Category{
			Key:       c.CategoryKey,
			RemoteID:  c.ID,
			Label:     c.Label,
			Icon:      c.Icon,
			Items:     items,
			SortOrder: c.SortOrder,
		})
	}
	h.Reindex()
	return h, nil
}

func (r *PGRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.insertCategory(ctx, r.DB, c)
}

func (r *PGRepository) insertCategory(ctx context.Context, db sqlx.ExtContext, c *model.Category) error {
	row := &model.CategoryRow{
		ID:          uuid.New().String(),
		UserID:      r.UserID,
		CategoryKey: c.Key,
		Label:       c.Label,
		Icon:        c.Icon,
		SortOrder:   c.SortOrder,
	}
	query := `
        INSERT INTO categories (id, user_id, category_key, label, icon, sort_order)
        VALUES (:id, :user_id, :category_key, :label, :icon, :sort_order)
    `
	if _, err := sqlx.NamedExecContext(ctx, db, query, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", c.Key, board.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	c.RemoteID = row.ID
	return nil
}

func (r *PGRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	query := r.DB.Rebind(`UPDATE categories SET label = ?, icon = ? WHERE id = ? AND user_id = ?`)
	res, err := r.DB.ExecContext(ctx, query, c.Label, c.Icon, c.RemoteID, r.UserID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectRow(res, "category", c.Key)
}

// DeleteCategory removes the category row; its items go with it through the
// foreign key cascade.
func (r *PGRepository) DeleteCategory(ctx context.Context, c *model.Category) error {
	query := r.DB.Rebind(`DELETE FROM categories WHERE id = ? AND user_id = ?`)
	res, err := r.DB.ExecContext(ctx, query, c.RemoteID, r.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectRow(res, "category", c.Key)
}

func (r *PGRepository) CreateItem(ctx context.Context, c *model.Category, it *model.Item) error {
	return r.insertItem(ctx, r.DB, c, it)
}

// insertItem only writes when the parent category belongs to the same user.
func (r *PGRepository) insertItem(ctx context.Context, db sqlx.ExtContext, c *model.Category, it *model.Item) error {
	id := uuid.New().String()
	var imagePath *string
	if it.ImageRef != "" {
		ref := it.ImageRef
		imagePath = &ref
	}

	query := db.Rebind(`
        INSERT INTO items (id, user_id, category_id, item_key, label, icon, image_path, sort_order)
        SELECT CAST(? AS TEXT), CAST(? AS TEXT), c.id, CAST(? AS TEXT), CAST(? AS TEXT),
               CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS INTEGER)
        FROM categories c WHERE c.id = ? AND c.user_id = ?
    `)
	res, err := db.ExecContext(ctx, query,
		id, r.UserID, it.Key, it.Label, it.Icon, imagePath, it.SortOrder,
		c.RemoteID, r.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item %q in %q: %w", it.Key, c.Key, board.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	if err := expectRow(res, "category", c.Key); err != nil {
		return err
	}
	it.RemoteID = id
	return nil
}

func (r *PGRepository) UpdateItem(ctx context.Context, c *model.Category, it *model.Item) error {
	var imagePath *string
	if it.ImageRef != "" {
		ref := it.ImageRef
		imagePath = &ref
	}
	query := r.DB.Rebind(`UPDATE items SET label = ?, icon = ?, image_path = ? WHERE id = ? AND user_id = ?`)
	res, err := r.DB.ExecContext(ctx, query, it.Label, it.Icon, imagePath, it.RemoteID, r.UserID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return expectRow(res, "item", it.Key)
}

func (r *PGRepository) DeleteItem(ctx context.Context, c *model.Category, it *model.Item) error {
	query := r.DB.Rebind(`DELETE FROM items WHERE id = ? AND user_id = ?`)
	res, err := r.DB.ExecContext(ctx, query, it.RemoteID, r.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return expectRow(res, "item", it.Key)
}

// SetCategoryOrder writes each category's position as its sort_order.
// Categories without a remote id are skipped.
func (r *PGRepository) SetCategoryOrder(ctx context.Context, ordered []model.Category) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := tx.Rebind(`UPDATE categories SET sort_order = ? WHERE id = ? AND user_id = ?`)
	for i, c := range ordered {
		if c.RemoteID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, i, c.RemoteID, r.UserID); err != nil {
			return fmt.Errorf("failed to order category %q: %w", c.Key, err)
		}
	}
	return tx.Commit()
}

func (r *PGRepository) SetItemOrder(ctx context.Context, c *model.Category) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := tx.Rebind(`UPDATE items SET sort_order = ? WHERE id = ? AND user_id = ?`)
	for i, it := range c.Items {
		if it.RemoteID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, i, it.RemoteID, r.UserID); err != nil {
			return fmt.Errorf("failed to order item %q: %w", it.Key, err)
		}
	}
	return tx.Commit()
}

// ClearAll deletes every row owned by the user.
func (r *PGRepository) ClearAll(ctx context.Context) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM items WHERE user_id = ?`), r.UserID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE user_id = ?`), r.UserID); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	return tx.Commit()
}

// Seed writes the categories and items of h that the user does not have yet,
// in one transaction, with sort_order taken from their position in h.
func (r *PGRepository) Seed(ctx context.Context, h model.Hierarchy) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var cats []model.CategoryRow
	if err := tx.SelectContext(ctx, &cats,
		tx.Rebind(`SELECT id, category_key FROM categories WHERE user_id = ?`), r.UserID); err != nil {
		return fmt.Errorf("failed to read existing categories: %w", err)
	}
	var items []model.ItemRow
	if err := tx.SelectContext(ctx, &items,
		tx.Rebind(`SELECT category_id, item_key FROM items WHERE user_id = ?`), r.UserID); err != nil {
		return fmt.Errorf("failed to read existing items: %w", err)
	}

	catIDs := make(map[string]string, len(cats))
	for _, c := range cats {
		catIDs[c.CategoryKey] = c.ID
	}
	existing := make(map[string]map[string]bool, len(cats))
	for _, it := range items {
		if existing[it.CategoryID] == nil {
			existing[it.CategoryID] = make(map[string]bool)
		}
		existing[it.CategoryID][it.ItemKey] = true
	}

	for i, sc := range h {
		cat := sc.Clone()
		cat.SortOrder = i
		if id, ok := catIDs[cat.Key]; ok {
			cat.RemoteID = id
		} else if err := r.insertCategory(ctx, tx, &cat); err != nil {
			return err
		}

		for j, it := range cat.Items {
			if existing[cat.RemoteID][it.Key] {
				continue
			}
			it.SortOrder = j
			if err := r.insertItem(ctx, tx, &cat, &it); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a unique constraint failure from
// Postgres or from the SQLite database used in tests.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode() == sqlite3.CONSTRAINT_UNIQUE
	}
	return false
}
