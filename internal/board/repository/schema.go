package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is plain SQL that both Postgres and SQLite accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        category_key TEXT NOT NULL,
        label TEXT NOT NULL DEFAULT '',
        icon TEXT NOT NULL DEFAULT '',
        sort_order INTEGER NOT NULL DEFAULT 0,
        UNIQUE (user_id, category_key)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_categories_user ON categories (user_id, sort_order)`,
	`CREATE TABLE IF NOT EXISTS items (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        category_id TEXT NOT NULL REFERENCES categories (id) ON DELETE CASCADE,
        item_key TEXT NOT NULL,
        label TEXT NOT NULL DEFAULT '',
        icon TEXT NOT NULL DEFAULT '',
        image_path TEXT,
        sort_order INTEGER NOT NULL DEFAULT 0,
        UNIQUE (category_id, item_key)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_items_user ON items (user_id, sort_order)`,
	`CREATE INDEX IF NOT EXISTS idx_items_category ON items (category_id)`,
}

func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
