// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/fekuna/speakeasy-board-service/internal/board/repository"
	"github.com/jmoiron/sqlx"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// NewSQLiteDB opens an in-memory database with the board schema. A single
// connection keeps every statement on the same memory database.
func NewSQLiteDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// CountRows returns the number of rows in table owned by userID.
func CountRows(t testing.TB, db *sqlx.DB, table, userID string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, db.Rebind(`SELECT count(*) FROM `+table+` WHERE user_id = ?`), userID); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
