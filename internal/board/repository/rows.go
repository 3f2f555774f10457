package repository

import (
	"database/sql"
	"fmt"

	"github.com/fekuna/speakeasy-board-service/internal/board"
)

// expectRow turns a write that matched nothing into ErrNotFound.
func expectRow(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, key, board.ErrNotFound)
	}
	return nil
}
