//go:build !sqlite_fts5

package index

import (
	"context"
	"database/sql"

	"github.com/starford/fileexpo/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; name search uses LIKE on files.name_lower.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _ string) error {
	// Name is already stored in the files table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _, _ string) {}

// Search performs a case-insensitive substring match on file names.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	return db.searchByName(ctx, query, limit)
}
