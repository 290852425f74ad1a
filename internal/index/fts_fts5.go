//go:build sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/fileexpo/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
			path UNINDEXED,
			name,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, name string) error {
	_, _ = tx.Exec(`DELETE FROM files_fts WHERE path = ?`, path)
	if _, err := tx.Exec(`INSERT INTO files_fts (path, name) VALUES (?, ?)`, path, name); err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path, likePrefix string) {
	_, _ = tx.Exec(`DELETE FROM files_fts WHERE path = ? OR path LIKE ? ESCAPE '\'`, path, likePrefix)
}

// Search matches name tokens by prefix through FTS5 and falls back to a
// substring match when the token query finds nothing.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.path, f.name, f.dir, f.is_dir, f.size, f.mod_time
		FROM files_fts
		JOIN files f ON f.path = files_fts.path
		WHERE files_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	out, err := scanEntries(rows)
	if err != nil || len(out) > 0 {
		return out, err
	}
	return db.searchByName(ctx, query, limit)
}

// ftsQuery turns free text into a prefix match on every term.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}
