package index

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/fileexpo/internal/models"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path    string
	Name    string
	Dir     string
	IsDir   bool
	Size    int64
	ModTime time.Time
	Stamp   string
}

// RowFromEntry converts a listing entry into a row.
func RowFromEntry(e models.Entry) FileRow {
	return FileRow{
		Path:    e.Path,
		Name:    e.Name,
		Dir:     filepath.Dir(e.Path),
		IsDir:   e.IsDir,
		Size:    e.Size,
		ModTime: e.ModTime,
		Stamp:   stamp(e),
	}
}

// stamp changes whenever size or modification time changes.
func stamp(e models.Entry) string {
	return fmt.Sprintf("%d:%d", e.Size, e.ModTime.UnixNano())
}

func (r FileRow) entry() models.Entry {
	typ := "File"
	if r.IsDir {
		typ = "Folder"
	} else if ext := filepath.Ext(r.Name); ext != "" {
		typ = strings.ToUpper(ext[1:])
	}
	return models.Entry{
		Name:    r.Name,
		Path:    r.Path,
		IsDir:   r.IsDir,
		Size:    r.Size,
		Type:    typ,
		ModTime: r.ModTime,
	}
}

// UpsertFile inserts or replaces a file row and its FTS entry within a
// transaction.
func (db *DB) UpsertFile(r FileRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, name, name_lower, dir, is_dir, size, mod_time, stamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name       = excluded.name,
			name_lower = excluded.name_lower,
			dir        = excluded.dir,
			is_dir     = excluded.is_dir,
			size       = excluded.size,
			mod_time   = excluded.mod_time,
			stamp      = excluded.stamp
	`, r.Path, r.Name, strings.ToLower(r.Name), r.Dir, r.IsDir, r.Size, r.ModTime.UTC(), r.Stamp)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, r.Path, r.Name); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteFile removes a path and, for a directory, everything below it.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	prefix := escapeLike(path+string(filepath.Separator)) + "%"
	ftsDelete(tx, path, prefix)
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ? OR path LIKE ? ESCAPE '\'`, path, prefix); err != nil {
		return fmt.Errorf("index: delete file: %w", err)
	}
	return tx.Commit()
}

// GetStamp returns the stored stamp for a path, or empty string if not found.
func (db *DB) GetStamp(path string) (string, error) {
	var s string
	err := db.conn.QueryRow(`SELECT stamp FROM files WHERE path = ?`, path).Scan(&s)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get stamp: %w", err)
	}
	return s, nil
}

// AllStamps returns every indexed path with its stamp.
func (db *DB) AllStamps() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, stamp FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all stamps: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, s string
		if err := rows.Scan(&p, &s); err != nil {
			return nil, err
		}
		out[p] = s
	}
	return out, rows.Err()
}

// Count returns the number of indexed paths.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// searchByName is the LIKE-based name match shared by both search builds.
func (db *DB) searchByName(ctx context.Context, query string, limit int) ([]models.Entry, error) {
	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, name, dir, is_dir, size, mod_time
		FROM files
		WHERE name_lower LIKE ? ESCAPE '\'
		ORDER BY is_dir DESC, name_lower, path
		LIMIT ?
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]models.Entry, error) {
	defer rows.Close()
	out := []models.Entry{}
	for rows.Next() {
		var r FileRow
		if err := rows.Scan(&r.Path, &r.Name, &r.Dir, &r.IsDir, &r.Size, &r.ModTime); err != nil {
			return nil, err
		}
		out = append(out, r.entry())
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
