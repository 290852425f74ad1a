package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/storage"
)

// Sync walks root and brings the index up to date:
//   - new/changed entries are upserted
//   - entries removed from disk are deleted from the index
//
// Hidden entries (dot-files and dot-directories) are not indexed.
func Sync(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger) error {
	stamps, err := db.AllStamps()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(stamps))
	err = walk(ctx, store, root, func(e models.Entry) {
		disk[e.Path] = struct{}{}
		if stamps[e.Path] == stamp(e) {
			return
		}
		if err := db.UpsertFile(RowFromEntry(e)); err != nil {
			logger.Warn("sync: index failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			return
		}
		logger.Debug("sync: indexed", slog.String("path", e.Path))
	}, logger)
	if err != nil {
		return err
	}

	// Remove stale entries.
	for p := range stamps {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteFile(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}

// walk visits every non-hidden entry below dir through the storage layer.
// Unreadable directories are logged and skipped.
func walk(ctx context.Context, store storage.Provider, dir string, fn func(models.Entry), logger *slog.Logger) error {
	entries, err := store.List(dir)
	if err != nil {
		logger.Warn("sync: list failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return nil
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hidden(e.Name) {
			continue
		}
		fn(e)
		if e.IsDir {
			if err := walk(ctx, store, e.Path, fn, logger); err != nil {
				return err
			}
		}
	}
	return nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// hiddenPath reports whether any element of path below root is hidden.
func hiddenPath(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if hidden(part) && part != "." && part != ".." {
			return true
		}
	}
	return false
}
