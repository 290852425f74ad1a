package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on root and processes file change events
// until ctx is cancelled. It calls cb (if non-nil) after each successful
// index mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(ctx, db, store, root, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			path := ev.Name
			if hiddenPath(root, path) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				e, statErr := store.Stat(path)
				if statErr != nil {
					continue
				}
				if e.IsDir && ev.Op&fsnotify.Create != 0 {
					if addErr := addDirsRecursive(w, path); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", path))
					}
				}
				if idxErr := db.UpsertFile(RowFromEntry(e)); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", path), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("path", path), slog.String("op", kind))
				if cb != nil {
					cb(kind, path)
				}
				if e.IsDir && ev.Op&fsnotify.Create != 0 {
					// Index anything already inside the new directory.
					indexNewDir(ctx, db, store, path, logger, cb)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteFile(path); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", path), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", path))
				if cb != nil {
					cb("deleted", path)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir). We delete the old entry
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				if delErr := db.DeleteFile(path); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", path), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", path))
					if cb != nil {
						cb("deleted", path)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile does a lightweight sync using batch lookups: it removes index
// entries without a corresponding file on disk and indexes on-disk entries
// that are missing or stale.
func reconcile(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) {
	stamps, err := db.AllStamps()
	if err != nil {
		logger.Warn("reconcile: all stamps failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]models.Entry, len(stamps))
	if err := walk(ctx, store, root, func(e models.Entry) { disk[e.Path] = e }, logger); err != nil {
		return
	}

	for p := range stamps {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteFile(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, e := range disk {
		if stamps[p] == stamp(e) {
			continue
		}
		if idxErr := db.UpsertFile(RowFromEntry(e)); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("path", p))
			if cb != nil {
				cb("created", p)
			}
		}
	}
}

// indexNewDir indexes entries found in a newly created directory.
func indexNewDir(ctx context.Context, db *DB, store storage.Provider, dir string, logger *slog.Logger, cb EventCallback) {
	_ = walk(ctx, store, dir, func(e models.Entry) {
		if idxErr := db.UpsertFile(RowFromEntry(e)); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", e.Path))
			if cb != nil {
				cb("created", e.Path)
			}
		}
	}, logger)
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if addErr := w.Add(path); addErr != nil && !os.IsPermission(addErr) {
			return addErr
		}
		return nil
	})
}
