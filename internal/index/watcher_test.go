package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/fileexpo/internal/storage"
)

// watcherTestEnv sets up a root dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	return t.TempDir(), storage.NewFS(), testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func indexed(db *DB, path string) bool {
	s, _ := db.GetStamp(path)
	return s != ""
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	root, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, root, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+filepath.Base(path))
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "new.txt"), []byte("new"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, filepath.Join(root, "new.txt"))
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.txt" {
				return true
			}
		}
		return false
	}, "expected created:new.txt callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, quietLogger(), nil)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(root, "subdir")
	_ = os.MkdirAll(subDir, 0o755)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, subDir)
	}, "new dir not indexed by watcher")

	_ = os.WriteFile(filepath.Join(subDir, "deep.txt"), []byte("deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, filepath.Join(subDir, "deep.txt"))
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	target := filepath.Join(root, "del.txt")
	_ = os.WriteFile(target, []byte("delete me"), 0o644)
	Sync(context.Background(), db, store, root, quietLogger())

	if !indexed(db, target) {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(target)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, target)
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	oldPath := filepath.Join(root, "old.txt")
	newPath := filepath.Join(root, "renamed.txt")
	_ = os.WriteFile(oldPath, []byte("rename"), 0o644)
	Sync(context.Background(), db, store, root, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(oldPath, newPath)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, oldPath) && indexed(db, newPath)
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestWatcher_IgnoresHidden(t *testing.T) {
	root, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, ".secret"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "visible.txt"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, filepath.Join(root, "visible.txt"))
	}, "visible file not indexed")
	if indexed(db, filepath.Join(root, ".secret")) {
		t.Error("hidden file indexed")
	}
}
