package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/fileexpo/internal/models"
)

const tmpPattern = ".fileexpo-tmp-*"

// FS implements Provider as a direct pass-through to the OS.
type FS struct{}

// NewFS creates a new OS-backed provider.
func NewFS() *FS {
	return &FS{}
}

// Within reports whether path equals dir or lies beneath it. The test is
// path-segment aware: "/data/foo" is not within "/data/fo".
func Within(dir, path string) bool {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, dir)
}

// List returns the entries of dir. Entries that cannot be stat'ed are skipped.
func (f *FS) List(dir string) ([]models.Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	out := make([]models.Entry, 0, len(des))
	for _, d := range des {
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, entryFromInfo(filepath.Join(dir, d.Name()), info))
	}
	return out, nil
}

// Stat describes a single path.
func (f *FS) Stat(path string) (models.Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Entry{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return entryFromInfo(path, info), nil
}

func entryFromInfo(path string, info fs.FileInfo) models.Entry {
	e := models.Entry{
		Name:    info.Name(),
		Path:    path,
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
	if e.IsDir {
		e.Type = "Folder"
		return e
	}
	e.Size = info.Size()
	if ext := filepath.Ext(e.Name); ext != "" {
		e.Type = strings.ToUpper(ext[1:])
	} else {
		e.Type = "File"
	}
	return e
}

// Read returns the raw bytes of a file.
func (f *FS) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content to path.
func (f *FS) Write(path string, content []byte) error {
	return WriteFileAtomic(path, content)
}

// WriteFileAtomic writes content via tmp file → fsync → rename, so readers
// never observe a half-written document.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// CreateFile creates an empty file. It fails with fs.ErrExist if path exists.
func (f *FS) CreateFile(path string) error {
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	return fh.Close()
}

// Mkdir creates a single directory.
func (f *FS) Mkdir(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", path, err)
	}
	return nil
}

// Delete removes a file, or a directory with everything below it.
func (f *FS) Delete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// Move renames oldPath to newPath. When a plain rename is impossible (for
// example across devices) it falls back to copy followed by delete.
func (f *FS) Move(oldPath, newPath string) error {
	renameErr := os.Rename(oldPath, newPath)
	if renameErr == nil {
		return nil
	}
	if _, err := os.Lstat(oldPath); err != nil {
		return fmt.Errorf("storage: move: %w", renameErr)
	}
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("storage: move: %w", renameErr)
	}
	if err := f.Copy(oldPath, newPath); err != nil {
		return fmt.Errorf("storage: move: %w", errors.Join(renameErr, err))
	}
	return f.Delete(oldPath)
}

// Copy duplicates src at dst.
func (f *FS) Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("storage: copy: %w", err)
	}
	if !info.IsDir() {
		return copyFile(src, dst, info)
	}
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, fi.Mode().Perm())
		}
		return copyFile(p, target, fi)
	})
	if err != nil {
		return fmt.Errorf("storage: copy tree %s: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("storage: copy open: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("storage: copy create: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("storage: copy data: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("storage: copy close: %w", err)
	}
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}
