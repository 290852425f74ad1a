package explorer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/storage"
)

// validName rejects names that would escape the current directory.
func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidName, name)
	}
	return name, nil
}

func (e *Explorer) exists(path string) bool {
	_, err := e.fs.Stat(path)
	return err == nil
}

// Select replaces the selection with the named entries of the current
// directory. No names clears it.
func (e *Explorer) Select(ctx context.Context, names ...string) ([]string, error) {
	return call(ctx, e, "select", func(s *state) ([]string, error) {
		paths := make([]string, 0, len(names))
		for _, n := range names {
			name, err := validName(n)
			if err != nil {
				return nil, err
			}
			p := filepath.Join(s.cwd, name)
			if !e.exists(p) {
				return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, name)
			}
			paths = append(paths, p)
		}
		s.selection = paths
		return append([]string{}, paths...), nil
	})
}

// SelectAll selects every listed entry of the current directory, skipping
// dot-files unless configured.
func (e *Explorer) SelectAll(ctx context.Context) ([]string, error) {
	return call(ctx, e, "select", func(s *state) ([]string, error) {
		entries, err := e.list(s.cwd)
		if err != nil {
			return nil, err
		}
		paths := make([]string, len(entries))
		for i, en := range entries {
			paths[i] = en.Path
		}
		s.selection = paths
		return append([]string{}, paths...), nil
	})
}

// Selection returns the selected paths.
func (e *Explorer) Selection(ctx context.Context) ([]string, error) {
	return call(ctx, e, "select", func(s *state) ([]string, error) {
		return append([]string{}, s.selection...), nil
	})
}

// CreateFile creates an empty file in the current directory, selects it and
// records an access.
func (e *Explorer) CreateFile(ctx context.Context, name string) (string, error) {
	return call(ctx, e, "create file", func(s *state) (string, error) {
		name, err := validName(name)
		if err != nil {
			return "", err
		}
		p := filepath.Join(s.cwd, name)
		if e.exists(p) {
			return "", fmt.Errorf("file %q: %w", name, apperr.ErrAlreadyExists)
		}
		if err := e.fs.CreateFile(p); err != nil {
			return "", fmt.Errorf("create file: %w", err)
		}
		s.selection = []string{p}
		if e.usage != nil {
			e.usage.RecordAccess(p)
		}
		e.events.PublishFileEvent("created", p)
		return p, nil
	})
}

// MakeDir creates a folder in the current directory and selects it.
func (e *Explorer) MakeDir(ctx context.Context, name string) (string, error) {
	return call(ctx, e, "create folder", func(s *state) (string, error) {
		name, err := validName(name)
		if err != nil {
			return "", err
		}
		p := filepath.Join(s.cwd, name)
		if e.exists(p) {
			return "", fmt.Errorf("folder %q: %w", name, apperr.ErrAlreadyExists)
		}
		if err := e.fs.Mkdir(p); err != nil {
			return "", fmt.Errorf("create folder: %w", err)
		}
		s.selection = []string{p}
		e.events.PublishFileEvent("created", p)
		return p, nil
	})
}

// DeleteSelection removes every selected file or folder tree. Items that fail
// are reported individually and the rest are still deleted.
func (e *Explorer) DeleteSelection(ctx context.Context) ([]string, error) {
	return call(ctx, e, "delete", func(s *state) ([]string, error) {
		if len(s.selection) == 0 {
			return nil, apperr.ErrNoSelection
		}
		var (
			deleted []string
			errs    []error
		)
		for _, p := range s.selection {
			if err := e.fs.Delete(p); err != nil {
				errs = append(errs, fmt.Errorf("delete %q: %w", filepath.Base(p), err))
				continue
			}
			deleted = append(deleted, p)
			e.events.PublishFileEvent("deleted", p)
		}
		s.selection = nil
		return deleted, errors.Join(errs...)
	})
}

// RenameSelection renames the single selected item within its directory.
func (e *Explorer) RenameSelection(ctx context.Context, newName string) (string, error) {
	return call(ctx, e, "rename", func(s *state) (string, error) {
		if len(s.selection) == 0 {
			return "", apperr.ErrNoSelection
		}
		if len(s.selection) != 1 {
			return "", fmt.Errorf("%w: select exactly one item to rename", apperr.ErrConflict)
		}
		name, err := validName(newName)
		if err != nil {
			return "", err
		}
		src := s.selection[0]
		if filepath.Base(src) == name {
			return src, nil
		}
		dst := filepath.Join(filepath.Dir(src), name)
		if e.exists(dst) {
			return "", fmt.Errorf("%q: %w", name, apperr.ErrAlreadyExists)
		}
		if err := e.fs.Move(src, dst); err != nil {
			return "", fmt.Errorf("rename: %w", err)
		}
		s.selection = []string{dst}
		e.events.PublishFileEvent("deleted", src)
		e.events.PublishFileEvent("created", dst)
		return dst, nil
	})
}

// Copy puts the selection on the clipboard for copying.
func (e *Explorer) Copy(ctx context.Context) (int, error) {
	return e.toClipboard(ctx, actionCopy)
}

// Cut puts the selection on the clipboard for moving.
func (e *Explorer) Cut(ctx context.Context) (int, error) {
	return e.toClipboard(ctx, actionCut)
}

func (e *Explorer) toClipboard(ctx context.Context, action clipboardAction) (int, error) {
	return call(ctx, e, string(action), func(s *state) (int, error) {
		if len(s.selection) == 0 {
			return 0, apperr.ErrNoSelection
		}
		s.clip = &clipboard{action: action, items: append([]string{}, s.selection...)}
		return len(s.selection), nil
	})
}

// Paste copies or moves the clipboard items into the current directory. An
// existing destination is replaced only when overwrite is set. A cut
// clipboard is cleared afterwards.
func (e *Explorer) Paste(ctx context.Context, overwrite bool) ([]string, error) {
	return call(ctx, e, "paste", func(s *state) ([]string, error) {
		if s.clip == nil || len(s.clip.items) == 0 {
			return nil, fmt.Errorf("%w: clipboard is empty", apperr.ErrNoSelection)
		}
		var (
			pasted []string
			errs   []error
		)
		for _, src := range s.clip.items {
			dst := filepath.Join(s.cwd, filepath.Base(src))
			if err := e.pasteOne(s.clip.action, src, dst, overwrite); err != nil {
				errs = append(errs, fmt.Errorf("paste %q: %w", filepath.Base(src), err))
				continue
			}
			pasted = append(pasted, dst)
			e.events.PublishFileEvent("created", dst)
			if s.clip.action == actionCut {
				e.events.PublishFileEvent("deleted", src)
			}
		}
		if s.clip.action == actionCut {
			s.clip = nil
		}
		return pasted, errors.Join(errs...)
	})
}

func (e *Explorer) pasteOne(action clipboardAction, src, dst string, overwrite bool) error {
	if src == dst {
		if action == actionCut {
			return nil
		}
		return fmt.Errorf("%w: source and destination are the same", apperr.ErrConflict)
	}
	if storage.Within(src, dst) {
		return fmt.Errorf("%w: cannot paste a folder into itself", apperr.ErrConflict)
	}
	if e.exists(dst) {
		if !overwrite {
			return fmt.Errorf("%q: %w", filepath.Base(dst), apperr.ErrAlreadyExists)
		}
		if storage.Within(dst, src) {
			return fmt.Errorf("%w: cannot overwrite a folder containing the source", apperr.ErrConflict)
		}
		if err := e.fs.Delete(dst); err != nil {
			return err
		}
	}
	if action == actionCut {
		return e.fs.Move(src, dst)
	}
	return e.fs.Copy(src, dst)
}

// Open navigates into a directory or records an access and launches a file
// with the default application.
func (e *Explorer) Open(ctx context.Context, name string) (string, error) {
	return call(ctx, e, "open", func(s *state) (string, error) {
		p, err := expandPath(name, s.cwd)
		if err != nil {
			return "", err
		}
		info, err := e.fs.Stat(p)
		if err != nil {
			return "", fmt.Errorf("%w: %s", apperr.ErrNotFound, name)
		}
		if info.IsDir {
			return e.navigate(s, p)
		}
		if e.usage != nil {
			e.usage.RecordAccess(p)
		}
		if err := e.launcher.Launch(p); err != nil {
			return "", fmt.Errorf("open file: %w", err)
		}
		return p, nil
	})
}
