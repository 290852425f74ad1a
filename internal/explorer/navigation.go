package explorer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/sse"
)

func notDirError(path string) error {
	return fmt.Errorf("%q is not a directory: %w", path, apperr.ErrNotFound)
}

// expandPath resolves "~" and relative paths against base.
func expandPath(path, base string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) {
		if base == "" {
			abs, err := filepath.Abs(path)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path), nil
}

func parentOf(dir string) string {
	return filepath.Dir(dir)
}

func (e *Explorer) isDir(path string) bool {
	info, err := e.fs.Stat(path)
	return err == nil && info.IsDir
}

// enter switches the current directory without touching history.
func (e *Explorer) enter(s *state, dir string) {
	s.cwd = dir
	s.selection = nil
	e.events.Publish(sse.Event{Type: sse.TypeListingUpdated, Data: map[string]string{"dir": dir}})
}

// pushHistory truncates forward entries and appends dir unless it repeats
// the last entry.
func pushHistory(s *state, dir string) {
	if s.pos < len(s.history)-1 {
		s.history = s.history[:s.pos+1]
	}
	if len(s.history) == 0 || s.history[len(s.history)-1] != dir {
		s.history = append(s.history, dir)
	}
	s.pos = len(s.history) - 1
}

func (e *Explorer) navigate(s *state, path string) (string, error) {
	dir, err := expandPath(path, s.cwd)
	if err != nil {
		return "", err
	}
	if !e.isDir(dir) {
		return "", notDirError(dir)
	}
	e.enter(s, dir)
	pushHistory(s, dir)
	return dir, nil
}

// Navigate makes path the current directory. Relative paths resolve against
// the current directory.
func (e *Explorer) Navigate(ctx context.Context, path string) error {
	_, err := call(ctx, e, "navigate", func(s *state) (string, error) {
		return e.navigate(s, path)
	})
	return err
}

// Back moves one step back in history. Entries whose directory no longer
// exists are dropped with a warning and skipped.
func (e *Explorer) Back(ctx context.Context) error {
	_, err := call(ctx, e, "back", func(s *state) (string, error) {
		for s.pos > 0 {
			s.pos--
			dir := s.history[s.pos]
			if e.isDir(dir) {
				e.enter(s, dir)
				return dir, nil
			}
			e.events.Notify("back", fmt.Sprintf("directory %s no longer exists", dir))
			s.history = append(s.history[:s.pos], s.history[s.pos+1:]...)
		}
		return s.cwd, nil
	})
	return err
}

// Forward moves one step forward in history, skipping deleted directories.
func (e *Explorer) Forward(ctx context.Context) error {
	_, err := call(ctx, e, "forward", func(s *state) (string, error) {
		for s.pos < len(s.history)-1 {
			s.pos++
			dir := s.history[s.pos]
			if e.isDir(dir) {
				e.enter(s, dir)
				return dir, nil
			}
			e.events.Notify("forward", fmt.Sprintf("directory %s no longer exists", dir))
			s.history = append(s.history[:s.pos], s.history[s.pos+1:]...)
			s.pos--
		}
		return s.cwd, nil
	})
	return err
}

// Up navigates to the parent directory. At the root it does nothing.
func (e *Explorer) Up(ctx context.Context) error {
	_, err := call(ctx, e, "up", func(s *state) (string, error) {
		parent := parentOf(s.cwd)
		if parent == s.cwd {
			return s.cwd, nil
		}
		return e.navigate(s, parent)
	})
	return err
}

// SortKey orders a directory listing.
type SortKey string

// Listing orders. The zero value lists directories first, then by name.
const (
	SortName SortKey = "name"
	SortType SortKey = "type"
	SortSize SortKey = "size"
	SortDate SortKey = "date"
)

// ParseSortKey validates a sort key taken from a request. An empty string
// selects the default order.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case "", SortName, SortType, SortSize, SortDate:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", apperr.ErrInvalidName, raw)
	}
}

// List returns the entries of the current directory in the given order.
// Dot-files are skipped unless configured.
//
// The default order puts directories first, then sorts case-insensitively by
// name. SortName ignores the kind, SortType groups by type, SortSize puts
// folders before files of ascending size and SortDate lists newest first.
func (e *Explorer) List(ctx context.Context, key SortKey) ([]models.Entry, error) {
	return call(ctx, e, "list", func(s *state) ([]models.Entry, error) {
		entries, err := e.list(s.cwd)
		if err != nil {
			return nil, err
		}
		sortEntries(entries, key)
		return entries, nil
	})
}

func (e *Explorer) list(dir string) ([]models.Entry, error) {
	entries, err := e.fs.List(dir)
	if err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}
	out := make([]models.Entry, 0, len(entries))
	for _, en := range entries {
		if !e.showHidden && strings.HasPrefix(en.Name, ".") {
			continue
		}
		out = append(out, en)
	}
	sortEntries(out, "")
	return out, nil
}

func sortEntries(entries []models.Entry, key SortKey) {
	byName := func(a, b models.Entry) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	var less func(a, b models.Entry) bool
	switch key {
	case SortName:
		less = byName
	case SortType:
		less = func(a, b models.Entry) bool {
			if a.Type != b.Type {
				return a.Type < b.Type
			}
			return byName(a, b)
		}
	case SortSize:
		less = func(a, b models.Entry) bool {
			if a.IsDir != b.IsDir {
				return a.IsDir
			}
			if !a.IsDir && a.Size != b.Size {
				return a.Size < b.Size
			}
			return byName(a, b)
		}
	case SortDate:
		less = func(a, b models.Entry) bool {
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.After(b.ModTime)
			}
			return byName(a, b)
		}
	default:
		less = func(a, b models.Entry) bool {
			if a.IsDir != b.IsDir {
				return a.IsDir
			}
			return byName(a, b)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}
