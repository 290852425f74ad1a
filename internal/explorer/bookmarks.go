package explorer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/models"
)

// Bookmarks returns the bookmarks in insertion order.
func (e *Explorer) Bookmarks(ctx context.Context) ([]models.Bookmark, error) {
	return call(ctx, e, "bookmarks", func(s *state) ([]models.Bookmark, error) {
		return append([]models.Bookmark{}, s.bookmarks...), nil
	})
}

// AddBookmark bookmarks path, or the current directory when path is empty.
// An empty name defaults to the directory's base name. A path can be
// bookmarked once.
func (e *Explorer) AddBookmark(ctx context.Context, name, path string) (models.Bookmark, error) {
	return call(ctx, e, "add bookmark", func(s *state) (models.Bookmark, error) {
		dir := s.cwd
		if strings.TrimSpace(path) != "" {
			p, err := expandPath(path, s.cwd)
			if err != nil {
				return models.Bookmark{}, err
			}
			if !e.isDir(p) {
				return models.Bookmark{}, notDirError(p)
			}
			dir = p
		}
		for _, b := range s.bookmarks {
			if b.Path == dir {
				return models.Bookmark{}, fmt.Errorf("bookmark %s: %w", dir, apperr.ErrAlreadyExists)
			}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = filepath.Base(dir)
		}
		b := models.Bookmark{Name: name, Path: dir}
		s.bookmarks = append(s.bookmarks, b)
		return b, nil
	})
}

// RemoveBookmark deletes the bookmark for path.
func (e *Explorer) RemoveBookmark(ctx context.Context, path string) error {
	_, err := call(ctx, e, "remove bookmark", func(s *state) (struct{}, error) {
		p := filepath.Clean(path)
		for i, b := range s.bookmarks {
			if b.Path == p {
				s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
				return struct{}{}, nil
			}
		}
		return struct{}{}, fmt.Errorf("bookmark %s: %w", p, apperr.ErrNotFound)
	})
	return err
}
