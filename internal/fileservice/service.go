// Package fileservice combines the per-path record keepers (usage, tags and
// integrity) behind one API shared by the HTTP and MCP surfaces.
package fileservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/integrity"
	"github.com/starford/fileexpo/internal/metrics"
	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/storage"
	"github.com/starford/fileexpo/internal/tagging"
	"github.com/starford/fileexpo/internal/usage"
)

// DefaultLimit is used by ranking queries when n is not positive.
const DefaultLimit = 10

// FileDetail is everything recorded about one path.
type FileDetail struct {
	Entry     models.Entry      `json:"entry"`
	Tags      []string          `json:"tags"`
	AutoTags  []string          `json:"auto_tags"`
	Usage     *usage.Stats      `json:"usage,omitempty"`
	Integrity *integrity.Record `json:"integrity,omitempty"`
}

// TagsResponse lists the manual and automatic tags of a path.
type TagsResponse struct {
	Path     string   `json:"path"`
	Tags     []string `json:"tags"`
	AutoTags []string `json:"auto_tags"`
}

// Service coordinates the record stores.
type Service struct {
	store     storage.Provider
	usage     *usage.Analytics
	tags      *tagging.Tags
	integrity *integrity.Monitor
}

// NewService creates a new file service.
func NewService(store storage.Provider, u *usage.Analytics, t *tagging.Tags, m *integrity.Monitor) *Service {
	return &Service{store: store, usage: u, tags: t, integrity: m}
}

// Normalize turns a user-supplied path into the absolute, cleaned key used
// by every record store. A leading ~ expands to the home directory.
func Normalize(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is required: %w", apperr.ErrInvalidName)
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

// Details returns the entry and the records of path.
func (s *Service) Details(_ context.Context, path string) (*FileDetail, error) {
	p, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
		}
		return nil, err
	}
	manual, auto := s.tags.TagsFor(p)
	d := &FileDetail{Entry: entry, Tags: manual, AutoTags: auto}
	if st, ok := s.usage.StatsFor(p); ok {
		d.Usage = &st
	}
	if rec, ok := s.integrity.Digest(p); ok {
		d.Integrity = &rec
	}
	return d, nil
}

// RecordAccess counts an access to path.
func (s *Service) RecordAccess(_ context.Context, path string) (usage.Record, error) {
	p, err := Normalize(path)
	if err != nil {
		return usage.Record{}, err
	}
	return s.usage.RecordAccess(p), nil
}

// MostAccessed returns the n most accessed paths.
func (s *Service) MostAccessed(_ context.Context, n int) []usage.Entry {
	return s.usage.MostAccessed(limit(n))
}

// RecentlyAccessed returns the n most recently accessed paths.
func (s *Service) RecentlyAccessed(_ context.Context, n int) []usage.Entry {
	return s.usage.RecentlyAccessed(limit(n))
}

// Stats returns usage statistics for path, or apperr.ErrNotFound if it was
// never accessed.
func (s *Service) Stats(_ context.Context, path string) (usage.Stats, error) {
	p, err := Normalize(path)
	if err != nil {
		return usage.Stats{}, err
	}
	st, ok := s.usage.StatsFor(p)
	if !ok {
		return usage.Stats{}, fmt.Errorf("usage for %s: %w", p, apperr.ErrNotFound)
	}
	return st, nil
}

// AllTags returns every manual tag in use.
func (s *Service) AllTags(_ context.Context) []string {
	return s.tags.AllTags()
}

// TagsFor returns the tags of path.
func (s *Service) TagsFor(_ context.Context, path string) (TagsResponse, error) {
	p, err := Normalize(path)
	if err != nil {
		return TagsResponse{}, err
	}
	manual, auto := s.tags.TagsFor(p)
	return TagsResponse{Path: p, Tags: manual, AutoTags: auto}, nil
}

// PathsForTag returns the paths carrying tag.
func (s *Service) PathsForTag(_ context.Context, tag string) ([]string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("tag is required: %w", apperr.ErrInvalidName)
	}
	return s.tags.PathsForTag(tag), nil
}

// AddTag attaches tag to path. It reports false when the tag was already
// present.
func (s *Service) AddTag(_ context.Context, path, tag string) (bool, error) {
	p, err := Normalize(path)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(tag) == "" {
		return false, fmt.Errorf("tag is required: %w", apperr.ErrInvalidName)
	}
	return s.tags.AddTag(p, tag), nil
}

// RemoveTag detaches tag from path. It reports false when the tag was
// absent.
func (s *Service) RemoveTag(_ context.Context, path, tag string) (bool, error) {
	p, err := Normalize(path)
	if err != nil {
		return false, err
	}
	return s.tags.RemoveTag(p, tag), nil
}

// AutoTag stores suggested tags for an existing file.
func (s *Service) AutoTag(ctx context.Context, path string) ([]string, error) {
	p, err := s.existing(path)
	if err != nil {
		return nil, err
	}
	return s.tags.AutoTag(ctx, p), nil
}

// CheckIntegrity compares path against its stored digest.
func (s *Service) CheckIntegrity(_ context.Context, path string) (integrity.Result, error) {
	p, err := Normalize(path)
	if err != nil {
		return integrity.Result{}, err
	}
	res, err := s.integrity.Check(p)
	if err != nil {
		metrics.RecordIntegrityCheck("error")
		return res, err
	}
	metrics.RecordIntegrityCheck(checkLabel(res))
	return res, nil
}

// Rebaseline adopts the current content of path as its digest.
func (s *Service) Rebaseline(_ context.Context, path string) (integrity.Record, error) {
	p, err := Normalize(path)
	if err != nil {
		return integrity.Record{}, err
	}
	rec, err := s.integrity.Rebaseline(p)
	if errors.Is(err, os.ErrNotExist) {
		return rec, fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
	}
	return rec, err
}

// Problems lists common problems with path.
func (s *Service) Problems(_ context.Context, path string) ([]string, error) {
	p, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	return s.integrity.ProblemsFor(p), nil
}

// Health reports the combined status of path.
func (s *Service) Health(_ context.Context, path string) (integrity.HealthReport, error) {
	p, err := Normalize(path)
	if err != nil {
		return integrity.HealthReport{}, err
	}
	return s.integrity.Health(p)
}

// VerifyDirectory re-checks every recorded path under dir.
func (s *Service) VerifyDirectory(ctx context.Context, dir string) (integrity.Report, error) {
	d, err := Normalize(dir)
	if err != nil {
		return integrity.Report{}, err
	}
	return s.integrity.VerifyAll(ctx, d)
}

// existing normalizes path and requires it to name a regular file.
func (s *Service) existing(path string) (string, error) {
	p, err := Normalize(path)
	if err != nil {
		return "", err
	}
	entry, err := s.store.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
		}
		return "", err
	}
	if entry.IsDir {
		return "", fmt.Errorf("%s is a directory: %w", p, apperr.ErrInvalidName)
	}
	return p, nil
}

func checkLabel(res integrity.Result) string {
	switch {
	case !res.Exists:
		return "missing"
	case res.FirstCheck:
		return "first"
	case res.Changed:
		return "changed"
	default:
		return "ok"
	}
}

func limit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
