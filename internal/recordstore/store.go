// Package recordstore provides a small persisted mapping from an absolute
// file path to a record, stored as one flat JSON document. Usage analytics,
// tagging and integrity hashing each own one instance.
package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/starford/fileexpo/internal/storage"
)

// Store is a mutex-guarded map[path]V backed by a JSON document.
//
// All mutations go through the store's lock; saves are serialized separately
// so an older snapshot can never overwrite a newer one.
type Store[V any] struct {
	name   string
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]V

	saveMu sync.Mutex
	write  func(path string, data []byte) error
}

// Open creates a store backed by the document at path and loads it. A
// missing or unreadable document yields an empty store; the failure is
// logged, never returned.
func Open[V any](name, path string, logger *slog.Logger) *Store[V] {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store[V]{
		name:    name,
		path:    path,
		logger:  logger,
		records: make(map[string]V),
		write:   storage.WriteFileAtomic,
	}
	if err := s.Load(); err != nil {
		logger.Warn("recordstore: load failed, starting empty",
			slog.String("store", name),
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
	return s
}

// Load replaces the in-memory mapping with the document content. On failure
// the mapping is reset to empty and the error returned.
func (s *Store[V]) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]V)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("recordstore: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	loaded := make(map[string]V)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("recordstore: parse %s: %w", s.path, err)
	}
	s.records = loaded
	return nil
}

// Save writes the whole mapping to the backing document. Failures are logged
// and returned; the in-memory state is untouched either way.
func (s *Store[V]) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	data, err := json.Marshal(s.records)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Error("recordstore: encode failed", slog.String("store", s.name), slog.String("error", err.Error()))
		return fmt.Errorf("recordstore: encode: %w", err)
	}

	if err := s.write(s.path, data); err != nil {
		s.logger.Error("recordstore: save failed",
			slog.String("store", s.name),
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return err
	}
	s.logger.Debug("recordstore: saved", slog.String("store", s.name), slog.Int("bytes", len(data)))
	return nil
}

// Path returns the backing document location.
func (s *Store[V]) Path() string { return s.path }

// Get returns the record for key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	return v, ok
}

// Update runs fn with the current record (ok=false when absent) under the
// write lock. If fn returns keep=false the mapping is left untouched.
func (s *Store[V]) Update(key string, fn func(cur V, ok bool) (next V, keep bool)) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[key]
	next, keep := fn(cur, ok)
	if !keep {
		return cur, false
	}
	s.records[key] = next
	return next, true
}

// Delete removes key and reports whether it was present.
func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false
	}
	delete(s.records, key)
	return true
}

// Len returns the number of records.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Keys returns all keys sorted ascending.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the mapping. Values that contain slices
// share their backing arrays with the store and must be treated as read-only.
func (s *Store[V]) Snapshot() map[string]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]V, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}
