// Package integrity detects external modification of files by comparing a
// stored content digest against the current one.
package integrity

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/fileexpo/internal/checksum"
	"github.com/starford/fileexpo/internal/recordstore"
	"github.com/starford/fileexpo/internal/storage"
)

// verifyConcurrency bounds parallel hashing in VerifyAll.
const verifyConcurrency = 4

// Record is the persisted digest for one path.
type Record struct {
	Hash      string  `json:"hash"`
	Timestamp float64 `json:"timestamp"` // epoch seconds of the last verification
}

// Result is the outcome of Check.
type Result struct {
	Exists       bool       `json:"exists"`
	Changed      bool       `json:"changed"`
	FirstCheck   bool       `json:"first_check,omitempty"`
	LastVerified *time.Time `json:"last_verified,omitempty"`
}

// Report groups VerifyAll classifications. Each list is sorted.
type Report struct {
	Changed []string `json:"changed"`
	Missing []string `json:"missing"`
	OK      []string `json:"ok"`
}

// Monitor owns the digest store.
type Monitor struct {
	store  *recordstore.Store[Record]
	logger *slog.Logger
	now    func() time.Time
	hash   func(path string) (string, error)
}

// New creates a monitor persisted at docPath.
func New(docPath string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		store:  recordstore.Open[Record]("hashes", docPath, logger),
		logger: logger,
		now:    time.Now,
		hash:   checksum.SumFile,
	}
}

// Check compares the current digest of path with the stored one. The first
// check of a path stores a baseline. A changed digest is reported but never
// accepted: call Rebaseline to adopt the new content.
func (m *Monitor) Check(path string) (Result, error) {
	if !exists(path) {
		return Result{Exists: false}, nil
	}
	current, err := m.hash(path)
	if err != nil {
		return Result{Exists: true}, fmt.Errorf("integrity: check %s: %w", path, err)
	}

	if rec, ok := m.store.Get(path); ok {
		verified := fromEpoch(rec.Timestamp)
		return Result{
			Exists:       true,
			Changed:      current != rec.Hash,
			LastVerified: &verified,
		}, nil
	}

	m.store.Update(path, func(Record, bool) (Record, bool) {
		return Record{Hash: current, Timestamp: toEpoch(m.now())}, true
	})
	_ = m.store.Save()
	return Result{Exists: true, Changed: false, FirstCheck: true}, nil
}

// Rebaseline stores the current digest of path and stamps it as verified now.
func (m *Monitor) Rebaseline(path string) (Record, error) {
	if !exists(path) {
		return Record{}, fmt.Errorf("integrity: rebaseline %s: %w", path, fs.ErrNotExist)
	}
	current, err := m.hash(path)
	if err != nil {
		return Record{}, fmt.Errorf("integrity: rebaseline %s: %w", path, err)
	}
	rec := Record{Hash: current, Timestamp: toEpoch(m.now())}
	m.store.Update(path, func(Record, bool) (Record, bool) { return rec, true })
	_ = m.store.Save()
	return rec, nil
}

// Forget drops the stored digest of path.
func (m *Monitor) Forget(path string) bool {
	if !m.store.Delete(path) {
		return false
	}
	_ = m.store.Save()
	return true
}

// Digest returns the stored record for path.
func (m *Monitor) Digest(path string) (Record, bool) {
	return m.store.Get(path)
}

// VerifyAll re-checks every previously hashed path inside dir. Containment
// is path-segment aware. Stored digests are not modified. A file that can no
// longer be hashed is reported as changed.
func (m *Monitor) VerifyAll(ctx context.Context, dir string) (Report, error) {
	dir = filepath.Clean(dir)

	var (
		mu     sync.Mutex
		report = Report{Changed: []string{}, Missing: []string{}, OK: []string{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)

	for p, rec := range m.store.Snapshot() {
		if !storage.Within(dir, p) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bucket := m.classify(p, rec)
			mu.Lock()
			switch bucket {
			case "missing":
				report.Missing = append(report.Missing, p)
			case "changed":
				report.Changed = append(report.Changed, p)
			default:
				report.OK = append(report.OK, p)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("integrity: verify %s: %w", dir, err)
	}

	sort.Strings(report.Changed)
	sort.Strings(report.Missing)
	sort.Strings(report.OK)
	return report, nil
}

func (m *Monitor) classify(path string, rec Record) string {
	if !exists(path) {
		return "missing"
	}
	current, err := m.hash(path)
	if err != nil {
		m.logger.Warn("integrity: hash failed", slog.String("path", path), slog.String("error", err.Error()))
		return "changed"
	}
	if current != rec.Hash {
		return "changed"
	}
	return "ok"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpoch(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
