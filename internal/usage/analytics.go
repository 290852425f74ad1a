// Package usage records file access events and derives most/recently
// accessed rankings and per-file frequency statistics.
package usage

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"time"

	"github.com/starford/fileexpo/internal/recordstore"
)

const (
	// DefaultRecentLimit bounds Record.AccessTimes.
	DefaultRecentLimit = 10
	// DefaultSaveProbability is the chance that an access triggers a save.
	DefaultSaveProbability = 0.1
)

// Record is the persisted usage entry for one path. Times are epoch seconds.
type Record struct {
	Accesses    int       `json:"accesses"`
	FirstAccess float64   `json:"first_access"`
	LastAccess  float64   `json:"last_access"`
	AccessTimes []float64 `json:"access_times"`
}

// Entry pairs a path with its record in ranking results.
type Entry struct {
	Path   string `json:"path"`
	Record Record `json:"record"`
}

// Stats is the derived view returned by StatsFor.
type Stats struct {
	Accesses             int       `json:"accesses"`
	FirstAccess          time.Time `json:"first_access"`
	LastAccess           time.Time `json:"last_access"`
	DaysSinceFirstAccess float64   `json:"days_since_first_access"`
	DaysSinceLastAccess  float64   `json:"days_since_last_access"`
	Frequency            float64   `json:"access_frequency"` // accesses per day
}

// Option configures an Analytics instance.
type Option func(*Analytics)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Analytics) { a.now = now }
}

// WithRandom overrides the source used for the probabilistic save trigger.
func WithRandom(r func() float64) Option {
	return func(a *Analytics) { a.random = r }
}

// WithSaveProbability sets the per-access save chance (0 disables, 1 always).
func WithSaveProbability(p float64) Option {
	return func(a *Analytics) { a.saveProbability = p }
}

// WithRecentLimit sets how many recent access times are kept per path.
func WithRecentLimit(n int) Option {
	return func(a *Analytics) {
		if n > 0 {
			a.recentLimit = n
		}
	}
}

// WithObserver registers a callback invoked after every recorded access.
func WithObserver(fn func(path string)) Option {
	return func(a *Analytics) { a.observe = fn }
}

// Analytics tracks usage per absolute path.
type Analytics struct {
	store           *recordstore.Store[Record]
	logger          *slog.Logger
	now             func() time.Time
	random          func() float64
	saveProbability float64
	recentLimit     int
	observe         func(path string)
}

// New creates usage analytics persisted at docPath.
func New(docPath string, logger *slog.Logger, opts ...Option) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analytics{
		store:           recordstore.Open[Record]("usage", docPath, logger),
		logger:          logger,
		now:             time.Now,
		random:          rand.Float64,
		saveProbability: DefaultSaveProbability,
		recentLimit:     DefaultRecentLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordAccess registers one access to path and occasionally persists.
func (a *Analytics) RecordAccess(path string) Record {
	now := toEpoch(a.now())
	rec, _ := a.store.Update(path, func(cur Record, ok bool) (Record, bool) {
		if !ok {
			cur = Record{FirstAccess: now}
		}
		cur.Accesses++
		cur.LastAccess = now

		times := append(slices.Clone(cur.AccessTimes), now)
		if len(times) > a.recentLimit {
			times = times[len(times)-a.recentLimit:]
		}
		cur.AccessTimes = times
		return cur, true
	})

	if a.observe != nil {
		a.observe(path)
	}
	if a.saveProbability > 0 && a.random() < a.saveProbability {
		_ = a.store.Save()
	}
	return rec
}

// MostAccessed returns up to n entries ordered by access count, descending.
// Ties are broken by path, ascending.
func (a *Analytics) MostAccessed(n int) []Entry {
	return a.ranked(n, func(x, y Record) int {
		switch {
		case x.Accesses > y.Accesses:
			return -1
		case x.Accesses < y.Accesses:
			return 1
		}
		return 0
	})
}

// RecentlyAccessed returns up to n entries ordered by last access time,
// newest first. Ties are broken by path, ascending.
func (a *Analytics) RecentlyAccessed(n int) []Entry {
	return a.ranked(n, func(x, y Record) int {
		switch {
		case x.LastAccess > y.LastAccess:
			return -1
		case x.LastAccess < y.LastAccess:
			return 1
		}
		return 0
	})
}

func (a *Analytics) ranked(n int, cmp func(x, y Record) int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	snap := a.store.Snapshot()
	entries := make([]Entry, 0, len(snap))
	for p, r := range snap {
		entries = append(entries, Entry{Path: p, Record: r})
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := cmp(entries[i].Record, entries[j].Record); c != 0 {
			return c < 0
		}
		return entries[i].Path < entries[j].Path
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// StatsFor returns derived statistics, or false if path was never recorded.
func (a *Analytics) StatsFor(path string) (Stats, bool) {
	rec, ok := a.store.Get(path)
	if !ok {
		return Stats{}, false
	}
	now := toEpoch(a.now())
	const day = 24 * 60 * 60
	sinceFirst := (now - rec.FirstAccess) / day
	sinceLast := (now - rec.LastAccess) / day

	return Stats{
		Accesses:             rec.Accesses,
		FirstAccess:          fromEpoch(rec.FirstAccess),
		LastAccess:           fromEpoch(rec.LastAccess),
		DaysSinceFirstAccess: round(sinceFirst, 1),
		DaysSinceLastAccess:  round(sinceLast, 1),
		Frequency:            round(float64(rec.Accesses)/math.Max(1, sinceFirst), 2),
	}, true
}

// Get returns the raw record for path.
func (a *Analytics) Get(path string) (Record, bool) {
	return a.store.Get(path)
}

// Flush persists unconditionally. Errors are logged by the store.
func (a *Analytics) Flush() error {
	return a.store.Save()
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpoch(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
