// Package tagging stores user-assigned tags per file, plus a slot for
// automatically suggested tags, with reverse lookup from tag to paths.
package tagging

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/starford/fileexpo/internal/recordstore"
)

// Record is the persisted tag entry for one path.
type Record struct {
	Tags     []string `json:"tags"`
	AutoTags []string `json:"auto_tags"`
}

// Suggester proposes tags for a file. Implementations return nil on any
// failure instead of an error.
type Suggester interface {
	SuggestTags(ctx context.Context, path string) []string
}

// SuggesterFunc adapts a function to Suggester.
type SuggesterFunc func(ctx context.Context, path string) []string

// SuggestTags implements Suggester.
func (f SuggesterFunc) SuggestTags(ctx context.Context, path string) []string {
	return f(ctx, path)
}

// Tags is the tag service.
type Tags struct {
	store     *recordstore.Store[Record]
	logger    *slog.Logger
	suggester Suggester
}

// New creates the tag service persisted at docPath. suggester may be nil, in
// which case AutoTag always returns no tags.
func New(docPath string, logger *slog.Logger, suggester Suggester) *Tags {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tags{
		store:     recordstore.Open[Record]("tags", docPath, logger),
		logger:    logger,
		suggester: suggester,
	}
}

// AddTag attaches tag to path. Tags are case-insensitive and stored in lower
// case. It returns false if the tag is blank or already present.
func (t *Tags) AddTag(path, tag string) bool {
	tag = normalize(tag)
	if tag == "" {
		return false
	}
	_, added := t.store.Update(path, func(cur Record, _ bool) (Record, bool) {
		if slices.Contains(cur.Tags, tag) {
			return cur, false
		}
		cur.Tags = append(slices.Clone(cur.Tags), tag)
		if cur.AutoTags == nil {
			cur.AutoTags = []string{}
		}
		return cur, true
	})
	if added {
		_ = t.store.Save()
	}
	return added
}

// RemoveTag detaches tag from path. Removing an absent tag is a no-op that
// returns false.
func (t *Tags) RemoveTag(path, tag string) bool {
	tag = normalize(tag)
	_, removed := t.store.Update(path, func(cur Record, ok bool) (Record, bool) {
		i := slices.Index(cur.Tags, tag)
		if !ok || i < 0 {
			return cur, false
		}
		cur.Tags = slices.Delete(slices.Clone(cur.Tags), i, i+1)
		return cur, true
	})
	if removed {
		_ = t.store.Save()
	}
	return removed
}

// TagsFor returns the manual and automatic tags of path. Both are empty for
// an unknown path.
func (t *Tags) TagsFor(path string) (manual, auto []string) {
	rec, ok := t.store.Get(path)
	if !ok {
		return []string{}, []string{}
	}
	return nonNil(slices.Clone(rec.Tags)), nonNil(slices.Clone(rec.AutoTags))
}

// PathsForTag returns every path whose manual or automatic tags contain tag,
// sorted by path. The match ignores case.
func (t *Tags) PathsForTag(tag string) []string {
	tag = normalize(tag)
	out := []string{}
	for p, rec := range t.store.Snapshot() {
		if slices.Contains(rec.Tags, tag) || slices.Contains(rec.AutoTags, tag) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// AllTags returns the deduplicated, sorted union of manual tags.
func (t *Tags) AllTags() []string {
	set := make(map[string]struct{})
	for _, rec := range t.store.Snapshot() {
		for _, tag := range rec.Tags {
			set[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// AutoTag asks the configured suggester for tags and stores a non-empty
// result as the path's automatic tags. It never fails: with no suggester or
// on a suggester failure it returns an empty slice.
func (t *Tags) AutoTag(ctx context.Context, path string) []string {
	if t.suggester == nil {
		return []string{}
	}
	suggested := dedupe(t.suggester.SuggestTags(ctx, path))
	if len(suggested) == 0 {
		t.logger.Debug("tagging: no suggestions", slog.String("path", path))
		return []string{}
	}
	t.store.Update(path, func(cur Record, _ bool) (Record, bool) {
		if cur.Tags == nil {
			cur.Tags = []string{}
		}
		cur.AutoTags = suggested
		return cur, true
	})
	_ = t.store.Save()
	return slices.Clone(suggested)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		s = normalize(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
