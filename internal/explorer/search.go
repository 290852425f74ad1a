package explorer

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/fileexpo/internal/models"
)

// searchLimit caps name matches per query.
const searchLimit = 200

// Search matches query against file names and returns them together with the
// files tagged exactly query. Without a Searcher, the current directory tree
// is walked.
func (e *Explorer) Search(ctx context.Context, query string) ([]models.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Entry{}, nil
	}
	cwd, err := e.Cwd(ctx)
	if err != nil {
		return nil, err
	}

	var byName []models.Entry
	if e.searcher != nil {
		byName, err = e.searcher.Search(ctx, query, searchLimit)
	} else {
		byName, err = e.walkSearch(ctx, cwd, query)
	}
	if err != nil {
		e.events.Notify("search", err.Error())
		return nil, err
	}

	seen := make(map[string]bool, len(byName))
	out := make([]models.Entry, 0, len(byName))
	for _, en := range byName {
		if !seen[en.Path] {
			seen[en.Path] = true
			out = append(out, en)
		}
	}
	if e.tags != nil {
		for _, p := range e.tags.PathsForTag(strings.ToLower(query)) {
			if seen[p] {
				continue
			}
			en, err := e.fs.Stat(p)
			if err != nil {
				continue
			}
			seen[p] = true
			out = append(out, en)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (e *Explorer) walkSearch(ctx context.Context, root, query string) ([]models.Entry, error) {
	q := strings.ToLower(query)
	var out []models.Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}
		if !e.showHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.Contains(strings.ToLower(d.Name()), q) {
			return nil
		}
		en, err := e.fs.Stat(path)
		if err != nil {
			return nil
		}
		out = append(out, en)
		if len(out) >= searchLimit {
			return filepath.SkipAll
		}
		return nil
	})
	return out, err
}
