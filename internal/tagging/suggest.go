package tagging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/fileexpo/internal/parser"
)

// maxSuggestBytes caps how much of a document the local suggester reads.
const maxSuggestBytes = 64 << 10

var markdownExts = map[string]bool{".md": true, ".markdown": true, ".txt": true}

// MarkdownSuggester proposes tags found in a text document's frontmatter
// and inline #hashtags. It needs no network access.
type MarkdownSuggester struct{}

// SuggestTags implements Suggester.
func (MarkdownSuggester) SuggestTags(_ context.Context, path string) []string {
	if !markdownExts[strings.ToLower(filepath.Ext(path))] {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSuggestBytes))
	if err != nil {
		return nil
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil
	}
	return res.Tags
}

// Chain returns a suggester that tries each suggester in order and returns
// the first non-empty result. Nil entries are skipped.
func Chain(suggesters ...Suggester) Suggester {
	return SuggesterFunc(func(ctx context.Context, path string) []string {
		for _, s := range suggesters {
			if s == nil {
				continue
			}
			if tags := s.SuggestTags(ctx, path); len(tags) > 0 {
				return tags
			}
		}
		return nil
	})
}
