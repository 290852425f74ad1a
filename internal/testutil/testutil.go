// Package testutil provides shared test helpers for setting up record
// stores in temporary directories.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/fileexpo/internal/fileservice"
	"github.com/starford/fileexpo/internal/integrity"
	"github.com/starford/fileexpo/internal/storage"
	"github.com/starford/fileexpo/internal/tagging"
	"github.com/starford/fileexpo/internal/usage"
)

// Records bundles the record keepers backed by one temporary data directory.
type Records struct {
	Dir       string
	Usage     *usage.Analytics
	Tags      *tagging.Tags
	Integrity *integrity.Monitor
	Files     *fileservice.Service
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRecords creates usage, tag and integrity stores in a temporary
// directory. Usage saves only on Flush.
func TestRecords(t *testing.T, suggester tagging.Suggester) *Records {
	t.Helper()
	dir := t.TempDir()
	logger := Logger()
	r := &Records{
		Dir:       dir,
		Usage:     usage.New(filepath.Join(dir, "file_usage.json"), logger, usage.WithSaveProbability(0)),
		Tags:      tagging.New(filepath.Join(dir, "file_tags.json"), logger, suggester),
		Integrity: integrity.New(filepath.Join(dir, "file_hashes.json"), logger),
	}
	r.Files = fileservice.NewService(storage.NewFS(), r.Usage, r.Tags, r.Integrity)
	return r
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
