package fileservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/integrity"
	"github.com/starford/fileexpo/internal/storage"
	"github.com/starford/fileexpo/internal/tagging"
	"github.com/starford/fileexpo/internal/usage"
)

func testService(t *testing.T, suggester tagging.Suggester) (*Service, string) {
	t.Helper()
	data := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		storage.NewFS(),
		usage.New(filepath.Join(data, "usage.json"), logger, usage.WithSaveProbability(0)),
		tagging.New(filepath.Join(data, "tags.json"), logger, suggester),
		integrity.New(filepath.Join(data, "hashes.json"), logger),
	)
	return svc, t.TempDir()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNormalize(t *testing.T) {
	if _, err := Normalize("  "); !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("blank: err = %v, want ErrInvalidName", err)
	}
	got, err := Normalize("/tmp/a/../b")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/b" {
		t.Errorf("Normalize = %q, want /tmp/b", got)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got, _ := Normalize("~/docs"); got != filepath.Join(home, "docs") {
		t.Errorf("Normalize(~/docs) = %q", got)
	}
}

func TestTagLifecycle(t *testing.T) {
	svc, dir := testService(t, nil)
	ctx := context.Background()
	p := filepath.Join(dir, "a.txt")

	added, err := svc.AddTag(ctx, p, "work")
	if err != nil || !added {
		t.Fatalf("AddTag = %v, %v", added, err)
	}
	if added, _ := svc.AddTag(ctx, p, "work"); added {
		t.Error("duplicate tag reported as added")
	}
	if _, err := svc.AddTag(ctx, p, " "); !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("blank tag: err = %v", err)
	}

	paths, err := svc.PathsForTag(ctx, "work")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{p}, paths); diff != "" {
		t.Errorf("PathsForTag mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"work"}, svc.AllTags(ctx)); diff != "" {
		t.Errorf("AllTags mismatch (-want +got):\n%s", diff)
	}

	removed, err := svc.RemoveTag(ctx, p, "work")
	if err != nil || !removed {
		t.Fatalf("RemoveTag = %v, %v", removed, err)
	}
	resp, _ := svc.TagsFor(ctx, p)
	if len(resp.Tags) != 0 {
		t.Errorf("tags after remove = %v", resp.Tags)
	}
}

func TestAutoTagRequiresFile(t *testing.T) {
	svc, dir := testService(t, tagging.SuggesterFunc(func(context.Context, string) []string {
		return []string{"draft"}
	}))
	ctx := context.Background()

	if _, err := svc.AutoTag(ctx, filepath.Join(dir, "missing.md")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.AutoTag(ctx, dir); !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("directory: err = %v, want ErrInvalidName", err)
	}

	p := filepath.Join(dir, "note.md")
	writeFile(t, p, "hello")
	tags, err := svc.AutoTag(ctx, p)
	if err != nil {
		t.Fatalf("AutoTag: %v", err)
	}
	if diff := cmp.Diff([]string{"draft"}, tags); diff != "" {
		t.Errorf("AutoTag mismatch (-want +got):\n%s", diff)
	}
}

func TestUsageStats(t *testing.T) {
	svc, dir := testService(t, nil)
	ctx := context.Background()
	p := filepath.Join(dir, "a.txt")

	if _, err := svc.Stats(ctx, p); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unrecorded: err = %v, want ErrNotFound", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.RecordAccess(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	st, err := svc.Stats(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if st.Accesses != 3 {
		t.Errorf("accesses = %d, want 3", st.Accesses)
	}
	top := svc.MostAccessed(ctx, 0)
	if len(top) != 1 || top[0].Path != p {
		t.Errorf("MostAccessed = %+v", top)
	}
}

func TestIntegrityFlow(t *testing.T) {
	svc, dir := testService(t, nil)
	ctx := context.Background()
	p := filepath.Join(dir, "doc.txt")
	writeFile(t, p, "v1")

	res, err := svc.CheckIntegrity(ctx, p)
	if err != nil || !res.FirstCheck {
		t.Fatalf("first check = %+v, %v", res, err)
	}
	writeFile(t, p, "v2")
	if res, _ := svc.CheckIntegrity(ctx, p); !res.Changed {
		t.Error("modified file not reported as changed")
	}
	if _, err := svc.Rebaseline(ctx, p); err != nil {
		t.Fatalf("Rebaseline: %v", err)
	}
	if res, _ := svc.CheckIntegrity(ctx, p); res.Changed {
		t.Error("changed after rebaseline")
	}
	if _, err := svc.Rebaseline(ctx, filepath.Join(dir, "gone")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("rebaseline missing: err = %v, want ErrNotFound", err)
	}

	report, err := svc.VerifyDirectory(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{p}, report.OK); diff != "" {
		t.Errorf("VerifyDirectory OK mismatch (-want +got):\n%s", diff)
	}
}

func TestDetails(t *testing.T) {
	svc, dir := testService(t, nil)
	ctx := context.Background()
	p := filepath.Join(dir, "d.txt")
	writeFile(t, p, "data")

	if _, err := svc.Details(ctx, filepath.Join(dir, "nope")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}

	_, _ = svc.AddTag(ctx, p, "x")
	_, _ = svc.RecordAccess(ctx, p)
	_, _ = svc.CheckIntegrity(ctx, p)

	d, err := svc.Details(ctx, p)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if d.Entry.Name != "d.txt" || d.Usage == nil || d.Integrity == nil {
		t.Errorf("Details = %+v", d)
	}
	if diff := cmp.Diff([]string{"x"}, d.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}
