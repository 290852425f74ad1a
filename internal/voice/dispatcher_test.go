package voice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/fileexpo/internal/models"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeExplorer, *fakeSpeaker, string) {
	t.Helper()
	home := t.TempDir()
	if err := os.Mkdir(filepath.Join(home, "Downloads"), 0o755); err != nil {
		t.Fatal(err)
	}
	ex := &fakeExplorer{}
	sp := &fakeSpeaker{}
	return NewDispatcher(ex, sp, DefaultDestinations(home), nil), ex, sp, home
}

func TestDispatchCreateFile(t *testing.T) {
	d, ex, sp, _ := newTestDispatcher(t)
	out := d.Dispatch(context.Background(), "create file notes.txt")
	if out.Intent != IntentCreateFile || out.Result != "/x/notes.txt" {
		t.Fatalf("outcome = %+v", out)
	}
	if diff := cmp.Diff([]string{"createFile notes.txt"}, ex.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if len(sp.Spoken()) != 0 {
		t.Errorf("unexpected speech: %v", sp.Spoken())
	}
}

func TestDispatchNavigate(t *testing.T) {
	d, ex, sp, home := newTestDispatcher(t)
	out := d.Dispatch(context.Background(), "please open downloads")
	if out.Intent != IntentNavigate {
		t.Fatalf("intent = %s", out.Intent)
	}
	want := "navigate " + filepath.Join(home, "Downloads")
	if diff := cmp.Diff([]string{want}, ex.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Opened Downloads"}, sp.Spoken()); diff != "" {
		t.Errorf("speech mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchNavigateUnknownAndMissing(t *testing.T) {
	d, ex, sp, _ := newTestDispatcher(t)

	d.Dispatch(context.Background(), "open the pod bay doors")
	// Documents is configured but was never created.
	d.Dispatch(context.Background(), "go to documents")

	if len(ex.Calls()) != 0 {
		t.Errorf("explorer should not be called: %v", ex.Calls())
	}
	want := []string{SayUnknownPlace, SayPlaceNotFound}
	if diff := cmp.Diff(want, sp.Spoken()); diff != "" {
		t.Errorf("speech mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchNoName(t *testing.T) {
	d, ex, sp, _ := newTestDispatcher(t)
	for _, text := range []string{"create file", "create folder  ", "rename to"} {
		d.Dispatch(context.Background(), text)
	}
	if len(ex.Calls()) != 0 {
		t.Errorf("explorer should not be called: %v", ex.Calls())
	}
	want := []string{SayNoName, SayNoName, SayNoName}
	if diff := cmp.Diff(want, sp.Spoken()); diff != "" {
		t.Errorf("speech mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchDeleteWithoutSelection(t *testing.T) {
	d, _, sp, _ := newTestDispatcher(t)
	out := d.Dispatch(context.Background(), "delete it")
	if out.Error != "" {
		t.Errorf("no-selection delete should be a no-op, got error %q", out.Error)
	}
	if len(sp.Spoken()) != 0 {
		t.Errorf("unexpected speech: %v", sp.Spoken())
	}
}

func TestDispatchSearchSpeaksCount(t *testing.T) {
	d, ex, sp, _ := newTestDispatcher(t)
	ex.results = []models.Entry{{Name: "a"}, {Name: "b"}}
	d.Dispatch(context.Background(), "search report")
	if diff := cmp.Diff([]string{"search report"}, ex.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Found 2 results."}, sp.Spoken()); diff != "" {
		t.Errorf("speech mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchUnrecognized(t *testing.T) {
	d, ex, sp, _ := newTestDispatcher(t)
	out := d.Dispatch(context.Background(), "frobnicate")
	if out.Intent != IntentUnrecognized || out.Feedback != SayNotRecognized {
		t.Errorf("outcome = %+v", out)
	}
	if len(ex.Calls()) != 0 {
		t.Errorf("explorer should not be called: %v", ex.Calls())
	}
	if diff := cmp.Diff([]string{SayNotRecognized}, sp.Spoken()); diff != "" {
		t.Errorf("speech mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchReportsExplorerError(t *testing.T) {
	d, ex, _, _ := newTestDispatcher(t)
	ex.err = errors.New("boom")
	out := d.Dispatch(context.Background(), "go back")
	if out.Error != "boom" {
		t.Errorf("Error = %q, want boom", out.Error)
	}
}
