package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/fileexpo/internal/ai"
	"github.com/starford/fileexpo/internal/explorer"
	"github.com/starford/fileexpo/internal/fileservice"
	"github.com/starford/fileexpo/internal/integrity"
	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/qrcode"
	"github.com/starford/fileexpo/internal/sse"
	"github.com/starford/fileexpo/internal/storage"
	"github.com/starford/fileexpo/internal/tagging"
	"github.com/starford/fileexpo/internal/testutil"
	"github.com/starford/fileexpo/internal/usage"
	"github.com/starford/fileexpo/internal/voice"
)

type launches struct {
	mu    sync.Mutex
	paths []string
}

func (l *launches) Launch(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
	return nil
}

type testEnv struct {
	router    http.Handler
	root      string
	assistant *voice.Assistant
}

func newTestEnv(t *testing.T, authEnabled bool, token string, caps models.Capabilities) *testEnv {
	t.Helper()
	logger := testutil.Logger()
	root := t.TempDir()
	records := testutil.TestRecords(t, tagging.MarkdownSuggester{})

	broker := sse.NewBroker(time.Millisecond)
	t.Cleanup(broker.Close)

	exp, err := explorer.New(storage.NewFS(),
		explorer.WithStartDir(root),
		explorer.WithUsage(records.Usage),
		explorer.WithTags(records.Tags),
		explorer.WithLauncher(&launches{}),
		explorer.WithEvents(broker),
		explorer.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("explorer.New: %v", err)
	}
	t.Cleanup(exp.Close)

	speaker := voice.NewEventSpeaker(broker, logger)
	destinations := []voice.Destination{{Keyword: "home", Path: root}}
	dispatcher := voice.NewDispatcher(exp, speaker, destinations, logger)
	recognizer := voice.NewQueueRecognizer(4, 50*time.Millisecond, 0)
	assistant := voice.NewAssistant(dispatcher, recognizer, speaker, broker, logger)
	t.Cleanup(assistant.Close)

	deps := Deps{
		Files:        records.Files,
		Explorer:     exp,
		Assistant:    assistant,
		Recognizer:   recognizer,
		Destinations: destinations,
		QR:           qrcode.New(64),
		Capabilities: caps,
	}
	return &testEnv{
		router:    NewRouter(deps, authEnabled, token, nil),
		root:      root,
		assistant: assistant,
	}
}

func allCaps() models.Capabilities {
	return models.Capabilities{Voice: true, QR: true, Search: true}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateFileAndList(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())

	w := env.do(t, http.MethodPost, "/explorer/files", NameRequest{Name: "report.txt"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[PathRequest](t, w).Path; got != filepath.Join(env.root, "report.txt") {
		t.Errorf("created path = %q", got)
	}

	w = env.do(t, http.MethodPost, "/explorer/files", NameRequest{Name: "report.txt"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}

	w = env.do(t, http.MethodPost, "/explorer/folders", NameRequest{Name: "sub"})
	if w.Code != http.StatusCreated {
		t.Fatalf("mkdir status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/explorer/entries", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("entries status = %d", w.Code)
	}
	listing := decode[ListingResponse](t, w)
	if listing.Cwd != env.root || len(listing.Entries) != 2 {
		t.Fatalf("listing = %+v", listing)
	}
	if listing.Entries[0].Name != "sub" || listing.Entries[1].Name != "report.txt" {
		t.Errorf("order = %q, %q; want folders first", listing.Entries[0].Name, listing.Entries[1].Name)
	}
	if listing.Entries[1].SizeText != "0 B" || listing.Entries[0].SizeText != "" {
		t.Errorf("size text = %q, %q", listing.Entries[0].SizeText, listing.Entries[1].SizeText)
	}
}

func TestEntriesSort(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	for name, content := range map[string]string{"a.txt": "xxxx", "b.txt": "x"} {
		if err := os.WriteFile(filepath.Join(env.root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(env.root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		target string
		want   []string
	}{
		{"/explorer/entries", []string{"sub", "a.txt", "b.txt"}},
		{"/explorer/entries?sort=name", []string{"a.txt", "b.txt", "sub"}},
		{"/explorer/entries?sort=size", []string{"sub", "b.txt", "a.txt"}},
	}
	for _, tt := range tests {
		w := env.do(t, http.MethodGet, tt.target, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s = %d", tt.target, w.Code)
		}
		var got []string
		for _, e := range decode[ListingResponse](t, w).Entries {
			got = append(got, e.Name)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tt.target, diff)
		}
	}

	if w := env.do(t, http.MethodGet, "/explorer/entries?sort=colour", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown sort = %d, want 400", w.Code)
	}
}

func TestCreateFileInvalidName(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	w := env.do(t, http.MethodPost, "/explorer/files", NameRequest{Name: ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", w.Code)
	}
}

func TestInvalidJSON(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	req := httptest.NewRequest(http.MethodPost, "/explorer/files", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestNavigateAndHistory(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	if err := os.Mkdir(filepath.Join(env.root, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/explorer/navigate", PathRequest{Path: "docs"})
	if w.Code != http.StatusOK {
		t.Fatalf("navigate = %d, body = %s", w.Code, w.Body.String())
	}
	state := decode[StateResponse](t, w)
	if state.Cwd != filepath.Join(env.root, "docs") || !state.CanBack {
		t.Errorf("state after navigate = %+v", state)
	}

	w = env.do(t, http.MethodPost, "/explorer/back", nil)
	if got := decode[StateResponse](t, w); got.Cwd != env.root || !got.CanForward {
		t.Errorf("state after back = %+v", got)
	}
	w = env.do(t, http.MethodPost, "/explorer/forward", nil)
	if got := decode[StateResponse](t, w); got.Cwd != filepath.Join(env.root, "docs") {
		t.Errorf("cwd after forward = %q", got.Cwd)
	}
	w = env.do(t, http.MethodPost, "/explorer/up", nil)
	if got := decode[StateResponse](t, w); got.Cwd != env.root {
		t.Errorf("cwd after up = %q", got.Cwd)
	}

	w = env.do(t, http.MethodPost, "/explorer/navigate", PathRequest{Path: "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("navigate missing = %d, want 404", w.Code)
	}
}

func TestSelectRenameDelete(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	for _, n := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(env.root, n), []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if w := env.do(t, http.MethodPost, "/explorer/delete", nil); w.Code != http.StatusBadRequest {
		t.Errorf("delete without selection = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/explorer/select", SelectRequest{Names: []string{"nope"}}); w.Code != http.StatusNotFound {
		t.Errorf("select unknown = %d, want 404", w.Code)
	}

	env.do(t, http.MethodPost, "/explorer/select", SelectRequest{Names: []string{"a.txt", "b.txt"}})
	if w := env.do(t, http.MethodPost, "/explorer/rename", NameRequest{Name: "c.txt"}); w.Code != http.StatusConflict {
		t.Errorf("rename with two selected = %d, want 409", w.Code)
	}

	env.do(t, http.MethodPost, "/explorer/select", SelectRequest{Names: []string{"a.txt"}})
	w := env.do(t, http.MethodPost, "/explorer/rename", NameRequest{Name: "c.txt"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename = %d, body = %s", w.Code, w.Body.String())
	}
	if _, err := os.Stat(filepath.Join(env.root, "c.txt")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}

	env.do(t, http.MethodPost, "/explorer/select", SelectRequest{Names: []string{"b.txt"}})
	w = env.do(t, http.MethodPost, "/explorer/delete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	if _, err := os.Stat(filepath.Join(env.root, "b.txt")); !os.IsNotExist(err) {
		t.Errorf("b.txt still exists: %v", err)
	}
}

func TestSelectAllEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	for _, n := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(env.root, n), []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	w := env.do(t, http.MethodPost, "/explorer/select", SelectRequest{All: true})
	if w.Code != http.StatusOK {
		t.Fatalf("select all = %d, body = %s", w.Code, w.Body.String())
	}
	want := []string{filepath.Join(env.root, "a.txt"), filepath.Join(env.root, "b.txt")}
	if diff := cmp.Diff(want, decode[PathsResponse](t, w).Paths); diff != "" {
		t.Errorf("selected mismatch (-want +got):\n%s", diff)
	}

	if w := env.do(t, http.MethodPost, "/explorer/delete", nil); w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	for _, n := range []string{"a.txt", "b.txt"} {
		if _, err := os.Stat(filepath.Join(env.root, n)); !os.IsNotExist(err) {
			t.Errorf("%s still exists: %v", n, err)
		}
	}
}

func TestCopyPaste(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	if err := os.WriteFile(filepath.Join(env.root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(env.root, "dst"), 0o755); err != nil {
		t.Fatal(err)
	}

	if w := env.do(t, http.MethodPost, "/explorer/paste", nil); w.Code != http.StatusBadRequest {
		t.Errorf("paste with empty clipboard = %d, want 400", w.Code)
	}

	env.do(t, http.MethodPost, "/explorer/select", SelectRequest{Names: []string{"a.txt"}})
	w := env.do(t, http.MethodPost, "/explorer/copy", nil)
	if got := decode[StateResponse](t, w); got.Clipboard == nil || got.Clipboard.Action != "copy" {
		t.Fatalf("clipboard = %+v", got.Clipboard)
	}
	env.do(t, http.MethodPost, "/explorer/navigate", PathRequest{Path: "dst"})
	w = env.do(t, http.MethodPost, "/explorer/paste", PasteRequest{})
	if w.Code != http.StatusOK {
		t.Fatalf("paste = %d, body = %s", w.Code, w.Body.String())
	}
	if _, err := os.Stat(filepath.Join(env.root, "dst", "a.txt")); err != nil {
		t.Errorf("pasted file missing: %v", err)
	}
	if w := env.do(t, http.MethodPost, "/explorer/paste", PasteRequest{}); w.Code != http.StatusConflict {
		t.Errorf("paste over existing = %d, want 409", w.Code)
	}
}

func TestBookmarks(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())

	w := env.do(t, http.MethodPost, "/bookmarks", BookmarkRequest{Name: "root"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add bookmark = %d, body = %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/bookmarks", BookmarkRequest{Name: "again"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate bookmark = %d, want 409", w.Code)
	}
	w = env.do(t, http.MethodGet, "/bookmarks", nil)
	got := decode[map[string][]models.Bookmark](t, w)
	if len(got["bookmarks"]) != 1 || got["bookmarks"][0].Path != env.root {
		t.Errorf("bookmarks = %+v", got)
	}
	if w := env.do(t, http.MethodDelete, "/bookmarks?path="+env.root, nil); w.Code != http.StatusNoContent {
		t.Errorf("remove bookmark = %d, want 204", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/bookmarks?path="+env.root, nil); w.Code != http.StatusNotFound {
		t.Errorf("remove missing bookmark = %d, want 404", w.Code)
	}
}

func TestTagEndpoints(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	p := filepath.Join(env.root, "notes.md")
	if err := os.WriteFile(p, []byte("---\ntags: [draft]\n---\nbody #idea\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/tags", TagRequest{Path: p, Tag: "work"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add tag = %d, body = %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/tags", TagRequest{Path: p, Tag: "work"}); w.Code != http.StatusOK {
		t.Errorf("re-add tag = %d, want 200", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/tags", TagRequest{Path: p}); w.Code != http.StatusBadRequest {
		t.Errorf("blank tag = %d, want 400", w.Code)
	}

	w = env.do(t, http.MethodGet, "/tags/files?tag=work", nil)
	if got := decode[PathsResponse](t, w); len(got.Paths) != 1 || got.Paths[0] != p {
		t.Errorf("files for tag = %+v", got)
	}

	w = env.do(t, http.MethodPost, "/tags/auto", PathRequest{Path: p})
	if w.Code != http.StatusOK {
		t.Fatalf("auto tag = %d, body = %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/tags/file?path="+p, nil)
	tags := decode[fileservice.TagsResponse](t, w)
	if len(tags.Tags) != 1 || len(tags.AutoTags) == 0 {
		t.Errorf("tags = %+v", tags)
	}

	if w := env.do(t, http.MethodDelete, "/tags", TagRequest{Path: p, Tag: "work"}); w.Code != http.StatusNoContent {
		t.Errorf("remove tag = %d, want 204", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/tags", TagRequest{Path: p, Tag: "work"}); w.Code != http.StatusNotFound {
		t.Errorf("remove absent tag = %d, want 404", w.Code)
	}
}

func TestUsageAfterOpen(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	p := filepath.Join(env.root, "a.txt")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if w := env.do(t, http.MethodGet, "/usage/stats?path="+p, nil); w.Code != http.StatusNotFound {
		t.Errorf("stats before open = %d, want 404", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/explorer/open", NameRequest{Name: "a.txt"}); w.Code != http.StatusOK {
		t.Fatalf("open = %d, body = %s", w.Code, w.Body.String())
	}
	w := env.do(t, http.MethodGet, "/usage/top?n=5", nil)
	top := decode[[]usage.Entry](t, w)
	if len(top) != 1 || top[0].Path != p || top[0].Record.Accesses != 1 {
		t.Errorf("top = %+v", top)
	}
	if w := env.do(t, http.MethodGet, "/usage/stats?path="+p, nil); w.Code != http.StatusOK {
		t.Errorf("stats after open = %d", w.Code)
	}
}

func TestIntegrityEndpoints(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	p := filepath.Join(env.root, "doc.txt")
	if err := os.WriteFile(p, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/integrity/check", PathRequest{Path: p})
	if res := decode[integrity.Result](t, w); !res.FirstCheck {
		t.Fatalf("first check = %+v", res)
	}
	if err := os.WriteFile(p, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	w = env.do(t, http.MethodGet, "/integrity/health?path="+p, nil)
	if h := decode[integrity.HealthReport](t, w); h.Status != integrity.StatusChanged {
		t.Errorf("health = %+v", h)
	}
	w = env.do(t, http.MethodGet, "/integrity/verify?dir="+env.root, nil)
	if rep := decode[integrity.Report](t, w); len(rep.Changed) != 1 {
		t.Errorf("verify = %+v", rep)
	}
	if w := env.do(t, http.MethodPost, "/integrity/rebaseline", PathRequest{Path: p}); w.Code != http.StatusOK {
		t.Errorf("rebaseline = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/integrity/rebaseline", PathRequest{Path: p + ".gone"}); w.Code != http.StatusNotFound {
		t.Errorf("rebaseline missing = %d, want 404", w.Code)
	}
	w = env.do(t, http.MethodGet, "/integrity/problems?path="+p+".gone", nil)
	if got := decode[map[string][]string](t, w); len(got["problems"]) != 1 {
		t.Errorf("problems = %+v", got)
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	if err := os.WriteFile(filepath.Join(env.root, "budget.xlsx"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w := env.do(t, http.MethodGet, "/search?q=budget", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if got := decode[SearchResponse](t, w); len(got.Results) != 1 {
		t.Errorf("results = %+v", got.Results)
	}
	if w := env.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestSearchMatchesTagsIgnoringCase(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	p := filepath.Join(env.root, "scan.pdf")
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if w := env.do(t, http.MethodPost, "/tags", TagRequest{Path: p, Tag: "Work"}); w.Code != http.StatusCreated {
		t.Fatalf("add tag = %d, body = %s", w.Code, w.Body.String())
	}
	for _, q := range []string{"work", "WORK"} {
		w := env.do(t, http.MethodGet, "/search?q="+q, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("search %s = %d", q, w.Code)
		}
		if got := decode[SearchResponse](t, w).Results; len(got) != 1 || got[0].Path != p {
			t.Errorf("search %s results = %+v", q, got)
		}
	}
}

func TestCommandEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())

	w := env.do(t, http.MethodPost, "/voice/command", TextRequest{Text: "create file plan.txt"})
	if w.Code != http.StatusOK {
		t.Fatalf("command = %d, body = %s", w.Code, w.Body.String())
	}
	out := decode[voice.Outcome](t, w)
	if out.Intent != voice.IntentCreateFile || out.Error != "" {
		t.Errorf("outcome = %+v", out)
	}
	if _, err := os.Stat(filepath.Join(env.root, "plan.txt")); err != nil {
		t.Errorf("file not created: %v", err)
	}

	w = env.do(t, http.MethodPost, "/voice/command", TextRequest{Text: "make me a sandwich"})
	if out := decode[voice.Outcome](t, w); out.Intent != voice.IntentUnrecognized || out.Feedback != voice.SayNotRecognized {
		t.Errorf("unrecognized outcome = %+v", out)
	}
	if w := env.do(t, http.MethodPost, "/voice/command", TextRequest{Text: "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank command = %d, want 400", w.Code)
	}
}

func TestVoiceLifecycle(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())

	if w := env.do(t, http.MethodPost, "/voice/utterance", TextRequest{Text: "go back"}); w.Code != http.StatusConflict {
		t.Errorf("utterance while idle = %d, want 409", w.Code)
	}
	w := env.do(t, http.MethodPost, "/voice/start", nil)
	if got := decode[VoiceStateResponse](t, w); w.Code != http.StatusOK || got.State != string(voice.StateListening) {
		t.Fatalf("start = %d %+v", w.Code, got)
	}
	if w := env.do(t, http.MethodPost, "/voice/start", nil); w.Code != http.StatusConflict {
		t.Errorf("second start = %d, want 409", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/voice/utterance", TextRequest{Text: "go up"}); w.Code != http.StatusAccepted {
		t.Errorf("utterance = %d, want 202", w.Code)
	}
	w = env.do(t, http.MethodPost, "/voice/stop", nil)
	if got := decode[VoiceStateResponse](t, w); got.State != string(voice.StateIdle) {
		t.Errorf("state after stop = %q", got.State)
	}

	w = env.do(t, http.MethodGet, "/voice/commands", nil)
	if w.Code != http.StatusOK {
		t.Errorf("commands = %d", w.Code)
	}
}

func TestOptionalFeaturesNotConfigured(t *testing.T) {
	env := newTestEnv(t, false, "", models.Capabilities{})
	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/voice/start"},
		{http.MethodPost, "/summary"},
		{http.MethodGet, "/qr?path=/tmp"},
	} {
		if w := env.do(t, tc.method, tc.target, nil); w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s = %d, want 503", tc.method, tc.target, w.Code)
		}
	}
	w := env.do(t, http.MethodGet, "/capabilities", nil)
	if got := decode[models.Capabilities](t, w); got != (models.Capabilities{}) {
		t.Errorf("capabilities = %+v", got)
	}
}

func TestSummaryAfterJobsClosed(t *testing.T) {
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)
	jobs := ai.NewJobs(ai.Disabled{}, broker, testutil.Logger())
	jobs.Close()
	router := NewRouter(Deps{Summaries: jobs, Capabilities: models.Capabilities{AI: true}}, false, "", nil)

	p := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	body, _ := json.Marshal(PathRequest{Path: p})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/summary", bytes.NewReader(body)))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("summary after close = %d, want 503", w.Code)
	}
}

func TestQREndpoint(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	p := filepath.Join(env.root, "short.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodGet, "/qr?mode=content&path="+p, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("qr = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if mode := w.Header().Get("X-QR-Mode"); mode != string(qrcode.ModeContent) {
		t.Errorf("mode = %q", mode)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
	if w := env.do(t, http.MethodGet, "/qr?mode=bogus&path="+p, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad mode = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/qr?path="+p+".gone", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newTestEnv(t, true, "secret", allCaps())
	req := httptest.NewRequest(http.MethodGet, "/capabilities", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	env := newTestEnv(t, true, "secret", allCaps())
	w := env.do(t, http.MethodGet, "/capabilities", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newTestEnv(t, true, "secret", allCaps())
	req := httptest.NewRequest(http.MethodGet, "/capabilities", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newTestEnv(t, false, "", allCaps())
	w := env.do(t, http.MethodGet, "/capabilities", nil)
	if w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenOnlyForEvents(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := AuthMiddleware(true, "secret")(ok)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/events?access_token=secret", http.StatusOK},
		{"/api/events?access_token=wrong", http.StatusUnauthorized},
		{"/api/capabilities?access_token=secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if w.Code != tt.want {
			t.Errorf("%s = %d, want %d", tt.target, w.Code, tt.want)
		}
	}
}
