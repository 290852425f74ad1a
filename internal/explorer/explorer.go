// Package explorer owns the UI state of the file explorer: the current
// directory, navigation history, selection, clipboard and bookmarks.
//
// Concurrency model: a single event-loop goroutine owns the state. Callers
// (HTTP handlers, the voice loop, background jobs) submit closures over a
// bounded request channel and wait for the result, so no mutexes guard the
// state itself.
package explorer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/sse"
	"github.com/starford/fileexpo/internal/storage"
	"github.com/starford/fileexpo/internal/usage"
)

// requestQueueSize bounds pending requests from background workers.
const requestQueueSize = 64

// ErrClosed is returned by operations on a closed explorer.
var ErrClosed = errors.New("explorer: closed")

// Events receives the visible effects of explorer operations.
type Events interface {
	Publish(event sse.Event)
	PublishFileEvent(kind, path string)
	Notify(operation, message string)
}

// AccessRecorder records file accesses for usage analytics.
type AccessRecorder interface {
	RecordAccess(path string) usage.Record
}

// TagLookup resolves a tag to the paths carrying it.
type TagLookup interface {
	PathsForTag(tag string) []string
}

// Searcher finds entries by file name.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Entry, error)
}

// Launcher opens a file with the default application.
type Launcher interface {
	Launch(path string) error
}

type clipboardAction string

const (
	actionCopy clipboardAction = "copy"
	actionCut  clipboardAction = "cut"
)

type clipboard struct {
	action clipboardAction
	items  []string
}

// state is owned by the event loop.
type state struct {
	cwd       string
	history   []string
	pos       int
	selection []string
	clip      *clipboard
	bookmarks []models.Bookmark
}

// Explorer is the single owner of UI state.
type Explorer struct {
	fs         storage.Provider
	usage      AccessRecorder
	tags       TagLookup
	searcher   Searcher
	launcher   Launcher
	events     Events
	logger     *slog.Logger
	showHidden bool
	startDir   string

	st state

	reqCh   chan func()
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New creates an explorer positioned at the start directory (the user's home
// directory unless WithStartDir is given) and starts its event loop.
func New(fs storage.Provider, opts ...Option) (*Explorer, error) {
	e := &Explorer{
		fs:       fs,
		events:   nopEvents{},
		logger:   slog.Default(),
		launcher: NewLauncher(""),
		reqCh:    make(chan func(), requestQueueSize),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	start := e.startDir
	if start == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		start = home
	}
	start, err := expandPath(start, "")
	if err != nil {
		return nil, err
	}
	if info, err := fs.Stat(start); err != nil || !info.IsDir {
		return nil, notDirError(start)
	}
	e.st = state{cwd: start, history: []string{start}}

	go e.run()
	return e, nil
}

func (e *Explorer) run() {
	defer close(e.stopped)
	for {
		select {
		case <-e.stopCh:
			return
		case fn := <-e.reqCh:
			fn()
		}
	}
}

// Close stops the event loop. Pending callers receive ErrClosed.
func (e *Explorer) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.stopCh)
	}
	<-e.stopped
}

type result[T any] struct {
	v   T
	err error
}

// call runs fn on the event loop and waits for its result. Failures are
// published as notifications naming op, except an empty selection, which is
// a silent no-op.
func call[T any](ctx context.Context, e *Explorer, op string, fn func(s *state) (T, error)) (T, error) {
	var zero T
	if e.closed.Load() {
		return zero, ErrClosed
	}

	done := make(chan result[T], 1)
	req := func() {
		v, err := fn(&e.st)
		if err != nil && !errors.Is(err, apperr.ErrNoSelection) {
			e.logger.Warn("explorer: operation failed",
				slog.String("operation", op),
				slog.String("error", err.Error()),
			)
			e.events.Notify(op, err.Error())
		}
		done <- result[T]{v: v, err: err}
	}

	select {
	case e.reqCh <- req:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.stopped:
		return zero, ErrClosed
	}

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.stopped:
		return zero, ErrClosed
	}
}

// Snapshot is a copy of the UI state.
type Snapshot struct {
	Cwd        string            `json:"cwd"`
	History    []string          `json:"history"`
	Position   int               `json:"position"`
	Selection  []string          `json:"selection"`
	Clipboard  *ClipboardState   `json:"clipboard,omitempty"`
	Bookmarks  []models.Bookmark `json:"bookmarks"`
	CanBack    bool              `json:"can_back"`
	CanForward bool              `json:"can_forward"`
	CanUp      bool              `json:"can_up"`
}

// ClipboardState describes pending copy or cut items.
type ClipboardState struct {
	Action string   `json:"action"`
	Items  []string `json:"items"`
}

// State returns a snapshot of the UI state.
func (e *Explorer) State(ctx context.Context) (Snapshot, error) {
	return call(ctx, e, "state", func(s *state) (Snapshot, error) {
		snap := Snapshot{
			Cwd:        s.cwd,
			History:    append([]string{}, s.history...),
			Position:   s.pos,
			Selection:  append([]string{}, s.selection...),
			Bookmarks:  append([]models.Bookmark{}, s.bookmarks...),
			CanBack:    s.pos > 0,
			CanForward: s.pos < len(s.history)-1,
			CanUp:      parentOf(s.cwd) != s.cwd,
		}
		if s.clip != nil {
			snap.Clipboard = &ClipboardState{
				Action: string(s.clip.action),
				Items:  append([]string{}, s.clip.items...),
			}
		}
		return snap, nil
	})
}

// Cwd returns the current directory.
func (e *Explorer) Cwd(ctx context.Context) (string, error) {
	return call(ctx, e, "state", func(s *state) (string, error) {
		return s.cwd, nil
	})
}

type nopEvents struct{}

func (nopEvents) Publish(sse.Event)               {}
func (nopEvents) PublishFileEvent(string, string) {}
func (nopEvents) Notify(string, string)           {}
