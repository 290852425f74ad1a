package voice

import (
	"context"
	"sync"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/sse"
)

type fakeExplorer struct {
	mu        sync.Mutex
	calls     []string
	selection []string
	results   []models.Entry
	err       error
}

func (f *fakeExplorer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeExplorer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeExplorer) Navigate(_ context.Context, path string) error {
	f.record("navigate " + path)
	return f.err
}

func (f *fakeExplorer) Back(context.Context) error {
	f.record("back")
	return f.err
}

func (f *fakeExplorer) Up(context.Context) error {
	f.record("up")
	return f.err
}

func (f *fakeExplorer) CreateFile(_ context.Context, name string) (string, error) {
	f.record("createFile " + name)
	return "/x/" + name, f.err
}

func (f *fakeExplorer) MakeDir(_ context.Context, name string) (string, error) {
	f.record("mkdir " + name)
	return "/x/" + name, f.err
}

func (f *fakeExplorer) DeleteSelection(context.Context) ([]string, error) {
	f.record("delete")
	if len(f.selection) == 0 {
		return nil, apperr.ErrNoSelection
	}
	return f.selection, f.err
}

func (f *fakeExplorer) RenameSelection(_ context.Context, name string) (string, error) {
	f.record("rename " + name)
	return "/x/" + name, f.err
}

func (f *fakeExplorer) Search(_ context.Context, query string) ([]models.Entry, error) {
	f.record("search " + query)
	return f.results, f.err
}

type fakeSpeaker struct {
	mu    sync.Mutex
	spoke []string
}

func (s *fakeSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoke = append(s.spoke, text)
}

func (s *fakeSpeaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoke...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *fakePublisher) Publish(e sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *fakePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
