package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fileexpo/internal/explorer"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(deps Deps, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/capabilities", h.Capabilities)
	r.Get("/files/info", h.FileInfo)

	// Explorer state and file operations.
	r.Route("/explorer", func(r chi.Router) {
		r.Get("/", h.ExplorerState)
		r.Get("/entries", h.Entries)
		r.Post("/navigate", h.Navigate)
		r.Post("/back", h.step("back", (*explorer.Explorer).Back))
		r.Post("/forward", h.step("forward", (*explorer.Explorer).Forward))
		r.Post("/up", h.step("up", (*explorer.Explorer).Up))
		r.Post("/select", h.Select)
		r.Post("/files", h.CreateFile)
		r.Post("/folders", h.CreateFolder)
		r.Post("/open", h.Open)
		r.Post("/delete", h.Delete)
		r.Post("/rename", h.Rename)
		r.Post("/copy", h.Copy)
		r.Post("/cut", h.Cut)
		r.Post("/paste", h.Paste)
	})

	r.Get("/bookmarks", h.Bookmarks)
	r.Post("/bookmarks", h.AddBookmark)
	r.Delete("/bookmarks", h.RemoveBookmark)

	// Usage analytics.
	r.Get("/usage/top", h.MostAccessed)
	r.Get("/usage/recent", h.RecentlyAccessed)
	r.Get("/usage/stats", h.UsageStats)

	// Tags.
	r.Get("/tags", h.AllTags)
	r.Post("/tags", h.AddTag)
	r.Delete("/tags", h.RemoveTag)
	r.Get("/tags/files", h.FilesForTag)
	r.Get("/tags/file", h.TagsForFile)
	r.Post("/tags/auto", h.AutoTag)

	// Integrity.
	r.Post("/integrity/check", h.CheckIntegrity)
	r.Post("/integrity/rebaseline", h.Rebaseline)
	r.Get("/integrity/problems", h.Problems)
	r.Get("/integrity/verify", h.Verify)
	r.Get("/integrity/health", h.Health)

	// Search.
	r.Get("/search", h.Search)

	// Voice and typed commands.
	r.Post("/voice/start", h.VoiceStart)
	r.Post("/voice/stop", h.VoiceStop)
	r.Get("/voice/state", h.VoiceState)
	r.Post("/voice/utterance", h.Utterance)
	r.Post("/voice/command", h.Command)
	r.Get("/voice/commands", h.Commands)

	r.Get("/qr", h.QR)
	r.Post("/summary", h.Summary)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
