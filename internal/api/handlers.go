package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/fileexpo/internal/ai"
	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/explorer"
	"github.com/starford/fileexpo/internal/fileservice"
	"github.com/starford/fileexpo/internal/models"
	"github.com/starford/fileexpo/internal/qrcode"
	"github.com/starford/fileexpo/internal/voice"
)

// Deps are the services behind the API. Optional features may be nil; the
// matching routes then answer 503.
type Deps struct {
	Files        *fileservice.Service
	Explorer     *explorer.Explorer
	Assistant    *voice.Assistant
	Recognizer   *voice.QueueRecognizer
	Destinations []voice.Destination
	Summaries    *ai.Jobs
	QR           *qrcode.Encoder
	Capabilities models.Capabilities
}

// Handler holds API route handlers.
type Handler struct {
	deps Deps
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func notConfigured(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody(apperr.ErrNotConfigured.Error()))
}

// Capabilities handles GET /api/capabilities.
//
//	@Summary		Optional features available in this process
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	models.Capabilities
//	@Router			/capabilities [get]
func (h *Handler) Capabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Capabilities)
}

// FileInfo handles GET /api/files/info?path=.
func (h *Handler) FileInfo(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.Files.Details(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "file info", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// MostAccessed handles GET /api/usage/top?n=.
//
//	@Summary		Most accessed files
//	@Tags			usage
//	@Produce		json
//	@Param			n	query	int	false	"Number of entries"
//	@Success		200	{array}	usage.Entry
//	@Security		BearerAuth
//	@Router			/usage/top [get]
func (h *Handler) MostAccessed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Files.MostAccessed(r.Context(), queryInt(r, "n")))
}

// RecentlyAccessed handles GET /api/usage/recent?n=.
//
//	@Summary		Recently accessed files
//	@Tags			usage
//	@Produce		json
//	@Param			n	query	int	false	"Number of entries"
//	@Success		200	{array}	usage.Entry
//	@Security		BearerAuth
//	@Router			/usage/recent [get]
func (h *Handler) RecentlyAccessed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Files.RecentlyAccessed(r.Context(), queryInt(r, "n")))
}

// UsageStats handles GET /api/usage/stats?path=.
func (h *Handler) UsageStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Files.Stats(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "usage stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// AllTags handles GET /api/tags.
func (h *Handler) AllTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": h.deps.Files.AllTags(r.Context())})
}

// FilesForTag handles GET /api/tags/files?tag=.
func (h *Handler) FilesForTag(w http.ResponseWriter, r *http.Request) {
	paths, err := h.deps.Files.PathsForTag(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, "files for tag", err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: paths})
}

// TagsForFile handles GET /api/tags/file?path=.
func (h *Handler) TagsForFile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.deps.Files.TagsFor(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "tags for file", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddTag handles POST /api/tags.
//
//	@Summary		Attach a tag to a file
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TagRequest	true	"Path and tag"
//	@Success		201		{object}	fileservice.TagsResponse
//	@Success		200		{object}	fileservice.TagsResponse	"Tag already present"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags [post]
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	added, err := h.deps.Files.AddTag(r.Context(), req.Path, req.Tag)
	if err != nil {
		writeError(w, "add tag", err)
		return
	}
	resp, err := h.deps.Files.TagsFor(r.Context(), req.Path)
	if err != nil {
		writeError(w, "add tag", err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// RemoveTag handles DELETE /api/tags.
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	removed, err := h.deps.Files.RemoveTag(r.Context(), req.Path, req.Tag)
	if err != nil {
		writeError(w, "remove tag", err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorBody("tag not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AutoTag handles POST /api/tags/auto.
func (h *Handler) AutoTag(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tags, err := h.deps.Files.AutoTag(r.Context(), req.Path)
	if err != nil {
		writeError(w, "auto tag", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": req.Path, "auto_tags": tags})
}

// CheckIntegrity handles POST /api/integrity/check.
//
//	@Summary		Compare a file against its stored digest
//	@Tags			integrity
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PathRequest	true	"File path"
//	@Success		200		{object}	integrity.Result
//	@Security		BearerAuth
//	@Router			/integrity/check [post]
func (h *Handler) CheckIntegrity(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.deps.Files.CheckIntegrity(r.Context(), req.Path)
	if err != nil {
		writeError(w, "integrity check", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Rebaseline handles POST /api/integrity/rebaseline.
func (h *Handler) Rebaseline(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.deps.Files.Rebaseline(r.Context(), req.Path)
	if err != nil {
		writeError(w, "integrity rebaseline", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Problems handles GET /api/integrity/problems?path=.
func (h *Handler) Problems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.deps.Files.Problems(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "integrity problems", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"problems": problems})
}

// Verify handles GET /api/integrity/verify?dir=.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Files.VerifyDirectory(r.Context(), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, "integrity verify", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Health handles GET /api/integrity/health?path=.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Files.Health(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "integrity health", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Search handles GET /api/search.
//
//	@Summary		Search file names below the current directory and by tag
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.deps.Explorer.Search(r.Context(), q)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}
