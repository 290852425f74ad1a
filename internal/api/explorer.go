package api

import (
	"context"
	"net/http"
	"time"

	"github.com/starford/fileexpo/internal/explorer"
)

func (h *Handler) writeState(w http.ResponseWriter, r *http.Request, status int) {
	snap, err := h.deps.Explorer.State(r.Context())
	if err != nil {
		writeError(w, "explorer state", err)
		return
	}
	writeJSON(w, status, snap)
}

// ExplorerState handles GET /api/explorer.
//
//	@Summary		Current directory, history, selection and bookmarks
//	@Tags			explorer
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Security		BearerAuth
//	@Router			/explorer [get]
func (h *Handler) ExplorerState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, r, http.StatusOK)
}

// Entries handles GET /api/explorer/entries.
//
//	@Summary		List the current directory
//	@Tags			explorer
//	@Produce		json
//	@Param			sort	query		string	false	"Order"	Enums(name, type, size, date)
//	@Success		200		{object}	ListingResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/explorer/entries [get]
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	key, err := explorer.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, "list", err)
		return
	}
	cwd, err := h.deps.Explorer.Cwd(r.Context())
	if err != nil {
		writeError(w, "list", err)
		return
	}
	entries, err := h.deps.Explorer.List(r.Context(), key)
	if err != nil {
		writeError(w, "list", err)
		return
	}
	now := time.Now()
	out := make([]EntryDTO, len(entries))
	for i, e := range entries {
		out[i] = EntryDTO{Entry: e, DateText: explorer.FormatDate(e.ModTime, now)}
		if !e.IsDir {
			out[i].SizeText = explorer.FormatSize(e.Size)
		}
	}
	writeJSON(w, http.StatusOK, ListingResponse{Cwd: cwd, Entries: out})
}

// Navigate handles POST /api/explorer/navigate.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.deps.Explorer.Navigate(r.Context(), req.Path); err != nil {
		writeError(w, "navigate", err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// step adapts a history move to a handler that answers with the new state.
func (h *Handler) step(op string, fn func(*explorer.Explorer, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(h.deps.Explorer, r.Context()); err != nil {
			writeError(w, op, err)
			return
		}
		h.writeState(w, r, http.StatusOK)
	}
}

// Select handles POST /api/explorer/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		selected []string
		err      error
	)
	if req.All {
		selected, err = h.deps.Explorer.SelectAll(r.Context())
	} else {
		selected, err = h.deps.Explorer.Select(r.Context(), req.Names...)
	}
	if err != nil {
		writeError(w, "select", err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: selected})
}

// CreateFile handles POST /api/explorer/files.
//
//	@Summary		Create an empty file in the current directory
//	@Tags			explorer
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NameRequest	true	"File name"
//	@Success		201		{object}	PathRequest
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/explorer/files [post]
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.deps.Explorer.CreateFile(r.Context(), req.Name)
	if err != nil {
		writeError(w, "create file", err)
		return
	}
	writeJSON(w, http.StatusCreated, PathRequest{Path: p})
}

// CreateFolder handles POST /api/explorer/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.deps.Explorer.MakeDir(r.Context(), req.Name)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, PathRequest{Path: p})
}

// Open handles POST /api/explorer/open.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.deps.Explorer.Open(r.Context(), req.Name)
	if err != nil {
		writeError(w, "open", err)
		return
	}
	writeJSON(w, http.StatusOK, PathRequest{Path: p})
}

// Delete handles POST /api/explorer/delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.deps.Explorer.DeleteSelection(r.Context())
	if err != nil {
		writeError(w, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: deleted})
}

// Rename handles POST /api/explorer/rename.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.deps.Explorer.RenameSelection(r.Context(), req.Name)
	if err != nil {
		writeError(w, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, PathRequest{Path: p})
}

// Copy handles POST /api/explorer/copy.
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	if _, err := h.deps.Explorer.Copy(r.Context()); err != nil {
		writeError(w, "copy", err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// Cut handles POST /api/explorer/cut.
func (h *Handler) Cut(w http.ResponseWriter, r *http.Request) {
	if _, err := h.deps.Explorer.Cut(r.Context()); err != nil {
		writeError(w, "cut", err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// Paste handles POST /api/explorer/paste.
func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	var req PasteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pasted, err := h.deps.Explorer.Paste(r.Context(), req.Overwrite)
	if err != nil {
		writeError(w, "paste", err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: pasted})
}

// Bookmarks handles GET /api/bookmarks.
func (h *Handler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	bms, err := h.deps.Explorer.Bookmarks(r.Context())
	if err != nil {
		writeError(w, "bookmarks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": bms})
}

// AddBookmark handles POST /api/bookmarks.
func (h *Handler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	var req BookmarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bm, err := h.deps.Explorer.AddBookmark(r.Context(), req.Name, req.Path)
	if err != nil {
		writeError(w, "add bookmark", err)
		return
	}
	writeJSON(w, http.StatusCreated, bm)
}

// RemoveBookmark handles DELETE /api/bookmarks?path=.
func (h *Handler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Explorer.RemoveBookmark(r.Context(), r.URL.Query().Get("path")); err != nil {
		writeError(w, "remove bookmark", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
