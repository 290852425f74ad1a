package api

import (
	"net/http"
	"strconv"

	"github.com/starford/fileexpo/internal/fileservice"
	"github.com/starford/fileexpo/internal/qrcode"
)

// QR handles GET /api/qr?path=&mode=path|content and answers with a PNG.
// The X-QR-Mode header reports what the code carries, since content mode
// falls back to the path for large or binary files.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	if !h.deps.Capabilities.QR || h.deps.QR == nil {
		notConfigured(w)
		return
	}
	p, err := fileservice.Normalize(r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "qr", err)
		return
	}
	mode := qrcode.Mode(r.URL.Query().Get("mode"))
	switch mode {
	case "":
		mode = qrcode.ModePath
	case qrcode.ModePath, qrcode.ModeContent:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be 'path' or 'content'"))
		return
	}

	img, used, err := h.deps.QR.ForFile(p, mode)
	if err != nil {
		writeError(w, "qr", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("X-QR-Mode", string(used))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// Summary handles POST /api/summary. The summary is produced in the
// background and delivered as a summary.ready or summary.failed event
// carrying the returned job ID.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if !h.deps.Capabilities.AI || h.deps.Summaries == nil {
		notConfigured(w)
		return
	}
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := fileservice.Normalize(req.Path)
	if err != nil {
		writeError(w, "summary", err)
		return
	}
	id, err := h.deps.Summaries.Submit(p)
	if err != nil {
		writeError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{JobID: id, Path: p})
}
