package api

import (
	"net/http"
	"strings"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/voice"
)

func (h *Handler) voiceState() VoiceStateResponse {
	resp := VoiceStateResponse{State: string(h.deps.Assistant.State())}
	if h.deps.Recognizer != nil {
		resp.Pending = h.deps.Recognizer.Pending()
	}
	return resp
}

// listening reports whether speech input is available, answering 503
// otherwise.
func (h *Handler) listening(w http.ResponseWriter) bool {
	if !h.deps.Capabilities.Voice || h.deps.Assistant == nil || h.deps.Recognizer == nil {
		notConfigured(w)
		return false
	}
	return true
}

// VoiceStart handles POST /api/voice/start.
//
//	@Summary		Start listening for voice commands
//	@Tags			voice
//	@Produce		json
//	@Success		200	{object}	VoiceStateResponse
//	@Failure		409	{object}	errResponse	"Already listening"
//	@Failure		503	{object}	errResponse	"Voice input not configured"
//	@Security		BearerAuth
//	@Router			/voice/start [post]
func (h *Handler) VoiceStart(w http.ResponseWriter, _ *http.Request) {
	if !h.listening(w) {
		return
	}
	if err := h.deps.Assistant.Start(); err != nil {
		writeError(w, "voice start", err)
		return
	}
	writeJSON(w, http.StatusOK, h.voiceState())
}

// VoiceStop handles POST /api/voice/stop.
func (h *Handler) VoiceStop(w http.ResponseWriter, _ *http.Request) {
	if !h.listening(w) {
		return
	}
	h.deps.Assistant.Stop()
	writeJSON(w, http.StatusOK, h.voiceState())
}

// VoiceState handles GET /api/voice/state.
func (h *Handler) VoiceState(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Assistant == nil {
		notConfigured(w)
		return
	}
	writeJSON(w, http.StatusOK, h.voiceState())
}

// Utterance handles POST /api/voice/utterance. The text is queued for the
// listening loop as if it had been heard.
func (h *Handler) Utterance(w http.ResponseWriter, r *http.Request) {
	if !h.listening(w) {
		return
	}
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.deps.Assistant.State() != voice.StateListening {
		writeJSON(w, http.StatusConflict, errorBody("voice assistant is not listening"))
		return
	}
	if err := h.deps.Recognizer.Submit(req.Text); err != nil {
		writeError(w, "voice utterance", err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.voiceState())
}

// Command handles POST /api/voice/command: a typed command runs through the
// same dispatcher as speech and the outcome is returned directly.
//
//	@Summary		Run a typed command
//	@Tags			voice
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TextRequest	true	"Command text"
//	@Success		200		{object}	voice.Outcome
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/voice/command [post]
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	if h.deps.Assistant == nil {
		notConfigured(w)
		return
	}
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, "voice command", apperr.ErrInvalidName)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Assistant.Handle(r.Context(), req.Text))
}

// Commands handles GET /api/voice/commands.
func (h *Handler) Commands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"commands":     voice.Commands(),
		"destinations": h.deps.Destinations,
	})
}
