package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"quizparty/internal/game"
)

func sessionCode(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "code"))
}

// GetSession returns the public state of a session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Snapshot(sessionCode(r))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteSession tears a session down
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	code := sessionCode(r)
	if err := h.engine.CloseSession(code); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.log.Info().Str("code", code).Msg("session deleted via API")
	w.WriteHeader(http.StatusNoContent)
}

// SessionQR serves a PNG QR code with the session's join link
func (h *Handler) SessionQR(w http.ResponseWriter, r *http.Request) {
	code := sessionCode(r)
	if _, err := h.engine.Snapshot(code); err != nil {
		h.writeEngineError(w, err)
		return
	}

	png, err := generateQRCode(h.joinURL(r, code))
	if err != nil {
		h.log.Error().Err(err).Str("code", code).Msg("failed to generate QR code")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, game.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	h.log.Error().Err(err).Msg("engine error")
	writeError(w, http.StatusInternalServerError, err)
}
