package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizparty/internal/events"
	"quizparty/internal/game"
)

func (env *testEnv) request(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGetSession(t *testing.T) {
	env := newTestEnv(t)
	host := env.dial(t)
	code := host.createGame()

	w := env.request(http.MethodGet, "/api/sessions/"+strings.ToLower(code))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var st game.PublicState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, code, st.GameID)
	assert.Equal(t, game.PhaseLobby, st.Status)
	assert.Nil(t, st.CurrentQuestion)
}

func TestGetSession_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodGet, "/api/sessions/ZZZZ")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var p events.ErrorPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Game does not exist", p.Message)
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t)
	host := env.dial(t)
	code := host.createGame()

	w := env.request(http.MethodDelete, "/api/sessions/"+code)
	assert.Equal(t, http.StatusNoContent, w.Code)

	host.await(events.TypeSessionClosed)

	assert.Equal(t, http.StatusNotFound, env.request(http.MethodGet, "/api/sessions/"+code).Code)
	assert.Equal(t, http.StatusNotFound, env.request(http.MethodDelete, "/api/sessions/"+code).Code)
}

func TestSessionQR(t *testing.T) {
	env := newTestEnv(t)
	host := env.dial(t)
	code := host.createGame()

	w := env.request(http.MethodGet, "/api/sessions/"+code+"/qr")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")), "body is a PNG")

	assert.Equal(t, http.StatusNotFound, env.request(http.MethodGet, "/api/sessions/ZZZZ/qr").Code)
}

func TestJoinURL(t *testing.T) {
	env := newTestEnv(t)
	h := New(env.orch, env.hub, env.bus, env.cfg, zerolog.Nop())

	r := httptest.NewRequest(http.MethodGet, "/api/sessions/ABCD/qr", nil)
	r.Host = "quiz.local:8080"
	assert.Equal(t, "http://quiz.local:8080/join/ABCD", h.joinURL(r, "ABCD"))

	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "quiz.example.com")
	assert.Equal(t, "https://quiz.example.com/join/ABCD", h.joinURL(r, "ABCD"))

	env.cfg.Server.PublicURL = "https://play.example.com/"
	assert.Equal(t, "https://play.example.com/join/ABCD", h.joinURL(r, "ABCD"))
}
