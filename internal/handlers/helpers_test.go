package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"quizparty"
	"quizparty/internal/config"
	"quizparty/internal/events"
	"quizparty/internal/orchestrator"
	"quizparty/internal/questions"
	"quizparty/internal/store"
)

// testEnv is the full server stack on an httptest server and a fake clock
type testEnv struct {
	cfg    *config.Config
	clock  *clockwork.FakeClock
	orch   *orchestrator.Orchestrator
	hub    *Hub
	bus    *events.Bus
	router *chi.Mux
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	bank, err := questions.Parse(quizparty.QuestionsYAML)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	bus := events.NewBus()
	hub := NewHub(DefaultConnectionConfig(), zerolog.Nop())
	orch := orchestrator.New(store.NewMemoryStore(cfg.Game, bank), clock, cfg.Game, events.Fanout{hub, bus}, zerolog.Nop())
	h := New(orch, hub, bus, cfg, zerolog.Nop())
	router := SetupRouter(h, &RouterOptions{DisableRateLimiting: true, DisableRequestLogger: true})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return &testEnv{cfg: cfg, clock: clock, orch: orch, hub: hub, bus: bus, router: router, server: server}
}

// wireEvent is an event as a client decodes it
type wireEvent struct {
	Type        string          `json:"type"`
	SessionCode string          `json:"sessionCode"`
	Payload     json.RawMessage `json:"payload"`
}

func (e wireEvent) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Payload, v))
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (env *testEnv) dial(t *testing.T) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(verb string, payload any) {
	c.t.Helper()
	msg := map[string]any{"type": verb}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *wsClient) next() wireEvent {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e wireEvent
	require.NoError(c.t, c.conn.ReadJSON(&e))
	return e
}

// await skips events until one of eventType arrives
func (c *wsClient) await(eventType string) wireEvent {
	c.t.Helper()
	for {
		if e := c.next(); e.Type == eventType {
			return e
		}
	}
}

// createGame creates a session from c and returns its code. It returns once
// the host's snapshot arrived, so c already follows the session.
func (c *wsClient) createGame() string {
	c.t.Helper()
	c.send(verbCreateGame, nil)
	var created struct {
		GameID string `json:"gameId"`
	}
	c.await(events.TypeGameCreated).decode(c.t, &created)
	require.NotEmpty(c.t, created.GameID)
	c.await(events.TypeGameState)
	return created.GameID
}

// createSession opens a session hosted by a fresh connection
func (env *testEnv) createSession(t *testing.T) string {
	t.Helper()
	return env.dial(t).createGame()
}
