package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"quizparty/internal/events"
	"quizparty/internal/game"
	"quizparty/internal/orchestrator"
)

const commandTimeout = 5 * time.Second

// ServeWS upgrades to a websocket that speaks the game protocol
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Serve(w, r, h); err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
	}
}

// HandleMessage applies one client message
func (h *Handler) HandleMessage(c *Connection, data []byte) {
	env, err := parseEnvelope(data)
	if err != nil {
		h.log.Debug().Err(err).Str("conn", c.ID).Msg("rejected message")
		h.sendError(c, "Invalid message")
		return
	}

	if env.Type == verbPing {
		c.Send(events.New(events.TypePong, "", map[string]any{
			"message": "pong",
			"time":    time.Now().UTC(),
		}))
		return
	}

	if !c.Allow() {
		h.sendError(c, "Too many requests, slow down")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch env.Type {
	case verbCreateGame:
		h.createGame(ctx, c)
	case verbJoinGame:
		h.joinGame(ctx, c, env)
	default:
		h.sessionCommand(ctx, c, env)
	}
}

// HandleClose reports the lost connection to its session
func (h *Handler) HandleClose(c *Connection) {
	code := h.hub.Session(c)
	if code == "" {
		return
	}
	err := h.engine.Dispatch(context.Background(), code, orchestrator.Disconnect{ConnID: c.ID})
	if err != nil && !errors.Is(err, game.ErrSessionNotFound) && !errors.Is(err, orchestrator.ErrClosed) {
		h.log.Warn().Err(err).Str("code", code).Str("conn", c.ID).Msg("disconnect failed")
	}
}

func (h *Handler) createGame(ctx context.Context, c *Connection) {
	code, err := h.engine.CreateSession(ctx, c.ID)
	if err != nil {
		h.log.Error().Err(err).Str("conn", c.ID).Msg("failed to create session")
		h.sendError(c, game.Message(err))
		return
	}
	previous := h.hub.Session(c)
	h.hub.Follow(c, code)
	if previous != "" {
		h.leave(ctx, c, previous)
	}

	// The initial broadcast went out before this connection followed the
	// session, so the host gets its own copy.
	if st, err := h.engine.Snapshot(code); err == nil {
		c.Send(events.New(events.TypeGameState, code, st))
	}
}

func (h *Handler) joinGame(ctx context.Context, c *Connection, env envelope) {
	p, err := parseJoin(env)
	if err != nil {
		h.sendError(c, "Invalid message")
		return
	}
	code := strings.ToUpper(p.GameID)

	previous := h.hub.Session(c)
	h.hub.Follow(c, code)

	err = h.engine.Dispatch(ctx, code, orchestrator.Join{ConnID: c.ID, PlayerID: p.PlayerID})
	if err == nil {
		if previous != "" && previous != code {
			h.leave(ctx, c, previous)
		}
		return
	}
	if previous != code {
		if previous != "" {
			h.hub.Follow(c, previous)
		} else {
			h.hub.Unfollow(c)
		}
	}
	h.sendError(c, game.Message(err))
}

// leave disconnects c from a session it no longer follows, so that session
// stops counting it as connected
func (h *Handler) leave(ctx context.Context, c *Connection, code string) {
	err := h.engine.Dispatch(ctx, code, orchestrator.Disconnect{ConnID: c.ID})
	if err != nil && !errors.Is(err, game.ErrSessionNotFound) {
		h.log.Warn().Err(err).Str("code", code).Str("conn", c.ID).Msg("failed to leave previous session")
	}
}

func (h *Handler) sessionCommand(ctx context.Context, c *Connection, env envelope) {
	cmd, err := toCommand(c.ID, env)
	if err != nil {
		h.log.Debug().Err(err).Str("conn", c.ID).Msg("rejected message")
		h.sendError(c, "Invalid message")
		return
	}

	code := h.hub.Session(c)
	if code == "" {
		h.sendError(c, game.Message(game.ErrSessionNotFound))
		return
	}

	if err := h.engine.Dispatch(ctx, code, cmd); err != nil {
		h.sendError(c, game.Message(err))
	}
}

func (h *Handler) sendError(c *Connection, message string) {
	c.Send(events.New(events.TypeError, "", events.ErrorPayload{Message: message}))
}
