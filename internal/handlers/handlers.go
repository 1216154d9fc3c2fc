package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"quizparty/internal/config"
	"quizparty/internal/events"
	"quizparty/internal/game"
	"quizparty/internal/orchestrator"
)

// Engine is the session engine the transport drives
type Engine interface {
	CreateSession(ctx context.Context, hostConnID string) (string, error)
	Dispatch(ctx context.Context, code string, cmd orchestrator.Command) error
	Snapshot(code string) (game.PublicState, error)
	CloseSession(code string) error
	Sessions() int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	engine Engine
	hub    *Hub
	bus    *events.Bus
	cfg    *config.Config
	log    zerolog.Logger
}

// New creates a new handler
func New(engine Engine, hub *Hub, bus *events.Bus, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		hub:    hub,
		bus:    bus,
		cfg:    cfg,
		log:    logger.With().Str("component", "handlers").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, events.ErrorPayload{Message: game.Message(err)})
}
