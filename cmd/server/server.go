package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quizparty"
	"quizparty/internal/config"
	"quizparty/internal/events"
	"quizparty/internal/handlers"
	"quizparty/internal/orchestrator"
	"quizparty/internal/questions"
	"quizparty/internal/store"
)

// App is the wired server: engine, transports and router
type App struct {
	Handler http.Handler

	orch *orchestrator.Orchestrator
	hub  *handlers.Hub
	nats *events.NATSPublisher
	log  zerolog.Logger
}

// NewApp builds every component from cfg
func NewApp(cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) (*App, error) {
	bank, err := loadBank(cfg)
	if err != nil {
		return nil, err
	}

	connCfg := handlers.DefaultConnectionConfig()
	connCfg.CommandRate = cfg.Server.CommandRate
	connCfg.CommandBurst = cfg.Server.CommandBurst
	connCfg.CheckOrigin = originChecker(cfg.Server.AllowedOrigins)
	hub := handlers.NewHub(connCfg, logger)

	bus := events.NewBus()
	publishers := events.Fanout{hub, bus}

	var natsPub *events.NATSPublisher
	if cfg.Events.NATSURL != "" {
		natsPub, err = events.ConnectNATS(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, natsPub)
		logger.Info().Str("url", cfg.Events.NATSURL).Msg("mirroring session events to NATS")
	}

	sessions := store.NewMemoryStore(cfg.Game, bank)
	orch := orchestrator.New(sessions, clock, cfg.Game, publishers, logger)
	h := handlers.New(orch, hub, bus, cfg, logger)

	return &App{
		Handler: handlers.SetupRouter(h, nil),
		orch:    orch,
		hub:     hub,
		nats:    natsPub,
		log:     logger,
	}, nil
}

// Shutdown stops timers, then hangs up clients and the NATS connection
func (a *App) Shutdown(ctx context.Context) error {
	err := a.orch.Shutdown(ctx)
	a.hub.Close()
	if a.nats != nil {
		a.nats.Close()
	}
	return err
}

// loadBank reads the configured question file, or the embedded default
func loadBank(cfg *config.Config) (*questions.Bank, error) {
	var (
		bank *questions.Bank
		err  error
	)
	if cfg.Questions.Path != "" {
		bank, err = questions.LoadFile(cfg.Questions.Path)
	} else {
		bank, err = questions.Parse(quizparty.QuestionsYAML)
	}
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	if err := bank.CheckCapacity(cfg.Game.TotalRounds, cfg.Game.QuestionsPerRound); err != nil {
		return nil, err
	}
	return bank, nil
}

// originChecker accepts websocket upgrades from the allowed origins. "*"
// allows any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
