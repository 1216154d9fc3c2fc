package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quizparty/internal/config"
	"quizparty/internal/events"
	"quizparty/internal/game"
)

var ErrClosed = errors.New("orchestrator is shut down")

// Registry is the session storage the orchestrator drives
type Registry interface {
	CreateSession(hostConnID string) (*game.Session, error)
	GetSession(code string) (*game.Session, bool)
	RemoveSession(code string) bool
}

// lane serializes every mutation of one session: commands from clients and
// timer callbacks alike run under mu, one at a time.
type lane struct {
	mu      sync.Mutex
	code    string
	session *game.Session
	timers  map[timerKind]*timerHandle
	closed  bool
}

// Orchestrator drives sessions through their phases. It applies client
// commands, arms the phase deadlines and publishes the resulting events.
// Sessions are looked up in the registry; lanes only hold the lock and the
// timers of a registered session.
type Orchestrator struct {
	registry Registry
	clock    clockwork.Clock
	settings config.GameSettings
	pub      events.Publisher
	log      zerolog.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
}

// New creates an orchestrator. Use clockwork.NewRealClock() in production
// and a fake clock in tests.
func New(registry Registry, clock clockwork.Clock, settings config.GameSettings, pub events.Publisher, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		clock:    clock,
		settings: settings,
		pub:      pub,
		log:      logger.With().Str("component", "orchestrator").Logger(),
		lanes:    make(map[string]*lane),
	}
}

// CreateSession opens a new lobby hosted by hostConnID and returns its code
func (o *Orchestrator) CreateSession(ctx context.Context, hostConnID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", ErrClosed
	}
	session, err := o.registry.CreateSession(hostConnID)
	if err != nil {
		o.mu.Unlock()
		return "", err
	}
	l := newLane(session)
	o.lanes[session.Code] = l
	o.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	o.log.Info().Str("code", session.Code).Str("host", hostConnID).Msg("session created")
	o.pub.Publish(events.New(events.TypeGameCreated, session.Code, map[string]string{"gameId": session.Code}).To(hostConnID))
	o.broadcastState(l)
	return session.Code, nil
}

// Dispatch applies one command to a session. Stale or duplicate commands
// are dropped without error.
func (o *Orchestrator) Dispatch(ctx context.Context, code string, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l, err := o.lane(code)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return game.ErrSessionNotFound
	}

	err = cmd.apply(o, l)
	if err != nil && game.IsSilent(err) {
		o.log.Debug().Err(err).Str("code", l.code).Str("command", cmd.name()).Msg("command dropped")
		return nil
	}
	return err
}

// Snapshot returns the public state of a session
func (o *Orchestrator) Snapshot(code string) (game.PublicState, error) {
	l, err := o.lane(code)
	if err != nil {
		return game.PublicState{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return game.PublicState{}, game.ErrSessionNotFound
	}
	return l.session.PublicState(), nil
}

// CloseSession stops a session's timers, tells its clients and forgets it
func (o *Orchestrator) CloseSession(code string) error {
	o.mu.Lock()
	l, err := o.laneLocked(code)
	if err == nil {
		o.registry.RemoveSession(l.code)
		delete(o.lanes, l.code)
	}
	o.mu.Unlock()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	o.cancelAll(l)
	l.closed = true
	o.pub.Publish(events.New(events.TypeSessionClosed, l.code, map[string]string{"gameId": l.code}))

	o.log.Info().Str("code", l.code).Msg("session closed")
	return nil
}

// Shutdown stops every timer and rejects further commands
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	lanes := make([]*lane, 0, len(o.lanes))
	for _, l := range o.lanes {
		lanes = append(lanes, l)
	}
	o.mu.Unlock()

	for _, l := range lanes {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.mu.Lock()
		o.cancelAll(l)
		l.closed = true
		l.mu.Unlock()
	}

	o.log.Info().Int("sessions", len(lanes)).Msg("orchestrator stopped")
	return nil
}

// Sessions returns the number of sessions being driven
func (o *Orchestrator) Sessions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lanes)
}

func newLane(session *game.Session) *lane {
	return &lane{
		code:    session.Code,
		session: session,
		timers:  make(map[timerKind]*timerHandle),
	}
}

func (o *Orchestrator) lane(code string) (*lane, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.laneLocked(code)
}

// laneLocked resolves code through the registry and returns the lane of that
// session, creating it for sessions registered elsewhere. Callers must hold
// o.mu.
func (o *Orchestrator) laneLocked(code string) (*lane, error) {
	if o.closed {
		return nil, ErrClosed
	}
	session, ok := o.registry.GetSession(code)
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	l, ok := o.lanes[session.Code]
	if !ok || l.session != session {
		l = newLane(session)
		o.lanes[session.Code] = l
	}
	return l, nil
}

func (o *Orchestrator) broadcastState(l *lane) {
	o.pub.Publish(events.New(events.TypeGameState, l.code, l.session.PublicState()))
}
