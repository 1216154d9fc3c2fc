package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"quizparty/internal/config"
	"quizparty/internal/events"
	"quizparty/internal/game"
	"quizparty/internal/store"
)

type testBank struct {
	order []string
	data  map[string][]game.Question
}

func (b *testBank) Categories() []string { return b.order }

func (b *testBank) Questions(category string) []game.Question { return b.data[category] }

// newTestBank builds three categories of five questions; option 1 is always correct
func newTestBank() *testBank {
	b := &testBank{order: []string{"History", "Science", "Geography"}, data: map[string][]game.Question{}}
	for _, c := range b.order {
		for i := 0; i < 5; i++ {
			b.data[c] = append(b.data[c], game.Question{
				Prompt:       fmt.Sprintf("%s %d", c, i),
				Answers:      []string{"a", "b", "c", "d"},
				CorrectIndex: 1,
			})
		}
	}
	return b
}

// recorder captures published events
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(eventType string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count(eventType string) int { return len(r.ofType(eventType)) }

type harness struct {
	o        *Orchestrator
	clock    *clockwork.FakeClock
	rec      *recorder
	registry *store.MemoryStore
	ctx      context.Context
}

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, config.DefaultGameSettings(), newTestBank())
}

func newHarnessWith(t *testing.T, settings config.GameSettings, bank game.QuestionSource) *harness {
	t.Helper()
	registry := store.NewMemoryStore(settings, bank)
	clock := clockwork.NewFakeClockAt(epoch)
	rec := &recorder{}
	o := New(registry, clock, settings, rec, zerolog.Nop())
	t.Cleanup(func() { o.Shutdown(context.Background()) })
	return &harness{o: o, clock: clock, rec: rec, registry: registry, ctx: context.Background()}
}

func (h *harness) dispatch(t *testing.T, code string, cmd Command) {
	t.Helper()
	require.NoError(t, h.o.Dispatch(h.ctx, code, cmd))
}

func (h *harness) state(t *testing.T, code string) game.PublicState {
	t.Helper()
	st, err := h.o.Snapshot(code)
	require.NoError(t, err)
	return st
}

// join connects a new player on connID and returns it
func (h *harness) join(t *testing.T, code, connID string) game.Player {
	t.Helper()
	h.dispatch(t, code, Join{ConnID: connID})
	joined := h.rec.ofType(events.TypePlayerJoined)
	require.NotEmpty(t, joined)
	last := joined[len(joined)-1]
	require.Equal(t, connID, last.ConnID)
	return last.Payload.(game.Player)
}

// lobby creates a session with n players on connections c1..cn
func (h *harness) lobby(t *testing.T, n int) (string, []game.Player) {
	t.Helper()
	code, err := h.o.CreateSession(h.ctx, "host")
	require.NoError(t, err)
	players := make([]game.Player, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, h.join(t, code, conn(i)))
	}
	return code, players
}

// started returns a session in round one's voting phase
func (h *harness) started(t *testing.T, n int) (string, []game.Player) {
	t.Helper()
	code, players := h.lobby(t, n)
	h.dispatch(t, code, StartGame{ConnID: "host"})
	require.Equal(t, game.PhaseVoting, h.state(t, code).Status)
	return code, players
}

// toQuestion votes category unanimously and skips the intro
func (h *harness) toQuestion(t *testing.T, code string, n int, category string) {
	t.Helper()
	for i := 1; i <= n; i++ {
		h.dispatch(t, code, SubmitVote{ConnID: conn(i), Category: category})
	}
	require.Equal(t, game.PhaseRoundIntro, h.state(t, code).Status)
	h.dispatch(t, code, NextQuestion{ConnID: "host"})
	require.Equal(t, game.PhaseQuestion, h.state(t, code).Status)
}

// advance moves the fake clock and waits until cond holds
func (h *harness) advance(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	h.clock.Advance(d)
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func (h *harness) phaseIs(code string, phase game.Phase) func() bool {
	return func() bool {
		st, err := h.o.Snapshot(code)
		return err == nil && st.Status == phase
	}
}

func conn(i int) string { return fmt.Sprintf("c%d", i) }
