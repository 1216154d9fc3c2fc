package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBank is an in-memory QuestionSource for tests
type fakeBank struct {
	order []string
	data  map[string][]Question
}

func (b *fakeBank) Categories() []string { return b.order }

func (b *fakeBank) Questions(category string) []Question { return b.data[category] }

// newFakeBank builds a bank where every question's correct option is 1
func newFakeBank(perCategory int, categories ...string) *fakeBank {
	b := &fakeBank{order: categories, data: make(map[string][]Question)}
	for _, c := range categories {
		for i := 0; i < perCategory; i++ {
			b.data[c] = append(b.data[c], Question{
				Prompt:       fmt.Sprintf("%s question %d", c, i),
				Answers:      []string{"a", "b", "c", "d"},
				CorrectIndex: 1,
			})
		}
	}
	return b
}

func testRules() Rules {
	r := DefaultRules()
	r.MaxPlayers = 4
	return r
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	bank := newFakeBank(6, "History", "Science", "Geography")
	return NewSession("ABCD", "host", testRules(), bank, rand.New(rand.NewPCG(1, 2)))
}

// joinN joins n players on connections c1..cn and returns them in order
func joinN(t *testing.T, s *Session, n int) []*Player {
	t.Helper()
	players := make([]*Player, 0, n)
	for i := 1; i <= n; i++ {
		p, reconnected, err := s.Join(fmt.Sprintf("c%d", i), "")
		require.NoError(t, err)
		require.False(t, reconnected)
		players = append(players, p)
	}
	return players
}

// startedSession returns a session in the voting phase of round one
func startedSession(t *testing.T, n int) (*Session, []*Player) {
	t.Helper()
	s := newTestSession(t)
	players := joinN(t, s, n)
	require.NoError(t, s.Start())
	return s, players
}

// toFirstQuestion votes History unanimously and shows the first question
func toFirstQuestion(t *testing.T, s *Session, players []*Player, now time.Time) {
	t.Helper()
	playCategory(t, s, players, "History", now)
}

// playCategory votes category unanimously and shows the round's first question
func playCategory(t *testing.T, s *Session, players []*Player, category string, now time.Time) {
	t.Helper()
	for _, p := range players {
		require.NoError(t, s.SubmitVote(p.ID, category))
	}
	winner, err := s.EndVoting()
	require.NoError(t, err)
	require.Equal(t, category, winner)
	roundOver, err := s.NextQuestion(now)
	require.NoError(t, err)
	require.False(t, roundOver)
}

// finishRound reveals and skips every remaining question, ending in ranking
func finishRound(t *testing.T, s *Session, now time.Time) {
	t.Helper()
	for s.Phase() != PhaseRanking {
		if s.Phase() == PhaseQuestion && !s.Revealed() {
			_, err := s.Reveal()
			require.NoError(t, err)
		}
		_, err := s.NextQuestion(now)
		require.NoError(t, err)
	}
}
