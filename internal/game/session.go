package game

import (
	"math/rand/v2"
	"sort"
	"time"
)

// Phase is the position of a session in its state machine
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseVoting     Phase = "voting"
	PhaseRoundIntro Phase = "round_intro"
	PhaseQuestion   Phase = "question"
	PhaseRanking    Phase = "ranking"
	PhaseGameOver   Phase = "game_over"
)

// Rules are the per-session game parameters
type Rules struct {
	MaxPlayers        int
	MinPlayers        int
	TotalRounds       int
	QuestionsPerRound int
	QuestionDuration  time.Duration
	// AnswerGrace is added to QuestionDuration when deciding whether a
	// correct answer still scores.
	AnswerGrace time.Duration
	MaxPoints   int
}

// DefaultRules returns the standard party rules
func DefaultRules() Rules {
	return Rules{
		MaxPlayers:        10,
		MinPlayers:        2,
		TotalRounds:       3,
		QuestionsPerRound: 5,
		QuestionDuration:  10 * time.Second,
		AnswerGrace:       2 * time.Second,
		MaxPoints:         15,
	}
}

// Session owns all state of one game instance.
//
// A Session is not safe for concurrent use. The orchestrator runs every
// mutation for a given session as one serialized step.
type Session struct {
	Code       string
	HostConnID string

	rules Rules
	bank  QuestionSource
	rng   *rand.Rand

	players map[string]*Player
	phase   Phase
	round   int

	usedCategories map[string]bool
	category       string

	questions     []Question
	questionIndex int
	questionStart time.Time
	revealed      bool

	votes   map[string]string // player ID -> category
	answers map[string]int    // player ID -> option index
	ready   map[string]bool   // player IDs
}

// NewSession creates a session in the lobby. A nil rng is replaced by a
// randomly seeded source.
func NewSession(code, hostConnID string, rules Rules, bank QuestionSource, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Session{
		Code:           code,
		HostConnID:     hostConnID,
		rules:          rules,
		bank:           bank,
		rng:            rng,
		players:        make(map[string]*Player),
		phase:          PhaseLobby,
		usedCategories: make(map[string]bool),
		questionIndex:  -1,
		votes:          make(map[string]string),
		answers:        make(map[string]int),
		ready:          make(map[string]bool),
	}
}

func (s *Session) Phase() Phase { return s.phase }
func (s *Session) Round() int { return s.round }
func (s *Session) Category() string { return s.category }
func (s *Session) QuestionIndex() int { return s.questionIndex }
func (s *Session) Revealed() bool { return s.revealed }
func (s *Session) Rules() Rules { return s.rules }

// QuestionStart returns when the current question was shown
func (s *Session) QuestionStart() time.Time { return s.questionStart }

// CurrentQuestion returns the active question, if any
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.phase != PhaseQuestion || s.questionIndex < 0 || s.questionIndex >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.questionIndex], true
}

// QuestionCount returns how many questions were drawn for this round
func (s *Session) QuestionCount() int { return len(s.questions) }

// Player returns the player with the given identity
func (s *Session) Player(id string) (*Player, bool) {
	p, ok := s.players[id]
	return p, ok
}

// PlayerByConn returns the player bound to a transport connection
func (s *Session) PlayerByConn(connID string) (*Player, bool) {
	if connID == "" {
		return nil, false
	}
	for _, p := range s.players {
		if p.ConnID == connID {
			return p, true
		}
	}
	return nil, false
}

// Players returns copies of all players, highest score first
func (s *Session) Players() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ConnectedCount returns the number of currently connected players
func (s *Session) ConnectedCount() int {
	n := 0
	for _, p := range s.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// UsedCategories returns the categories already played, sorted
func (s *Session) UsedCategories() []string {
	out := make([]string, 0, len(s.usedCategories))
	for c := range s.usedCategories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// UnusedCategories returns the bank categories not yet played, in bank order
func (s *Session) UnusedCategories() []string {
	all := s.bank.Categories()
	out := make([]string, 0, len(all))
	for _, c := range all {
		if !s.usedCategories[c] {
			out = append(out, c)
		}
	}
	return out
}

// Join binds connID to a player. A known playerID reconnects that player
// without touching name or score; otherwise a new player is created, which is
// only allowed in the lobby and below capacity. A connection already bound to
// a connected player keeps that player.
func (s *Session) Join(connID, playerID string) (*Player, bool, error) {
	if p, ok := s.PlayerByConn(connID); ok && p.Connected {
		return p, true, nil
	}
	if playerID != "" {
		if p, ok := s.players[playerID]; ok {
			p.ConnID = connID
			p.Connected = true
			return p, true, nil
		}
	}

	if len(s.players) >= s.rules.MaxPlayers {
		return nil, false, ErrSessionFull
	}
	if s.phase != PhaseLobby {
		return nil, false, ErrSessionInProgress
	}

	p := NewPlayer(pickName(s.players, s.rng), connID)
	s.players[p.ID] = p
	return p, false, nil
}

// Disconnect marks the player bound to connID as disconnected. The player
// keeps their score and answers and can reconnect with their identity; an
// open vote is withdrawn.
func (s *Session) Disconnect(connID string) (*Player, bool) {
	p, ok := s.PlayerByConn(connID)
	if !ok || !p.Connected {
		return nil, false
	}
	p.Connected = false
	delete(s.votes, p.ID)
	return p, true
}

// RemovePlayer deletes a player and any vote, answer or readiness they left
func (s *Session) RemovePlayer(playerID string) bool {
	if _, ok := s.players[playerID]; !ok {
		return false
	}
	delete(s.players, playerID)
	delete(s.votes, playerID)
	delete(s.answers, playerID)
	delete(s.ready, playerID)
	return true
}

// Start leaves the lobby and opens voting for round one
func (s *Session) Start() error {
	if s.phase != PhaseLobby {
		return ErrInvalidTransition
	}
	if s.ConnectedCount() < s.rules.MinPlayers {
		return ErrInsufficientPlayers
	}
	s.round = 0
	s.usedCategories = make(map[string]bool)
	s.startNextRound()
	return nil
}

func (s *Session) startNextRound() {
	clear(s.ready)
	if s.round >= s.rules.TotalRounds {
		s.phase = PhaseGameOver
		return
	}
	s.round++
	s.phase = PhaseVoting
	s.category = ""
	s.questions = nil
	s.questionIndex = -1
	s.revealed = false
	clear(s.votes)
	clear(s.answers)
}

// SubmitVote records or replaces the player's category vote
func (s *Session) SubmitVote(playerID, category string) error {
	if s.phase != PhaseVoting {
		return ErrInvalidTransition
	}
	if _, ok := s.players[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if s.usedCategories[category] || s.bank.Questions(category) == nil {
		return ErrCategoryUnavailable
	}
	s.votes[playerID] = category
	return nil
}

// VoteCount returns how many votes are recorded this round
func (s *Session) VoteCount() int { return len(s.votes) }

// AllVoted reports whether every connected player has voted
func (s *Session) AllVoted() bool {
	return s.quorum(func(id string) bool {
		_, ok := s.votes[id]
		return ok
	})
}

// EndVoting tallies the votes, marks the winner used and draws its questions
func (s *Session) EndVoting() (string, error) {
	if s.phase != PhaseVoting {
		return "", ErrInvalidTransition
	}
	winner, err := PickCategory(s.votes, s.UnusedCategories(), s.rng)
	if err != nil {
		return "", err
	}

	s.category = winner
	s.usedCategories[winner] = true
	s.questions = drawQuestions(s.bank, winner, s.rules.QuestionsPerRound, s.rng)
	s.questionIndex = -1
	s.revealed = false
	s.phase = PhaseRoundIntro
	clear(s.ready)
	return winner, nil
}

// NextQuestion moves to the next question of the round, or to the ranking
// once the round's questions are exhausted. It reports whether the round
// ended.
func (s *Session) NextQuestion(now time.Time) (bool, error) {
	if s.phase != PhaseRoundIntro && !(s.phase == PhaseQuestion && s.revealed) {
		return false, ErrInvalidTransition
	}
	clear(s.ready)

	s.questionIndex++
	if s.questionIndex >= len(s.questions) {
		s.questionIndex = len(s.questions)
		s.phase = PhaseRanking
		return true, nil
	}

	s.phase = PhaseQuestion
	s.revealed = false
	clear(s.answers)
	s.questionStart = now
	return false, nil
}

// SubmitAnswer records the first answer of the player bound to connID and
// returns the points it earned.
func (s *Session) SubmitAnswer(connID string, answer int, now time.Time) (int, error) {
	q, ok := s.CurrentQuestion()
	if !ok || s.revealed {
		return 0, ErrInvalidTransition
	}
	p, ok := s.PlayerByConn(connID)
	if !ok {
		return 0, ErrUnknownPlayer
	}
	if _, done := s.answers[p.ID]; done {
		return 0, ErrAlreadyAnswered
	}
	if answer < 0 || answer >= len(q.Answers) {
		return 0, ErrInvalidAnswer
	}

	s.answers[p.ID] = answer
	if answer != q.CorrectIndex {
		return 0, nil
	}
	points := ScoreAnswer(now.Sub(s.questionStart), s.rules.QuestionDuration+s.rules.AnswerGrace, s.rules.MaxPoints)
	p.Score += points
	return points, nil
}

// AllAnswered reports whether every connected player answered
func (s *Session) AllAnswered() bool {
	return s.quorum(func(id string) bool {
		_, ok := s.answers[id]
		return ok
	})
}

// Reveal closes answering for the current question
func (s *Session) Reveal() (Reveal, error) {
	q, ok := s.CurrentQuestion()
	if !ok || s.revealed {
		return Reveal{}, ErrInvalidTransition
	}
	s.revealed = true
	clear(s.ready)
	return Reveal{
		CorrectAnswerIndex: q.CorrectIndex,
		AnswerDistribution: buildDistribution(s.answers, s.players, len(q.Answers)),
	}, nil
}

// AwaitingReady reports whether the session waits on ready acknowledgements
func (s *Session) AwaitingReady() bool {
	switch s.phase {
	case PhaseRoundIntro, PhaseRanking:
		return true
	case PhaseQuestion:
		return s.revealed
	}
	return false
}

// MarkReady records a ready acknowledgement and reports whether every
// connected player is now ready.
func (s *Session) MarkReady(playerID string) (bool, error) {
	if !s.AwaitingReady() {
		return false, ErrInvalidTransition
	}
	if _, ok := s.players[playerID]; !ok {
		return false, ErrUnknownPlayer
	}
	s.ready[playerID] = true
	return s.AllReady(), nil
}

// ReadyCount returns how many acknowledgements are recorded
func (s *Session) ReadyCount() int { return len(s.ready) }

// AllReady reports whether every connected player acknowledged
func (s *Session) AllReady() bool {
	return s.quorum(func(id string) bool { return s.ready[id] })
}

// NextRound leaves the ranking: back to voting, or game over after the last round
func (s *Session) NextRound() error {
	if s.phase != PhaseRanking {
		return ErrInvalidTransition
	}
	s.startNextRound()
	return nil
}

// Restart returns to the lobby keeping the players but zeroing their scores
func (s *Session) Restart() error {
	if s.phase == PhaseLobby {
		return ErrInvalidTransition
	}
	s.phase = PhaseLobby
	s.round = 0
	s.usedCategories = make(map[string]bool)
	s.category = ""
	s.questions = nil
	s.questionIndex = -1
	s.questionStart = time.Time{}
	s.revealed = false
	clear(s.votes)
	clear(s.answers)
	clear(s.ready)
	for _, p := range s.players {
		p.Score = 0
	}
	return nil
}

// Finish ends the game early, as when no category is left to vote on
func (s *Session) Finish() {
	s.phase = PhaseGameOver
	clear(s.votes)
	clear(s.ready)
}

// quorum reports whether every connected player satisfies has. A session
// with nobody connected never reaches quorum; its deadlines take over.
func (s *Session) quorum(has func(id string) bool) bool {
	connected := 0
	for id, p := range s.players {
		if !p.Connected {
			continue
		}
		if !has(id) {
			return false
		}
		connected++
	}
	return connected > 0
}
