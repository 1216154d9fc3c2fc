package orchestrator

import (
	"quizparty/internal/events"
	"quizparty/internal/game"
)

// Command is a client intent addressed to one session. ConnID is always the
// transport connection the command arrived on.
type Command interface {
	name() string
	apply(o *Orchestrator, l *lane) error
}

type (
	// Join adds a player, or reconnects PlayerID when it is known
	Join struct {
		ConnID   string
		PlayerID string
	}
	// StartGame leaves the lobby
	StartGame struct{ ConnID string }
	// SubmitVote votes for the next round's category
	SubmitVote struct {
		ConnID   string
		Category string
	}
	// EndVoting closes voting before its deadline
	EndVoting struct{ ConnID string }
	// SubmitAnswer answers the current question
	SubmitAnswer struct {
		ConnID      string
		AnswerIndex int
	}
	// SignalReady acknowledges the intro, a reveal or the ranking
	SignalReady struct{ ConnID string }
	// NextQuestion forces the game forward: it reveals an open question, or
	// shows the next one
	NextQuestion struct{ ConnID string }
	// NextRound leaves the ranking
	NextRound struct{ ConnID string }
	// RemovePlayer kicks a player
	RemovePlayer struct {
		ConnID   string
		PlayerID string
	}
	// Restart sends everyone back to the lobby with zeroed scores
	Restart struct{ ConnID string }
	// Disconnect reports that a connection went away
	Disconnect struct{ ConnID string }
)

func (Join) name() string         { return "join" }
func (StartGame) name() string    { return "start_game" }
func (SubmitVote) name() string   { return "submit_vote" }
func (EndVoting) name() string    { return "end_voting" }
func (SubmitAnswer) name() string { return "submit_answer" }
func (SignalReady) name() string  { return "signal_ready" }
func (NextQuestion) name() string { return "next_question" }
func (NextRound) name() string    { return "next_round" }
func (RemovePlayer) name() string { return "remove_player" }
func (Restart) name() string      { return "restart" }
func (Disconnect) name() string   { return "disconnect" }

func (c Join) apply(o *Orchestrator, l *lane) error {
	player, reconnected, err := l.session.Join(c.ConnID, c.PlayerID)
	if err != nil {
		return err
	}

	o.pub.Publish(events.New(events.TypePlayerJoined, l.code, *player).To(c.ConnID))
	o.broadcastState(l)

	action := "joined"
	if reconnected {
		action = "reconnected"
	}
	o.log.Info().
		Str("code", l.code).
		Str("player_id", player.ID).
		Str("player", player.Name).
		Msg("player " + action)
	return nil
}

func (c StartGame) apply(o *Orchestrator, l *lane) error {
	if err := l.session.Start(); err != nil {
		return err
	}
	o.broadcastState(l)
	o.openVoting(l)
	o.log.Info().Str("code", l.code).Int("players", l.session.ConnectedCount()).Msg("game started")
	return nil
}

func (c SubmitVote) apply(o *Orchestrator, l *lane) error {
	p, err := playerFor(l, c.ConnID)
	if err != nil {
		return err
	}
	if err := l.session.SubmitVote(p.ID, c.Category); err != nil {
		return err
	}
	o.broadcastState(l)
	if l.session.AllVoted() {
		o.closeVoting(l)
	}
	return nil
}

func (c EndVoting) apply(o *Orchestrator, l *lane) error {
	if l.session.Phase() != game.PhaseVoting {
		return game.ErrInvalidTransition
	}
	o.closeVoting(l)
	return nil
}

func (c SubmitAnswer) apply(o *Orchestrator, l *lane) error {
	points, err := l.session.SubmitAnswer(c.ConnID, c.AnswerIndex, o.clock.Now())
	if err != nil {
		return err
	}
	o.log.Debug().Str("code", l.code).Str("conn", c.ConnID).Int("points", points).Msg("answer recorded")

	o.broadcastState(l)
	if l.session.AllAnswered() {
		o.revealQuestion(l)
	}
	return nil
}

func (c SignalReady) apply(o *Orchestrator, l *lane) error {
	p, err := playerFor(l, c.ConnID)
	if err != nil {
		return err
	}
	allReady, err := l.session.MarkReady(p.ID)
	if err != nil {
		return err
	}
	if allReady {
		o.advanceFromReady(l)
		return nil
	}
	o.broadcastState(l)
	return nil
}

func (c NextQuestion) apply(o *Orchestrator, l *lane) error {
	switch l.session.Phase() {
	case game.PhaseRoundIntro:
		o.showNextQuestion(l)
	case game.PhaseQuestion:
		if !l.session.Revealed() {
			o.revealQuestion(l)
			return nil
		}
		o.showNextQuestion(l)
	default:
		return game.ErrInvalidTransition
	}
	return nil
}

func (c NextRound) apply(o *Orchestrator, l *lane) error {
	if l.session.Phase() != game.PhaseRanking {
		return game.ErrInvalidTransition
	}
	o.leaveRanking(l)
	return nil
}

func (c RemovePlayer) apply(o *Orchestrator, l *lane) error {
	if !l.session.RemovePlayer(c.PlayerID) {
		return game.ErrUnknownPlayer
	}
	o.log.Info().Str("code", l.code).Str("player_id", c.PlayerID).Msg("player removed")
	o.broadcastState(l)
	o.recheckQuorum(l)
	return nil
}

func (c Restart) apply(o *Orchestrator, l *lane) error {
	o.cancelAll(l)
	if err := l.session.Restart(); err != nil {
		return err
	}
	o.broadcastState(l)
	o.log.Info().Str("code", l.code).Msg("game restarted")
	return nil
}

func (c Disconnect) apply(o *Orchestrator, l *lane) error {
	if c.ConnID == l.session.HostConnID {
		o.log.Info().Str("code", l.code).Msg("host disconnected")
	}
	p, ok := l.session.Disconnect(c.ConnID)
	if !ok {
		return nil
	}
	o.log.Info().Str("code", l.code).Str("player", p.Name).Msg("player disconnected")
	o.broadcastState(l)
	o.recheckQuorum(l)
	return nil
}

func playerFor(l *lane, connID string) (*game.Player, error) {
	p, ok := l.session.PlayerByConn(connID)
	if !ok {
		return nil, game.ErrUnknownPlayer
	}
	return p, nil
}
