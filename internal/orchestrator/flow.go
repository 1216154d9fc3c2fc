package orchestrator

import (
	"errors"

	"quizparty/internal/events"
	"quizparty/internal/game"
)

// The helpers below move a session between phases. Every one of them runs
// under the lane lock, either from a command or from a timer callback.

func (o *Orchestrator) openVoting(l *lane) {
	o.schedule(l, votingDeadline, o.settings.VotingDeadline(), func(l *lane) {
		o.log.Debug().Str("code", l.code).Msg("voting deadline reached")
		o.closeVoting(l)
	})
}

func (o *Orchestrator) closeVoting(l *lane) {
	o.cancelTimer(l, votingDeadline)

	winner, err := l.session.EndVoting()
	if errors.Is(err, game.ErrCategoryExhausted) {
		o.log.Warn().Str("code", l.code).Int("round", l.session.Round()).Msg("no category left, ending game")
		l.session.Finish()
		o.broadcastState(l)
		return
	}
	if err != nil {
		if !game.IsSilent(err) {
			o.log.Error().Err(err).Str("code", l.code).Msg("failed to end voting")
			o.pub.Publish(events.New(events.TypeError, l.code, events.ErrorPayload{Message: game.Message(err)}))
		}
		return
	}

	o.log.Info().Str("code", l.code).Int("round", l.session.Round()).Str("category", winner).Msg("category selected")
	o.pub.Publish(events.New(events.TypeCategorySelected, l.code, winner))
	o.broadcastState(l)

	o.schedule(l, introDelay, o.settings.RoundIntroDelay, func(l *lane) {
		if l.session.Phase() == game.PhaseRoundIntro {
			o.showNextQuestion(l)
		}
	})
}

func (o *Orchestrator) showNextQuestion(l *lane) {
	o.cancelTimer(l, introDelay)
	o.cancelTimer(l, answerDeadline)

	roundOver, err := l.session.NextQuestion(o.clock.Now())
	if err != nil {
		o.log.Debug().Err(err).Str("code", l.code).Msg("next question refused")
		return
	}
	o.broadcastState(l)

	if roundOver {
		o.log.Info().Str("code", l.code).Int("round", l.session.Round()).Msg("round finished")
		return
	}
	o.schedule(l, answerDeadline, o.settings.AnswerDeadline(), func(l *lane) {
		o.log.Debug().Str("code", l.code).Int("question", l.session.QuestionIndex()).Msg("answer deadline reached")
		o.revealQuestion(l)
	})
}

func (o *Orchestrator) revealQuestion(l *lane) {
	o.cancelTimer(l, answerDeadline)

	reveal, err := l.session.Reveal()
	if err != nil {
		o.log.Debug().Err(err).Str("code", l.code).Msg("reveal refused")
		return
	}
	o.pub.Publish(events.New(events.TypeQuestionTimeout, l.code, reveal))
	o.broadcastState(l)
}

func (o *Orchestrator) leaveRanking(l *lane) {
	if err := l.session.NextRound(); err != nil {
		o.log.Debug().Err(err).Str("code", l.code).Msg("next round refused")
		return
	}
	o.broadcastState(l)

	if l.session.Phase() == game.PhaseGameOver {
		o.log.Info().Str("code", l.code).Msg("game over")
		return
	}
	o.openVoting(l)
}

// advanceFromReady moves on once every connected player acknowledged
func (o *Orchestrator) advanceFromReady(l *lane) {
	switch l.session.Phase() {
	case game.PhaseRanking:
		o.leaveRanking(l)
	case game.PhaseRoundIntro, game.PhaseQuestion:
		o.showNextQuestion(l)
	}
}

// recheckQuorum re-evaluates the current phase's completion condition after
// the set of connected players shrank.
func (o *Orchestrator) recheckQuorum(l *lane) {
	s := l.session
	switch {
	case s.Phase() == game.PhaseVoting && s.AllVoted():
		o.closeVoting(l)
	case s.Phase() == game.PhaseQuestion && !s.Revealed() && s.AllAnswered():
		o.revealQuestion(l)
	case s.AwaitingReady() && s.AllReady():
		o.advanceFromReady(l)
	}
}
