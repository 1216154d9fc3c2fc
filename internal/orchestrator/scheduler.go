package orchestrator

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type timerKind int

const (
	votingDeadline timerKind = iota
	answerDeadline
	introDelay
)

func (k timerKind) String() string {
	switch k {
	case votingDeadline:
		return "voting_deadline"
	case answerDeadline:
		return "answer_deadline"
	case introDelay:
		return "intro_delay"
	}
	return "unknown"
}

// timerHandle identifies one arming of a timer. A callback only acts while
// its own handle is still installed in the lane.
type timerHandle struct {
	timer clockwork.Timer
}

// schedule arms a timer of the given kind on the lane, replacing any
// previous one. fire runs under the lane lock. Callers must hold l.mu.
func (o *Orchestrator) schedule(l *lane, kind timerKind, d time.Duration, fire func(l *lane)) {
	o.cancelTimer(l, kind)

	h := &timerHandle{}
	h.timer = o.clock.AfterFunc(d, func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if l.closed {
			o.log.Debug().Str("code", l.code).Stringer("timer", kind).Msg("timer fired for closed session")
			return
		}
		if l.timers[kind] != h {
			o.log.Debug().Str("code", l.code).Stringer("timer", kind).Msg("stale timer ignored")
			return
		}
		delete(l.timers, kind)
		fire(l)
	})
	l.timers[kind] = h

	o.log.Debug().
		Str("code", l.code).
		Stringer("timer", kind).
		Dur("duration", d).
		Msg("scheduled timer")
}

// cancelTimer stops and uninstalls a timer. It is a no-op when none is
// armed. Callers must hold l.mu.
func (o *Orchestrator) cancelTimer(l *lane, kind timerKind) {
	h, ok := l.timers[kind]
	if !ok {
		return
	}
	h.timer.Stop()
	delete(l.timers, kind)
}

// cancelAll stops every timer of the lane. Callers must hold l.mu.
func (o *Orchestrator) cancelAll(l *lane) {
	for kind := range l.timers {
		o.cancelTimer(l, kind)
	}
}
