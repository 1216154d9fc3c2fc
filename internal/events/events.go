package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types. The names are the wire names clients listen for.
const (
	TypeGameState        = "game-state"
	TypeCategorySelected = "category-selected"
	TypeQuestionTimeout  = "question-timeout"
	TypePlayerJoined     = "player-joined"
	TypeGameCreated      = "game-created"
	TypeSessionClosed    = "session-closed"
	TypeError            = "error"
	TypePong             = "pong"
)

// Event is a notification about one session. An event with a ConnID is
// meant for that connection only; otherwise it goes to the whole session.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	SessionCode string    `json:"sessionCode,omitempty"`
	ConnID      string    `json:"-"`
	Payload     any       `json:"payload"`
	Timestamp   time.Time `json:"timestamp"`
}

// New creates a session-wide event
func New(eventType, sessionCode string, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		SessionCode: sessionCode,
		Payload:     payload,
		Timestamp:   time.Now().UTC(),
	}
}

// To returns a copy of e addressed to a single connection
func (e Event) To(connID string) Event {
	e.ConnID = connID
	return e
}

// Targeted reports whether the event is for a single connection
func (e Event) Targeted() bool { return e.ConnID != "" }

// ErrorPayload is the payload of TypeError events
type ErrorPayload struct {
	Message string `json:"message"`
}

// Publisher delivers events to interested parties. Publish must not block
// on slow consumers.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

// Fanout publishes every event to each of its publishers in order
type Fanout []Publisher

func (f Fanout) Publish(e Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(e)
		}
	}
}
