package events

import "sync"

// Bus fans session-wide events out to in-process subscribers, such as SSE
// streams. Targeted events are not delivered.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	buffer      int
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]chan Event),
		buffer:      16,
	}
}

// Subscribe subscribes to events for a session
func (b *Bus) Subscribe(sessionCode string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	b.subscribers[sessionCode] = append(b.subscribers[sessionCode], ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (b *Bus) Unsubscribe(sessionCode string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sessionCode]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[sessionCode] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subscribers[sessionCode]) == 0 {
		delete(b.subscribers, sessionCode)
	}
}

// Publish publishes an event to all subscribers of its session
func (b *Bus) Publish(event Event) {
	if event.Targeted() {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.SessionCode] {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// Subscribers returns the number of subscribers of a session
func (b *Bus) Subscribers(sessionCode string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[sessionCode])
}
