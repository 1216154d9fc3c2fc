package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New(TypeGameState, "ABCD", map[string]int{"round": 1})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypeGameState, e.Type)
	assert.Equal(t, "ABCD", e.SessionCode)
	assert.False(t, e.Targeted())
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Minute)

	targeted := e.To("conn-1")
	assert.True(t, targeted.Targeted())
	assert.False(t, e.Targeted(), "To must not modify the original")
}

func TestEventJSONHidesConnID(t *testing.T) {
	data, err := json.Marshal(New(TypeError, "ABCD", ErrorPayload{Message: "nope"}).To("secret-conn"))
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret-conn")
	assert.Contains(t, string(data), `"type":"error"`)
	assert.Contains(t, string(data), `"message":"nope"`)
}

func TestFanout(t *testing.T) {
	var got []string
	a := PublisherFunc(func(e Event) { got = append(got, "a:"+e.Type) })
	b := PublisherFunc(func(e Event) { got = append(got, "b:"+e.Type) })

	Fanout{a, nil, b}.Publish(New(TypePong, "", nil))

	assert.Equal(t, []string{"a:pong", "b:pong"}, got)
}

func TestBus(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe("ABCD")
	other := bus.Subscribe("WXYZ")

	bus.Publish(New(TypeGameState, "ABCD", nil))
	bus.Publish(New(TypeError, "ABCD", nil).To("c1"))

	select {
	case e := <-ch:
		assert.Equal(t, TypeGameState, e.Type)
	default:
		t.Fatal("expected an event")
	}
	assert.Empty(t, ch, "targeted events are not delivered")
	assert.Empty(t, other, "events stay within their session")

	assert.Equal(t, 1, bus.Subscribers("ABCD"))
	bus.Unsubscribe("ABCD", ch)
	assert.Equal(t, 0, bus.Subscribers("ABCD"))
	_, open := <-ch
	assert.False(t, open, "unsubscribe closes the channel")
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe("ABCD")

	done := make(chan struct{})
	go func() {
		for i := 0; i < bus.buffer*3; i++ {
			bus.Publish(New(TypeGameState, "ABCD", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch, bus.buffer)
}

type fakeConn struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return c.err
}

func TestNATSPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := &NATSPublisher{conn: conn, prefix: "quiz.sessions", log: zerolog.Nop()}

	p.Publish(New(TypeCategorySelected, "ABCD", map[string]string{"category": "Science"}))
	p.Publish(New(TypeError, "ABCD", nil).To("c1"))
	p.Publish(New(TypePong, "", nil))

	require.Equal(t, []string{"quiz.sessions.ABCD.category-selected"}, conn.subjects)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, "category-selected", decoded["type"])
	assert.Equal(t, map[string]any{"category": "Science"}, decoded["payload"])
}

func TestNATSPublisher_ErrorsAreSwallowed(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	var buf bytes.Buffer
	p := &NATSPublisher{conn: conn, prefix: "p", log: zerolog.New(&buf)}

	assert.NotPanics(t, func() { p.Publish(New(TypeGameState, "ABCD", nil)) })
	assert.Len(t, conn.subjects, 1)
	assert.Contains(t, buf.String(), `"subject":"p.ABCD.game-state"`)
	assert.Contains(t, buf.String(), "connection closed")
	assert.NotPanics(t, p.Close)
}
