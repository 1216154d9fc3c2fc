package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"quizparty/internal/events"
)

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CommandRate     float64
	CommandBurst    int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    25 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      64,
		CommandRate:     20,
		CommandBurst:    40,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

// MessageHandler receives what a connection reads
type MessageHandler interface {
	HandleMessage(c *Connection, data []byte)
	HandleClose(c *Connection)
}

// Hub tracks websocket connections and the session each one follows. It
// implements events.Publisher: session-wide events go to every connection
// of the session, targeted events to one connection.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*Connection
	sessions map[string]map[*Connection]bool

	upgrader websocket.Upgrader
	config   ConnectionConfig
	log      zerolog.Logger
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID          string
	ConnectedAt time.Time

	hub     *Hub
	ws      *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	session string // guarded by hub.mu
	closed  bool   // guarded by hub.mu
}

// NewHub creates a new WebSocket hub
func NewHub(config ConnectionConfig, logger zerolog.Logger) *Hub {
	return &Hub{
		conns:    make(map[string]*Connection),
		sessions: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		log:    logger.With().Str("component", "hub").Logger(),
	}
}

// Serve upgrades the request and pumps the connection until it closes
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, handler MessageHandler) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		hub:         h,
		ws:          ws,
		send:        make(chan []byte, h.config.SendBuffer),
		limiter:     rate.NewLimiter(rate.Limit(h.config.CommandRate), h.config.CommandBurst),
	}

	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()

	h.log.Debug().Str("conn", c.ID).Str("remote", r.RemoteAddr).Msg("websocket connected")

	go c.writePump()
	go c.readPump(handler)
	return nil
}

// Publish delivers an event without blocking. Connections whose buffer is
// full are dropped.
func (h *Hub) Publish(e events.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Error().Err(err).Str("type", e.Type).Msg("failed to marshal event")
		return
	}

	var slow []*Connection
	deliver := func(c *Connection) {
		if c.closed {
			return
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}

	h.mu.RLock()
	if e.Targeted() {
		if c, ok := h.conns[e.ConnID]; ok {
			deliver(c)
		}
	} else {
		for c := range h.sessions[e.SessionCode] {
			deliver(c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Str("conn", c.ID).Msg("send buffer full, closing connection")
		h.closeConn(c)
	}
}

// Follow moves a connection into a session's broadcast group
func (h *Hub) Follow(c *Connection, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c)
	if h.sessions[code] == nil {
		h.sessions[code] = make(map[*Connection]bool)
	}
	h.sessions[code][c] = true
	c.session = code
}

// Unfollow removes a connection from its session's broadcast group
func (h *Hub) Unfollow(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
}

func (h *Hub) leaveLocked(c *Connection) {
	if c.session == "" {
		return
	}
	if members, ok := h.sessions[c.session]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.sessions, c.session)
		}
	}
	c.session = ""
}

// Session returns the code of the session a connection follows
func (h *Hub) Session(c *Connection) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.session
}

// Stats returns connection counts
func (h *Hub) Stats() (connections, sessions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns), len(h.sessions)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.closeConn(c)
	}
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
	delete(h.conns, c.ID)
}

// closeConn closes the send channel, which makes writePump hang up. The
// channel is only sent to under h.mu, so closing under the write lock is safe.
func (h *Hub) closeConn(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Send queues an event for this connection only
func (c *Connection) Send(e events.Event) {
	c.hub.Publish(e.To(c.ID))
}

// Allow reports whether the connection may issue another command now
func (c *Connection) Allow() bool { return c.limiter.Allow() }

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debug().Err(err).Str("conn", c.ID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug().Err(err).Str("conn", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump(handler MessageHandler) {
	defer func() {
		handler.HandleClose(c)
		c.hub.unregister(c)
		c.hub.closeConn(c)
		c.ws.Close()
		c.hub.log.Debug().Str("conn", c.ID).Msg("websocket disconnected")
	}()

	c.ws.SetReadLimit(c.hub.config.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("conn", c.ID).Msg("unexpected websocket close")
			}
			return
		}

		handler.HandleMessage(c, message)
		c.ws.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
