package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher mirrors session-wide events onto NATS subjects of the form
// <prefix>.<session code>.<event type>. Targeted events stay local.
type NATSPublisher struct {
	conn   natsConn
	nc     *nats.Conn
	prefix string
	log    zerolog.Logger
}

// ConnectNATS dials url and returns a publisher on it
func ConnectNATS(url, prefix string, logger zerolog.Logger) (*NATSPublisher, error) {
	log := logger.With().Str("component", "nats").Logger()
	opts := []nats.Option{
		nats.Name("quizparty"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc, nc: nc, prefix: prefix, log: log}, nil
}

// Subject returns the subject an event is published on
func (p *NATSPublisher) Subject(e Event) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, e.SessionCode, e.Type)
}

// Publish is fire-and-forget; failures are logged
func (p *NATSPublisher) Publish(e Event) {
	if e.Targeted() || e.SessionCode == "" {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		p.log.Error().Err(err).Str("type", e.Type).Msg("failed to marshal event")
		return
	}
	if err := p.conn.Publish(p.Subject(e), data); err != nil {
		p.log.Error().Err(err).Str("subject", p.Subject(e)).Msg("failed to publish event")
	}
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.log.Warn().Err(err).Msg("NATS drain failed")
		p.nc.Close()
	}
}
