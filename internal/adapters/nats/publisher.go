package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// LookupSubjectPrefix prefixes every lookup event subject: mashup.lookups.<kind>.
const LookupSubjectPrefix = "mashup.lookups."

// Publisher implements ports.EventPublisher using NATS.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS. When JetStream is available a short-lived
// stream retains lookup events for offline consumers.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	if js, err := conn.JetStream(); err == nil {
		cfg := &nats.StreamConfig{
			Name:      "MASHUP_LOOKUPS",
			Subjects:  []string{LookupSubjectPrefix + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		}
		if _, err := js.AddStream(cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(cfg); err != nil {
				slog.Warn("lookup stream unavailable, publishing without retention", "error", err)
			}
		}
	}

	return &Publisher{conn: conn}, nil
}

// PublishLookup sends the event on core NATS; it does not wait for an ack.
func (p *Publisher) PublishLookup(ctx context.Context, event *domain.LookupEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(LookupSubjectPrefix+event.Kind, data)
}

// Conn returns the underlying connection for subscribers.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// IsConnected reports the connection status for readiness checks.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a plain NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("mashup-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
