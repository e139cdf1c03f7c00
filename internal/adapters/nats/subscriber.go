package natsadapter

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// Subscriber relays lookup events from a shared NATS connection.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber creates a subscriber sharing conn.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeLookups delivers raw JSON lookup events of the given kind, or of
// every kind when kind is empty. The returned func cancels the subscription.
func (s *Subscriber) SubscribeLookups(kind string, handler func(data []byte)) (func(), error) {
	if kind != "" && !domain.IsLookupKind(kind) {
		return nil, fmt.Errorf("%w: unknown lookup kind %q", domain.ErrValidation, kind)
	}

	subject := LookupSubjectPrefix + ">"
	if kind != "" {
		subject = LookupSubjectPrefix + kind
	}
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
