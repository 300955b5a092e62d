package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/citygrid/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
}

// NewSubscriber connects to NATS. durable names the consumer so restarts
// resume where they left off.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := Connect(url, durable)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeGridEvents delivers every grid event to handler. A handler error
// triggers redelivery, up to three attempts.
func (s *Subscriber) SubscribeGridEvents(ctx context.Context, handler func(ctx context.Context, event *domain.GridEvent) error) error {
	_, err := s.js.Subscribe(SubjectPattern, func(msg *nats.Msg) {
		var ev domain.GridEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			// Poison message; redelivery will not fix it.
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	return err
}

// Close stops delivery. Subscriptions are not unsubscribed, which would
// delete the durable consumer and lose its position in the stream.
func (s *Subscriber) Close() {
	s.conn.Close()
}
