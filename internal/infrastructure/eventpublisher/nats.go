package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/iho/charityledger/internal/domain"
)

// DefaultSubjectPrefix is prepended to the event type to form the NATS subject.
const DefaultSubjectPrefix = "charity"

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// NATSPublisher publishes outbox events as NATS messages on "<prefix>.<event_type>".
// The event id travels in the Nats-Msg-Id header so JetStream streams can deduplicate redeliveries.
type NATSPublisher struct {
	conn   natsConn
	prefix string
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return newNATSPublisher(conn, prefix)
}

func newNATSPublisher(conn natsConn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// ConnectNATS dials url with reconnect settings suited to a long-running worker.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("charityledger-outbox"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

// Subject returns the subject an event of eventType is published on.
func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// Publish sends the event and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	data, err := json.Marshal(envelope{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.Subject(event.EventType))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.ID)

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.ID, err)
	}

	return p.conn.FlushWithContext(ctx)
}

type envelope struct {
	ID            string         `json:"id"`
	AggregateID   string         `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}
