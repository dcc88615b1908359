package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/doorlist/doorlist/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopEventBus discards everything. Used when NATS is not configured.
type NoopEventBus struct{}

func (NoopEventBus) Publish(context.Context, string, interface{}) error      { return nil }
func (NoopEventBus) Subscribe(string, func(msg *Message)) error              { return nil }
func (NoopEventBus) QueueSubscribe(string, string, func(msg *Message)) error { return nil }
func (NoopEventBus) Close() error                                            { return nil }

// Event subjects
const (
	EventCreated  = "event.created"
	EventUpdated  = "event.updated"
	EventArchived = "event.archived"

	GuestRegistered = "guest.registered"
	GuestApproved   = "guest.approved"
	GuestCheckedIn  = "guest.checked_in"

	OrderCreated = "order.created"
	OrderPaid    = "order.paid"

	NotifySend = "notify.send"
)

// Event payloads
type EventCreatedEvent struct {
	EventID        uuid.UUID `json:"event_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Title          string    `json:"title"`
	Type           string    `json:"type"`
	StartsAt       time.Time `json:"starts_at"`
	CreatedAt      time.Time `json:"created_at"`
}

type EventArchivedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	ArchivedAt time.Time `json:"archived_at"`
}

type GuestRegisteredEvent struct {
	GuestID          uuid.UUID `json:"guest_id"`
	EventID          uuid.UUID `json:"event_id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	RequiresApproval bool      `json:"requires_approval"`
	RegisteredAt     time.Time `json:"registered_at"`
}

type GuestApprovedEvent struct {
	GuestID    uuid.UUID `json:"guest_id"`
	EventID    uuid.UUID `json:"event_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

type GuestCheckedInEvent struct {
	GuestID     uuid.UUID `json:"guest_id"`
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	EventID     uuid.UUID `json:"event_id"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderPaidEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	EventID     uuid.UUID `json:"event_id"`
	GuestID     uuid.UUID `json:"guest_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	PaidAt      time.Time `json:"paid_at"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Data      map[string]interface{} `json:"data"`
}
