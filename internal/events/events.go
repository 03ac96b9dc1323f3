package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	CartCreated     Type = "cart_created"
	CartItemAdded   Type = "cart_item_added"
	CartItemRemoved Type = "cart_item_removed"
	CartDeleted     Type = "cart_deleted"
)

type CartPayload struct {
	CartID    uint   `json:"cart_id"`
	UserID    uint   `json:"user_id"`
	ProductID uint   `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Actor     string `json:"actor"`
}

type Envelope struct {
	EventID    uuid.UUID   `json:"event_id"`
	Type       Type        `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    CartPayload `json:"payload"`
}

func New(t Type, payload CartPayload) Envelope {
	return Envelope{
		EventID:    uuid.New(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, envs ...Envelope) error
	Close() error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...Envelope) error { return nil }
func (Nop) Close() error                               { return nil }
