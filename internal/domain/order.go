package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderCanceled OrderStatus = "canceled"
)

// TicketOrder is a pending or settled ticket purchase for a regular
// (ticketed) event. A paid order materializes as a guest row so the
// buyer checks in through the same resolver as list guests.
type TicketOrder struct {
	ID             uuid.UUID   `json:"id"`
	EventID        uuid.UUID   `json:"event_id"`
	BuyerName      string      `json:"buyer_name"`
	BuyerEmail     string      `json:"buyer_email"`
	BuyerPhone     string      `json:"buyer_phone,omitempty"`
	Quantity       int         `json:"quantity"`
	AmountCents    int64       `json:"amount_cents"`
	Currency       string      `json:"currency"`
	Status         OrderStatus `json:"status"`
	StripeIntentID string      `json:"-"`
	GuestID        *uuid.UUID  `json:"guest_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

const MaxTicketsPerOrder = 10

type CreateOrderRequest struct {
	BuyerName  string `json:"buyer_name"`
	BuyerEmail string `json:"buyer_email"`
	BuyerPhone string `json:"buyer_phone"`
	Quantity   int    `json:"quantity"`
}

func (r *CreateOrderRequest) Normalize() {
	r.BuyerName = strings.TrimSpace(r.BuyerName)
	r.BuyerEmail = strings.ToLower(strings.TrimSpace(r.BuyerEmail))
	r.BuyerPhone = strings.TrimSpace(r.BuyerPhone)
	if r.Quantity == 0 {
		r.Quantity = 1
	}
}

func (r *CreateOrderRequest) Validate() error {
	if r.BuyerName == "" {
		return Validationf("buyer_name is required")
	}
	if r.BuyerEmail == "" || !strings.Contains(r.BuyerEmail, "@") {
		return Validationf("valid buyer_email is required")
	}
	if r.Quantity < 1 || r.Quantity > MaxTicketsPerOrder {
		return Validationf("quantity must be between 1 and %d", MaxTicketsPerOrder)
	}
	return nil
}

type CreateOrderResponse struct {
	Order        *TicketOrder `json:"order"`
	ClientSecret string       `json:"client_secret"`
}
