package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/platform/mailer"
	"github.com/doorlist/doorlist/internal/qr"
	"github.com/doorlist/doorlist/internal/repository"
	"github.com/doorlist/doorlist/pkg/events"
	"github.com/doorlist/doorlist/pkg/logger"
)

type OrderService interface {
	CreateOrder(ctx context.Context, eventID uuid.UUID, req *domain.CreateOrderRequest) (*domain.CreateOrderResponse, error)
	HandlePaymentSucceeded(ctx context.Context, intentID string) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	eventRepo repository.EventRepository
	guestRepo repository.GuestRepository
	stripe    *client.API
	eventBus  events.EventBus
	mail      mailer.Service
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	stripeClient *client.API,
	eventBus events.EventBus,
	mail mailer.Service,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		stripe:    stripeClient,
		eventBus:  eventBus,
		mail:      mail,
	}
}

// CreateOrder opens a pending ticket order for a ticketed event and
// returns the Stripe client secret the buyer completes payment with.
func (s *orderService) CreateOrder(ctx context.Context, eventID uuid.UUID, req *domain.CreateOrderRequest) (*domain.CreateOrderResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}
	if !event.SellsTickets() {
		return nil, fmt.Errorf("%w: event does not sell tickets", domain.ErrInvalidState)
	}

	orderID := uuid.New()
	amount := event.TicketPriceCents() * int64(req.Quantity)

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(amount),
		Currency:     stripe.String(event.Currency()),
		ReceiptEmail: stripe.String(req.BuyerEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", orderID.String())
	params.AddMetadata("event_id", eventID.String())

	intent, err := s.stripe.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	order, err := s.orderRepo.Create(ctx, &domain.TicketOrder{
		ID:             orderID,
		EventID:        eventID,
		BuyerName:      req.BuyerName,
		BuyerEmail:     req.BuyerEmail,
		BuyerPhone:     req.BuyerPhone,
		Quantity:       req.Quantity,
		AmountCents:    amount,
		Currency:       event.Currency(),
		StripeIntentID: intent.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.OrderCreated, events.OrderCreatedEvent{
		OrderID:     order.ID,
		EventID:     order.EventID,
		Quantity:    order.Quantity,
		AmountCents: order.AmountCents,
		Currency:    order.Currency,
		CreatedAt:   order.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish order created event", "error", err, "order_id", order.ID)
	}

	return &domain.CreateOrderResponse{
		Order:        order,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// HandlePaymentSucceeded settles the order behind a confirmed payment
// intent and materializes the buyer as a guest, so their pass checks in
// through the same resolver as list guests. Repeat webhook deliveries
// find the order already paid and do nothing.
func (s *orderService) HandlePaymentSucceeded(ctx context.Context, intentID string) error {
	order, err := s.orderRepo.GetByIntentID(ctx, intentID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: no order for intent %s", domain.ErrNotFound, intentID)
	}
	if order.Status == domain.OrderPaid {
		return nil
	}

	event, err := s.eventRepo.GetByID(ctx, order.EventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return fmt.Errorf("%w: event %s", domain.ErrNotFound, order.EventID)
	}

	guestID := uuid.New()
	payload := qr.Payload{
		EventID:  order.EventID,
		GuestID:  guestID,
		Name:     order.BuyerName,
		Phone:    order.BuyerPhone,
		IssuedAt: time.Now().Unix(),
	}
	encoded, err := payload.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode pass payload: %w", err)
	}

	guest, err := s.guestRepo.Create(ctx, &domain.Guest{
		ID:        guestID,
		EventID:   order.EventID,
		Name:      order.BuyerName,
		Phone:     order.BuyerPhone,
		Email:     order.BuyerEmail,
		QRPayload: encoded,
		Source:    domain.GuestFromTicket,
		// paid tickets skip the approval gate
		RequiresApproval: false,
		IsApproved:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to create guest for order: %w", err)
	}

	settled, err := s.orderRepo.MarkPaid(ctx, order.ID, guest.ID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if settled == nil {
		// lost a race with another delivery of the same webhook
		return nil
	}

	if err := s.eventBus.Publish(ctx, events.OrderPaid, events.OrderPaidEvent{
		OrderID:     settled.ID,
		EventID:     settled.EventID,
		GuestID:     guest.ID,
		AmountCents: settled.AmountCents,
		Currency:    settled.Currency,
		PaidAt:      settled.UpdatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish order paid event", "error", err, "order_id", settled.ID)
	}

	png, err := qr.RenderPNG(encoded, qrImageSize)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to render ticket pass", "error", err, "order_id", settled.ID)
		return nil
	}
	if err := s.mail.SendGuestPass(order.BuyerEmail, order.BuyerName, event.Title, png); err != nil {
		logger.WarnContext(ctx, "Failed to send ticket pass email", "error", err, "order_id", settled.ID)
	}

	return nil
}
