package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/response"
	"github.com/doorlist/doorlist/internal/service"
	"github.com/doorlist/doorlist/pkg/logger"
)

const webhookMaxBody = 65536

type OrderHandler struct {
	orders        service.OrderService
	webhookSecret string
}

func NewOrderHandler(orders service.OrderService, webhookSecret string) *OrderHandler {
	return &OrderHandler{orders: orders, webhookSecret: webhookSecret}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	var req domain.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	res, err := h.orders.CreateOrder(r.Context(), eventID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, res)
}

// Webhook receives payment confirmations from Stripe. Signature
// verification is the only authentication on this route.
func (h *OrderHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookMaxBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		response.BadRequest(w, "failed to read payload")
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		response.BadRequest(w, "invalid signature")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			response.BadRequest(w, "invalid event payload")
			return
		}
		if err := h.orders.HandlePaymentSucceeded(r.Context(), intent.ID); err != nil {
			logger.ErrorContext(r.Context(), "Failed to settle payment", "error", err, "intent_id", intent.ID)
			response.InternalError(w, "failed to process payment")
			return
		}
	default:
		logger.DebugContext(r.Context(), "Ignoring stripe event", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
