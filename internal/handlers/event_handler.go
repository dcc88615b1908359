package handlers

import (
	"net/http"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/middleware"
	"github.com/doorlist/doorlist/internal/response"
	"github.com/doorlist/doorlist/internal/service"
)

// EventHandler serves the public event pages and the operator-side
// event management endpoints. Routes are composed in main so the
// public and authenticated groups can share the /events prefix.
type EventHandler struct {
	events service.EventService
}

func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	list, err := h.events.ListActiveEvents(r.Context(), limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, list)
}

func (h *EventHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	event, err := h.events.GetPublicEvent(r.Context(), eventID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	var patch domain.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	event, err := h.events.UpdateEvent(r.Context(), middleware.UserID(r), eventID, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Archive(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	if err := h.events.ArchiveEvent(r.Context(), middleware.UserID(r), eventID); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) ListGuests(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	limit, offset := pagination(r)
	guests, err := h.events.ListGuests(r.Context(), middleware.UserID(r), eventID, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, guests)
}

func (h *EventHandler) ApproveGuest(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	guestID, err := uuidParam(r, "guestID")
	if err != nil {
		response.BadRequest(w, "invalid guest id")
		return
	}
	guest, err := h.events.ApproveGuest(r.Context(), middleware.UserID(r), eventID, guestID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, guest)
}
