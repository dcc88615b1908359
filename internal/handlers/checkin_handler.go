package handlers

import (
	"errors"
	"net/http"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/middleware"
	"github.com/doorlist/doorlist/internal/response"
	"github.com/doorlist/doorlist/internal/service"
)

type CheckinHandler struct {
	checkins service.CheckinService
	events   service.EventService
}

func NewCheckinHandler(checkins service.CheckinService, events service.EventService) *CheckinHandler {
	return &CheckinHandler{checkins: checkins, events: events}
}

type checkinRequest struct {
	Code string `json:"code"`
}

type checkinResponse struct {
	Success          bool          `json:"success"`
	AlreadyCheckedIn bool          `json:"already_checked_in"`
	Guest            *domain.Guest `json:"guest"`
}

type notApprovedResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CheckIn resolves a scanned code against the event's guest list. Only
// members of the organization that owns the event may scan for it.
func (h *CheckinHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	var req checkinRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if req.Code == "" {
		response.BadRequest(w, "code is required")
		return
	}

	if _, err := h.events.AuthorizeOperator(r.Context(), middleware.UserID(r), eventID); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.checkins.CheckIn(r.Context(), eventID, req.Code)
	if err != nil {
		// The door staff still needs to know who is standing in front
		// of them when a pass exists but has not been approved.
		if errors.Is(err, domain.ErrNotApproved) && result != nil && result.Guest != nil {
			response.WriteJSON(w, http.StatusForbidden, notApprovedResponse{
				Error: "guest is not approved",
				Code:  response.CodeNotApproved,
				Name:  result.Guest.Name,
				Phone: result.Guest.Phone,
			})
			return
		}
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, checkinResponse{
		Success:          true,
		AlreadyCheckedIn: result.AlreadyCheckedIn,
		Guest:            result.Guest,
	})
}

type guestCountResponse struct {
	Count int `json:"count"`
}

func (h *CheckinHandler) GuestCount(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	count, err := h.checkins.GuestCount(r.Context(), eventID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	// counts change at the door, never cache them
	w.Header().Set("Cache-Control", "no-store")
	response.WriteJSON(w, http.StatusOK, guestCountResponse{Count: count})
}
