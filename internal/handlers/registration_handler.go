package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/response"
	"github.com/doorlist/doorlist/internal/service"
)

type RegistrationHandler struct {
	registrations service.RegistrationService
}

func NewRegistrationHandler(registrations service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

type registrationResponse struct {
	Success          bool      `json:"success"`
	GuestID          uuid.UUID `json:"guest_id"`
	QRCode           string    `json:"qr_code"`
	RequiresApproval bool      `json:"requires_approval"`
}

// Register puts a guest on the list and returns their pass as a
// base64-encoded PNG. Replays with the same Idempotency-Key return the
// original guest with status 200 instead of 201.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}
	var req domain.RegisterGuestRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	result, err := h.registrations.Register(r.Context(), eventID, &req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	response.WriteJSON(w, status, registrationResponse{
		Success:          true,
		GuestID:          result.Guest.ID,
		QRCode:           base64.StdEncoding.EncodeToString(result.QRCode),
		RequiresApproval: result.RequiresApproval,
	})
}
