package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type GuestSource string

const (
	GuestFromRegistration GuestSource = "registration"
	GuestFromTicket       GuestSource = "ticket"
)

type Guest struct {
	ID               uuid.UUID   `json:"id"`
	EventID          uuid.UUID   `json:"event_id"`
	Name             string      `json:"name"`
	Phone            string      `json:"phone"`
	Email            string      `json:"email,omitempty"`
	QRPayload        string      `json:"-"`
	Source           GuestSource `json:"source"`
	CheckedIn        bool        `json:"checked_in"`
	CheckedInAt      *time.Time  `json:"checked_in_at,omitempty"`
	RequiresApproval bool        `json:"requires_approval"`
	IsApproved       bool        `json:"is_approved"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Admitted reports whether the approval gate is cleared for this guest.
func (g *Guest) Admitted() bool {
	return !g.RequiresApproval || g.IsApproved
}

type RegisterGuestRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

func (r *RegisterGuestRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterGuestRequest) Validate() error {
	if r.Name == "" {
		return Validationf("name is required")
	}
	if r.Phone == "" {
		return Validationf("phone is required")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return Validationf("invalid email address")
	}
	return nil
}

// RegistrationResult is what the registration service hands back to the
// public page: the stored guest plus the rendered pass.
type RegistrationResult struct {
	Guest            *Guest
	QRCode           []byte // PNG
	RequiresApproval bool
	Existing         bool // replayed via Idempotency-Key
}

// CheckinResult is the outcome of a successful check-in resolution.
// AlreadyCheckedIn marks a repeat scan; Guest then carries the original
// check-in timestamp, untouched.
type CheckinResult struct {
	Guest            *Guest
	AlreadyCheckedIn bool
}
