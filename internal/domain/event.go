package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventRegular   EventType = "regular"
	EventGuestList EventType = "guest_list"
)

func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventRegular, EventGuestList:
		return EventType(s), true
	default:
		return "", false
	}
}

// EventSettings is the optional settings blob stored alongside an event.
// A nil settings pointer means every default applies, in particular
// "no approval required".
type EventSettings struct {
	RequiresApproval bool   `json:"requires_approval"`
	MaxGuests        int    `json:"max_guests,omitempty"`
	TicketPriceCents int64  `json:"ticket_price_cents,omitempty"`
	Currency         string `json:"currency,omitempty"`
}

type Event struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	StartsAt       time.Time      `json:"starts_at"`
	EndsAt         time.Time      `json:"ends_at"`
	Active         bool           `json:"active"`
	Type           EventType      `json:"type"`
	FlyerURL       string         `json:"flyer_url,omitempty"`
	Settings       *EventSettings `json:"settings,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// AcceptsRegistrations reports whether the public registration page may
// create guests for this event.
func (e *Event) AcceptsRegistrations() bool {
	return e.Active && e.Type == EventGuestList
}

// SellsTickets reports whether ticket orders may be placed for this event.
func (e *Event) SellsTickets() bool {
	return e.Active && e.Type == EventRegular && e.TicketPriceCents() > 0
}

func (e *Event) RequiresApproval() bool {
	return e.Settings != nil && e.Settings.RequiresApproval
}

func (e *Event) MaxGuests() int {
	if e.Settings == nil {
		return 0
	}
	return e.Settings.MaxGuests
}

func (e *Event) TicketPriceCents() int64 {
	if e.Settings == nil {
		return 0
	}
	return e.Settings.TicketPriceCents
}

func (e *Event) Currency() string {
	if e.Settings == nil || e.Settings.Currency == "" {
		return "usd"
	}
	return strings.ToLower(e.Settings.Currency)
}

type CreateEventRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	StartsAt    time.Time      `json:"starts_at"`
	EndsAt      time.Time      `json:"ends_at"`
	Type        EventType      `json:"type"`
	FlyerURL    string         `json:"flyer_url"`
	Settings    *EventSettings `json:"settings"`
}

func (r *CreateEventRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.FlyerURL = strings.TrimSpace(r.FlyerURL)
}

func (r *CreateEventRequest) Validate() error {
	if r.Title == "" {
		return Validationf("title is required")
	}
	if _, ok := ParseEventType(string(r.Type)); !ok {
		return Validationf("invalid event type %q", r.Type)
	}
	if r.StartsAt.IsZero() {
		return Validationf("starts_at is required")
	}
	if !r.EndsAt.IsZero() && r.EndsAt.Before(r.StartsAt) {
		return Validationf("ends_at must not be before starts_at")
	}
	if r.Settings != nil && r.Settings.MaxGuests < 0 {
		return Validationf("max_guests must not be negative")
	}
	if r.Settings != nil && r.Settings.TicketPriceCents < 0 {
		return Validationf("ticket_price_cents must not be negative")
	}
	return nil
}

type EventPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Location    *string        `json:"location,omitempty"`
	StartsAt    *time.Time     `json:"starts_at,omitempty"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	FlyerURL    *string        `json:"flyer_url,omitempty"`
	Settings    *EventSettings `json:"settings,omitempty"`
}

func (p *EventPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Validationf("title must not be empty")
	}
	if p.Settings != nil && p.Settings.MaxGuests < 0 {
		return Validationf("max_guests must not be negative")
	}
	return nil
}
