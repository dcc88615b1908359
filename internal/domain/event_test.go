package domain

import "testing"

func TestEventAcceptsRegistrations(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"active guest list", Event{Active: true, Type: EventGuestList}, true},
		{"archived guest list", Event{Active: false, Type: EventGuestList}, false},
		{"active regular event", Event{Active: true, Type: EventRegular}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.AcceptsRegistrations(); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventSettingsDefaults(t *testing.T) {
	e := Event{Active: true, Type: EventGuestList}

	if e.RequiresApproval() {
		t.Fatal("absent settings must auto-approve")
	}
	if e.MaxGuests() != 0 {
		t.Fatal("absent settings means no guest cap")
	}
	if e.SellsTickets() {
		t.Fatal("absent settings sells no tickets")
	}
	if e.Currency() != "usd" {
		t.Fatalf("default currency = %q", e.Currency())
	}

	e.Settings = &EventSettings{RequiresApproval: true, MaxGuests: 50, TicketPriceCents: 2500, Currency: "eur"}
	if !e.RequiresApproval() || e.MaxGuests() != 50 || e.Currency() != "eur" {
		t.Fatal("settings must override the defaults")
	}
	if e.SellsTickets() {
		t.Fatal("a guest-list event sells no tickets even with a price set")
	}

	e.Type = EventRegular
	if !e.SellsTickets() {
		t.Fatal("a regular event with a price must sell tickets")
	}
}
