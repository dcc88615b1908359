package qr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

var (
	testEventID = uuid.MustParse("6f1c8a42-5b3d-4e8f-9a21-0c4d7e6f5a3b")
	testGuestID = uuid.MustParse("9d2e4b18-7c6a-4f01-b3e5-8a9c0d1e2f30")
	otherEvent  = uuid.MustParse("1a2b3c4d-5e6f-4071-8293-a4b5c6d7e8f9")
)

func TestExtractGuestID_StructuredPayload(t *testing.T) {
	tests := []struct {
		name string
		code string
		want uuid.UUID
	}{
		{
			"canonical payload",
			fmt.Sprintf(`{"event_id":%q,"guest_id":%q,"name":"Ana","issued_at":1700000000}`, testEventID, testGuestID),
			testGuestID,
		},
		{
			"camel case keys",
			fmt.Sprintf(`{"eventId":%q,"guestId":%q}`, testEventID, testGuestID),
			testGuestID,
		},
		{
			"legacy short keys",
			fmt.Sprintf(`{"event":%q,"id":%q}`, testEventID, testGuestID),
			testGuestID,
		},
		{
			"guest id without event pin",
			fmt.Sprintf(`{"guest_id":%q}`, testGuestID),
			testGuestID,
		},
		{
			"uuid buried in an unknown field, event pinned",
			fmt.Sprintf(`{"event_id":%q,"pass":"ticket %s ok"}`, testEventID, testGuestID),
			testGuestID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractGuestID(testEventID, tt.code)
			if err != nil {
				t.Fatalf("ExtractGuestID: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractGuestID_RawFormats(t *testing.T) {
	tests := []struct {
		name string
		code string
		want uuid.UUID
	}{
		{"bare uuid", testGuestID.String(), testGuestID},
		{"bare uuid with whitespace", "  " + testGuestID.String() + "\n", testGuestID},
		{"uuid inside free text", "guest:" + testGuestID.String() + ";v2", testGuestID},
		{"uppercase uuid inside text", "PASS 9D2E4B18-7C6A-4F01-B3E5-8A9C0D1E2F30 END", testGuestID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractGuestID(testEventID, tt.code)
			if err != nil {
				t.Fatalf("ExtractGuestID: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractGuestID_EventMismatch(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"different event", fmt.Sprintf(`{"event_id":%q,"guest_id":%q}`, otherEvent, testGuestID)},
		{"unparseable event value", fmt.Sprintf(`{"event_id":"banquet","guest_id":%q}`, testGuestID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractGuestID(testEventID, tt.code)
			if !errors.Is(err, ErrEventMismatch) {
				t.Fatalf("expected ErrEventMismatch, got %v", err)
			}
		})
	}
}

func TestExtractGuestID_NoIdentifier(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"free text", "no pass here"},
		{"structured without any uuid", fmt.Sprintf(`{"event_id":%q,"name":"Ana"}`, testEventID)},
		// the only uuid-shaped value is the event itself
		{"structured echoing the event id", fmt.Sprintf(`{"event_id":%q,"ref":%q}`, testEventID, testEventID)},
		{"truncated uuid", "9d2e4b18-7c6a-4f01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractGuestID(testEventID, tt.code)
			if !errors.Is(err, ErrNoIdentifier) {
				t.Fatalf("expected ErrNoIdentifier, got %v", err)
			}
		})
	}
}

func TestExtractGuestID_FieldScanIsDeterministic(t *testing.T) {
	second := uuid.MustParse("ffffffff-ffff-4fff-8fff-ffffffffffff")
	code := fmt.Sprintf(`{"event_id":%q,"a_field":%q,"z_field":%q}`, testEventID, testGuestID, second)

	for i := 0; i < 20; i++ {
		got, err := ExtractGuestID(testEventID, code)
		if err != nil {
			t.Fatalf("ExtractGuestID: %v", err)
		}
		if got != testGuestID {
			t.Fatalf("iteration %d: got %s, want %s", i, got, testGuestID)
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	p := Payload{
		EventID:  testEventID,
		GuestID:  testGuestID,
		Name:     "Ana",
		IssuedAt: 1700000000,
	}
	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := ExtractGuestID(testEventID, encoded)
	if err != nil {
		t.Fatalf("ExtractGuestID on own payload: %v", err)
	}
	if got != testGuestID {
		t.Fatalf("got %s, want %s", got, testGuestID)
	}

	png, err := RenderPNG(encoded, 256)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty png")
	}
}
