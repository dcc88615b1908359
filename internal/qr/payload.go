// Package qr carries the scannable pass format: a compact JSON payload
// naming a guest/event pair, rendered as a QR symbol. The payload is not
// signed; the check-in resolver re-validates the referenced IDs against
// the store before trusting anything in it.
package qr

import (
	"encoding/json"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

type Payload struct {
	EventID  uuid.UUID `json:"event_id"`
	GuestID  uuid.UUID `json:"guest_id"`
	Name     string    `json:"name,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	IssuedAt int64     `json:"issued_at"`
}

// Encode serializes the payload to the compact string embedded in the
// QR symbol and stored on the guest row.
func (p Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RenderPNG renders an encoded payload as a size x size PNG. Medium
// error correction is plenty for a phone screen at the door.
func RenderPNG(encoded string, size int) ([]byte, error) {
	return qrcode.Encode(encoded, qrcode.Medium, size)
}
