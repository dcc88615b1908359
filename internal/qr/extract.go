package qr

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNoIdentifier means no extraction strategy produced a guest ID.
	ErrNoIdentifier = errors.New("qr: no guest identifier in code")
	// ErrEventMismatch means the payload names a different event than
	// the one being scanned for.
	ErrEventMismatch = errors.New("qr: code was issued for a different event")
)

var uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// parseResult is the tagged outcome of a structured parse attempt:
// either a field map, or nothing.
type parseResult struct {
	parsed bool
	fields map[string]string
}

func parse(code string) parseResult {
	var raw map[string]any
	if err := json.Unmarshal([]byte(code), &raw); err != nil {
		return parseResult{}
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return parseResult{parsed: true, fields: fields}
}

func firstField(fields map[string]string, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// ExtractGuestID resolves raw scanner output or manually typed text to a
// guest identifier for the given event. Strategies are tried in order and
// the first hit wins; the chain exists to tolerate malformed and legacy
// pass formats:
//
//  1. structured payload with a direct identifier field
//  2. structured payload whose event matches, any UUID-shaped field value
//  3. the raw code itself is a UUID
//  4. any UUID-shaped substring of the raw code
//
// A structured payload naming a different event is rejected outright.
func ExtractGuestID(eventID uuid.UUID, code string) (uuid.UUID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return uuid.Nil, ErrNoIdentifier
	}

	res := parse(code)
	if res.parsed {
		embedded, hasEvent := firstField(res.fields, "event_id", "eventId", "event")
		if hasEvent {
			parsed, err := uuid.Parse(embedded)
			if err != nil || parsed != eventID {
				return uuid.Nil, ErrEventMismatch
			}
		}

		if v, ok := firstField(res.fields, "guest_id", "guestId", "id"); ok {
			if id, err := uuid.Parse(v); err == nil {
				return id, nil
			}
		}

		// No direct identifier field. When the payload is pinned to the
		// scanned event, fish for anything UUID-shaped in the remaining
		// fields, in key order for determinism.
		if hasEvent {
			keys := make([]string, 0, len(res.fields))
			for k := range res.fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if m := uuidPattern.FindString(res.fields[k]); m != "" {
					if id, err := uuid.Parse(m); err == nil && id != eventID {
						return id, nil
					}
				}
			}
		}
		return uuid.Nil, ErrNoIdentifier
	}

	if id, err := uuid.Parse(code); err == nil {
		return id, nil
	}
	if m := uuidPattern.FindString(code); m != "" {
		if id, err := uuid.Parse(m); err == nil {
			return id, nil
		}
	}

	return uuid.Nil, ErrNoIdentifier
}
