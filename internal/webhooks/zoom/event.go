package zoom

import (
	"fmt"
	"strings"
)

// Event types this endpoint cares about. Anything else that passes the
// signature check is acknowledged and enqueued the same way recordings are;
// the pipeline decides what to do with it.
const (
	EventURLValidation      = "endpoint.url_validation"
	EventRecordingCompleted = "phone.recording_completed"
)

// Event is the envelope Zoom posts to the webhook endpoint.
type Event struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

type Payload struct {
	// PlainToken is only present on endpoint.url_validation challenges.
	PlainToken string `json:"plainToken,omitempty"`
	Object     Object `json:"object"`
}

type Object struct {
	Recordings []Recording `json:"recordings"`
}

// Recording summarizes one call leg as delivered in the webhook body. The
// authoritative metadata (display names, file URL) comes later from the call
// log lookup; the two are reconciled by the naming resolver.
type Recording struct {
	Owner        Owner  `json:"owner"`
	CallerNumber string `json:"caller_number"`
	CalleeNumber string `json:"callee_number"`
	Direction    string `json:"direction"`
	Duration     int    `json:"duration"`
	AcceptedBy   *Party `json:"accepted_by,omitempty"`
	OutgoingBy   *Party `json:"outgoing_by,omitempty"`
}

type Owner struct {
	ExtensionNumber string `json:"extension_number"`
	Name            string `json:"name"`
}

type Party struct {
	ExtensionNumber string `json:"extension_number"`
}

// ParseTrackingID extracts the call id from the x-zm-trackingid header, which
// arrives as "<callid>+<suffix>". A header without the delimiter has no call
// id to look recordings up by.
func ParseTrackingID(header string) (string, error) {
	id, _, ok := strings.Cut(header, "+")
	if !ok {
		return "", fmt.Errorf("tracking id %q has no call id delimiter", header)
	}
	return id, nil
}
