// Package events publishes ledger lifecycle events to a Redis stream so that
// reconciliation jobs can follow money movement without polling the database.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type names a ledger event.
type Type string

const (
	TypeCardTokenized         Type = "card_tokenized"
	TypeAuthorizationCreated  Type = "authorization_created"
	TypeAuthorizationCaptured Type = "authorization_captured"
	TypeAuthorizationRefunded Type = "authorization_refunded"
)

// Event is the compact stream payload. It never carries card data beyond the
// token, and never the account password hash.
type Event struct {
	Type            Type   `json:"type"`
	AuthorizationID string `json:"aid,omitempty"`
	// RecordID is the token, transaction or refund id created by the step.
	RecordID   string `json:"rid,omitempty"`
	Owner      string `json:"own,omitempty"`
	Amount     int64  `json:"amt,omitempty"`
	Fee        int64  `json:"fee,omitempty"`
	OccurredAt int64  `json:"t"` // Unix milliseconds
}

// NewEvent stamps an event with the given time.
func NewEvent(t Type, at time.Time) Event {
	return Event{Type: t, OccurredAt: at.UnixMilli()}
}

// Encode serializes the event for the stream.
func (e Event) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(data), nil
}

// Decode parses a stream payload.
func Decode(payload string) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event has no type")
	}
	return e, nil
}

// Sink accepts events without blocking the caller.
type Sink interface {
	PublishAsync(e Event)
}

// Discard is a Sink that drops every event.
type Discard struct{}

// PublishAsync drops the event.
func (Discard) PublishAsync(Event) {}
