package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payload is the wire shape of an Event on the ledger topic and in the
// ledger_events table.
type Payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Address   string `json:"address"`
	Action    string `json:"action"`
	Subject   string `json:"subject,omitempty"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Actor     string `json:"actor,omitempty"`
}

// Marshal encodes an event with a fresh id. The category is always derived
// from the action so producers cannot mislabel events.
func Marshal(event Event) (uuid.UUID, []byte, error) {
	eventID := uuid.New()
	data, err := json.Marshal(Payload{
		ID:        eventID.String(),
		Category:  string(event.Action.Category()),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Address:   event.Address,
		Action:    string(event.Action),
		Subject:   event.Subject,
		Detail:    event.Detail,
		RequestID: event.RequestID,
		Actor:     event.Actor,
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("marshal ledger event: %w", err)
	}
	return eventID, data, nil
}

// Unmarshal decodes a payload produced by Marshal.
func Unmarshal(data []byte) (Event, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Event{}, fmt.Errorf("unmarshal ledger event: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("unmarshal ledger event timestamp: %w", err)
	}
	return Event{
		Category:  EventCategory(p.Category),
		Timestamp: ts,
		Address:   p.Address,
		Action:    Action(p.Action),
		Subject:   p.Subject,
		Detail:    p.Detail,
		RequestID: p.RequestID,
		Actor:     p.Actor,
	}, nil
}
