package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the realtime core.
const (
	NotificationCreated = "notification.created.v1"
	CallEnded           = "call.ended.v1"
)

// Producer identifies this service in event metadata.
const Producer = "scenyx-chat"

// Meta describes one published event.
type Meta struct {
	// Unique event ID
	ID string `json:"id"`
	// Event name and version, e.g. notification.created.v1
	Type string `json:"type"`
	// Emitting service
	Producer string `json:"producer,omitempty"`
	// Optional request correlation ID
	CorrelationID string `json:"correlation_id,omitempty"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
}

// Envelope wraps an event payload with its metadata.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope stamps data with a fresh id and the current time.
func NewEnvelope(eventType string, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:       uuid.NewString(),
			Type:     eventType,
			Producer: Producer,
			Time:     time.Now().UTC(),
		},
		Data: data,
	}
}
