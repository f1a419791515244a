package models

import "time"

// Call log outcomes.
const (
	CallCompleted = "completed"
	CallRejected  = "rejected"
	CallMissed    = "missed"
)

// CallLog is written once a call session reaches a terminal state.
type CallLog struct {
	ID         string    `json:"id"`
	CallerID   string    `json:"callerId"`
	ReceiverID string    `json:"receiverId"`
	Status     string    `json:"status"`
	Duration   int       `json:"duration"` // Seconds
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
}
