package call

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/Vasu1712/scenyx-chat/internal/models"
)

// Transport is the only surface the call package needs from the connection
// hub.
type Transport interface {
	IsOnline(userID string) bool
	SendToUser(userID, event string, payload any) bool
}

// LogStore persists finished calls.
type LogStore interface {
	CreateCallLog(ctx context.Context, l *models.CallLog) (*models.CallLog, error)
}

// State is the lifecycle position of a call session.
type State int

const (
	StateIdle State = iota
	StateRinging
	StateConnected
	StateEnded
	StateRejected
	StateBusy
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRinging:
		return "ringing"
	case StateConnected:
		return "connected"
	case StateEnded:
		return "ended"
	case StateRejected:
		return "rejected"
	case StateBusy:
		return "busy"
	}
	return "unknown"
}

// Active reports whether the state still occupies both participants.
func (s State) Active() bool {
	return s == StateRinging || s == StateConnected
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Session is a snapshot of one call between two users.
type Session struct {
	CallerID   string    `json:"callerId"`
	ReceiverID string    `json:"receiverId"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"startedAt"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// Peer returns the other participant of the session.
func (s *Session) Peer(userID string) string {
	if userID == s.CallerID {
		return s.ReceiverID
	}
	return s.CallerID
}

// Inbound requests.

type InitiateRequest struct {
	CallerID     string                     `json:"callerId"`
	ReceiverID   string                     `json:"receiverId"`
	CallerName   string                     `json:"callerName"`
	CallerAvatar string                     `json:"callerAvatar"`
	Offer        *webrtc.SessionDescription `json:"offer"`
}

type AcceptRequest struct {
	CallerID   string                     `json:"callerId"`
	ReceiverID string                     `json:"receiverId"`
	Answer     *webrtc.SessionDescription `json:"answer"`
}

type RejectRequest struct {
	CallerID   string `json:"callerId"`
	ReceiverID string `json:"receiverId"`
	Reason     string `json:"reason"`
}

type EndRequest struct {
	CallerID   string `json:"callerId"`
	ReceiverID string `json:"receiverId"`
	Duration   int    `json:"duration"`
}

// CandidateRequest carries one ICE candidate. Candidate is relayed verbatim.
type CandidateRequest struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

// Outbound payloads.

type IncomingPayload struct {
	CallerID     string                     `json:"callerId"`
	CallerName   string                     `json:"callerName"`
	CallerAvatar string                     `json:"callerAvatar"`
	Offer        *webrtc.SessionDescription `json:"offer"`
}

type AcceptedPayload struct {
	ReceiverID string                     `json:"receiverId"`
	Answer     *webrtc.SessionDescription `json:"answer"`
}

type RejectedPayload struct {
	ReceiverID string `json:"receiverId"`
	Reason     string `json:"reason"`
}

type EndedPayload struct {
	Duration int    `json:"duration"`
	Reason   string `json:"reason,omitempty"`
}

type BusyPayload struct {
	Message string `json:"message"`
}

type CandidatePayload struct {
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}
