// Package call relays WebRTC call signaling between two users. It keeps one
// in-memory session per active call and never touches media; offers, answers
// and ICE candidates are forwarded to the other party as they arrive.
package call

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/events"
	"github.com/Vasu1712/scenyx-chat/internal/models"
)

// Outbound events.
const (
	EventIncoming     = "call:incoming"
	EventAccepted     = "call:accepted"
	EventRejected     = "call:rejected"
	EventEnded        = "call:ended"
	EventBusy         = "call:busy"
	EventICECandidate = "webrtc:ice-candidate"
)

var (
	ErrInvalidRequest = errors.New("call: invalid request")
	ErrBusy           = errors.New("call: participant busy")
	ErrUnavailable    = errors.New("call: receiver offline")
	ErrNoSession      = errors.New("call: no matching session")
)

// Manager owns active call sessions. A user takes part in at most one
// ringing or connected session at a time.
type Manager struct {
	hub       Transport
	logs      LogStore
	publisher events.Publisher
	now       func() time.Time

	mu     sync.Mutex
	byUser map[string]*Session // both participants point at the same session
}

// New creates a call Manager. logs and publisher may be nil.
func New(hub Transport, logs LogStore, publisher events.Publisher) *Manager {
	if publisher == nil {
		publisher = events.NewFallback()
	}
	return &Manager{
		hub:       hub,
		logs:      logs,
		publisher: publisher,
		now:       time.Now,
		byUser:    make(map[string]*Session),
	}
}

// Initiate starts ringing req.ReceiverID. When either side already has an
// active session the caller gets call:busy and nothing changes.
func (m *Manager) Initiate(ctx context.Context, req InitiateRequest) error {
	if req.CallerID == "" || req.ReceiverID == "" || req.CallerID == req.ReceiverID || req.Offer == nil {
		return ErrInvalidRequest
	}
	if !m.hub.IsOnline(req.ReceiverID) {
		m.hub.SendToUser(req.CallerID, EventBusy, BusyPayload{Message: "User is offline"})
		log.Printf("[Call] %s called %s who is offline", req.CallerID, req.ReceiverID)
		return ErrUnavailable
	}

	m.mu.Lock()
	if _, busy := m.byUser[req.ReceiverID]; busy {
		m.mu.Unlock()
		m.hub.SendToUser(req.CallerID, EventBusy, BusyPayload{Message: "User is busy on another call"})
		log.Printf("[Call] %s called %s who is busy", req.CallerID, req.ReceiverID)
		return ErrBusy
	}
	if _, busy := m.byUser[req.CallerID]; busy {
		m.mu.Unlock()
		m.hub.SendToUser(req.CallerID, EventBusy, BusyPayload{Message: "You are already on a call"})
		log.Printf("[Call] %s tried to call %s while on another call", req.CallerID, req.ReceiverID)
		return ErrBusy
	}
	s := &Session{
		CallerID:   req.CallerID,
		ReceiverID: req.ReceiverID,
		State:      StateRinging,
		StartedAt:  m.now(),
	}
	m.byUser[req.CallerID] = s
	m.byUser[req.ReceiverID] = s
	m.mu.Unlock()

	log.Printf("[Call] %s is ringing %s", req.CallerID, req.ReceiverID)
	if !m.hub.SendToUser(req.ReceiverID, EventIncoming, IncomingPayload{
		CallerID:     req.CallerID,
		CallerName:   req.CallerName,
		CallerAvatar: req.CallerAvatar,
		Offer:        req.Offer,
	}) {
		log.Printf("[Call] incoming call signal to %s dropped", req.ReceiverID)
	}
	return nil
}

// Accept moves a ringing session to connected and forwards the answer to
// the caller. Only the receiver may accept.
func (m *Manager) Accept(ctx context.Context, req AcceptRequest) error {
	if req.Answer == nil {
		return ErrInvalidRequest
	}

	m.mu.Lock()
	s := m.pairLocked(req.CallerID, req.ReceiverID)
	if s == nil || s.State != StateRinging {
		m.mu.Unlock()
		return ErrNoSession
	}
	s.State = StateConnected
	s.AnsweredAt = m.now()
	m.mu.Unlock()

	log.Printf("[Call] %s accepted call from %s", req.ReceiverID, req.CallerID)
	m.hub.SendToUser(req.CallerID, EventAccepted, AcceptedPayload{ReceiverID: req.ReceiverID, Answer: req.Answer})
	return nil
}

// Reject discards a ringing session and tells the caller. Only the receiver
// may reject.
func (m *Manager) Reject(ctx context.Context, req RejectRequest) error {
	m.mu.Lock()
	s := m.pairLocked(req.CallerID, req.ReceiverID)
	if s == nil || s.State != StateRinging {
		m.mu.Unlock()
		return ErrNoSession
	}
	s.State = StateRejected
	m.removeLocked(s)
	final := *s
	m.mu.Unlock()

	log.Printf("[Call] %s rejected call from %s: %q", req.ReceiverID, req.CallerID, req.Reason)
	m.hub.SendToUser(req.CallerID, EventRejected, RejectedPayload{ReceiverID: req.ReceiverID, Reason: req.Reason})
	m.writeLog(ctx, &final, models.CallRejected, 0)
	return nil
}

// End finishes a ringing or connected session on behalf of actor, who must
// be one of the two participants. The other party receives call:ended.
func (m *Manager) End(ctx context.Context, actor string, req EndRequest) error {
	if actor != req.CallerID && actor != req.ReceiverID {
		return ErrInvalidRequest
	}

	m.mu.Lock()
	s := m.pairLocked(req.CallerID, req.ReceiverID)
	if s == nil || !s.State.Active() {
		m.mu.Unlock()
		return ErrNoSession
	}
	wasConnected := s.State == StateConnected
	s.State = StateEnded
	m.removeLocked(s)
	final := *s
	m.mu.Unlock()

	duration := req.Duration
	if duration <= 0 {
		duration = m.elapsed(&final)
	}
	peer := final.Peer(actor)
	log.Printf("[Call] %s ended call with %s after %ds", actor, peer, duration)
	m.hub.SendToUser(peer, EventEnded, EndedPayload{Duration: duration})

	status := models.CallMissed
	if wasConnected {
		status = models.CallCompleted
	}
	m.writeLog(ctx, &final, status, duration)
	return nil
}

// RelayCandidate forwards an ICE candidate verbatim while a session joins
// req.From and req.To. Candidates for unknown sessions are dropped.
func (m *Manager) RelayCandidate(ctx context.Context, req CandidateRequest) error {
	m.mu.Lock()
	s, ok := m.byUser[req.From]
	live := ok && s.Peer(req.From) == req.To && s.State.Active()
	m.mu.Unlock()
	if !live {
		return ErrNoSession
	}
	m.hub.SendToUser(req.To, EventICECandidate, CandidatePayload{From: req.From, Candidate: req.Candidate})
	return nil
}

// Hangup ends the active session of userID, if any, as if userID had sent
// call:end. It is run when a user's connection goes away.
func (m *Manager) Hangup(ctx context.Context, userID string) {
	m.mu.Lock()
	s, ok := m.byUser[userID]
	if !ok {
		m.mu.Unlock()
		return
	}
	wasConnected := s.State == StateConnected
	s.State = StateEnded
	m.removeLocked(s)
	final := *s
	m.mu.Unlock()

	duration := m.elapsed(&final)
	peer := final.Peer(userID)
	log.Printf("[Call] %s disconnected, ending call with %s", userID, peer)
	m.hub.SendToUser(peer, EventEnded, EndedPayload{Duration: duration, Reason: "disconnected"})

	status := models.CallMissed
	if wasConnected {
		status = models.CallCompleted
	}
	m.writeLog(ctx, &final, status, duration)
}

// Session returns a snapshot of the active session userID takes part in.
func (m *Manager) Session(userID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byUser[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ActiveSessions returns snapshots of every active session.
func (m *Manager) ActiveSessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[*Session]bool, len(m.byUser))
	out := make([]Session, 0, len(m.byUser)/2)
	for _, s := range m.byUser {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, *s)
	}
	return out
}

// Close hangs up every active session.
func (m *Manager) Close(ctx context.Context) {
	for _, s := range m.ActiveSessions() {
		m.Hangup(ctx, s.CallerID)
	}
}

func (m *Manager) pairLocked(callerID, receiverID string) *Session {
	s, ok := m.byUser[callerID]
	if !ok || s.CallerID != callerID || s.ReceiverID != receiverID {
		return nil
	}
	return s
}

func (m *Manager) removeLocked(s *Session) {
	if m.byUser[s.CallerID] == s {
		delete(m.byUser, s.CallerID)
	}
	if m.byUser[s.ReceiverID] == s {
		delete(m.byUser, s.ReceiverID)
	}
}

func (m *Manager) elapsed(s *Session) int {
	if s.AnsweredAt.IsZero() {
		return 0
	}
	return int(m.now().Sub(s.AnsweredAt).Seconds())
}

// writeLog records a finished call. Failures are logged; the in-memory
// transition has already happened and is not rolled back.
func (m *Manager) writeLog(ctx context.Context, s *Session, status string, duration int) {
	entry := &models.CallLog{
		CallerID:   s.CallerID,
		ReceiverID: s.ReceiverID,
		Status:     status,
		Duration:   duration,
		StartedAt:  s.StartedAt,
		EndedAt:    m.now(),
	}
	if m.logs != nil {
		created, err := m.logs.CreateCallLog(ctx, entry)
		if err != nil {
			log.Printf("[Call] failed to write call log %s -> %s (%s): %v", s.CallerID, s.ReceiverID, status, err)
		} else {
			entry = created
		}
	}
	if err := m.publisher.Publish(ctx, events.CallEnded, events.NewEnvelope(events.CallEnded, entry)); err != nil {
		log.Printf("[Call] failed to publish call log %s -> %s: %v", s.CallerID, s.ReceiverID, err)
	}
}
