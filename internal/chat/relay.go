// Package chat routes chat traffic to live connections: persisted messages,
// typing indicators and per-recipient notifications.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Vasu1712/scenyx-chat/internal/events"
	"github.com/Vasu1712/scenyx-chat/internal/models"
)

// Outbound events.
const (
	EventMessageReceived = "message recieved"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
	EventNewNotification = "new notification"
)

// dedupWindow is how many recent message ids are remembered.
const dedupWindow = 4096

var (
	ErrInvalidMessage    = errors.New("chat: message is missing id, conversation or sender")
	ErrNotMember         = errors.New("chat: user is not a member of the conversation")
	ErrAlreadyDispatched = errors.New("chat: message already dispatched")
)

// Transport is the part of the connection hub the relay pushes through.
type Transport interface {
	IsOnline(userID string) bool
	SendToUser(userID, event string, payload any) bool
	SendToRoom(roomID, event string, payload any, members []string, exceptUserID string) int
}

// NotificationStore is the persistence collaborator for notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// ProfileSource resolves user profiles for notification payloads.
type ProfileSource interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// TypingPayload is sent with typing and stop typing events.
type TypingPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// NotificationPush is the payload of a new notification event.
type NotificationPush struct {
	Notification *models.NotificationView `json:"notification"`
	ChatID       string                   `json:"chatId"`
}

// Relay delivers messages and typing signals and fans out notifications.
type Relay struct {
	hub           Transport
	resolver      *Resolver
	notifications NotificationStore
	profiles      ProfileSource
	publisher     events.Publisher

	seenMu sync.Mutex
	seen   map[string]struct{}
	order  []string
}

// NewRelay wires a relay. profiles and publisher may be nil.
func NewRelay(hub Transport, resolver *Resolver, notifications NotificationStore, profiles ProfileSource, publisher events.Publisher) *Relay {
	if publisher == nil {
		publisher = events.NewFallback()
	}
	return &Relay{
		hub:           hub,
		resolver:      resolver,
		notifications: notifications,
		profiles:      profiles,
		publisher:     publisher,
		seen:          make(map[string]struct{}),
	}
}

// Dispatch delivers a persisted message to the online members of its
// conversation and creates one notification per non-sender member. A message
// id is only dispatched once; later calls return ErrAlreadyDispatched.
func (r *Relay) Dispatch(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.ID == "" || msg.ConversationID == "" || msg.SenderID == "" {
		return ErrInvalidMessage
	}
	if !r.markSeen(msg.ID) {
		return ErrAlreadyDispatched
	}

	m, err := r.resolver.Members(ctx, msg.ConversationID)
	if err != nil {
		r.unmarkSeen(msg.ID)
		return err
	}
	if !m.Has(msg.SenderID) {
		r.unmarkSeen(msg.ID)
		return fmt.Errorf("sender %s in %s: %w", msg.SenderID, msg.ConversationID, ErrNotMember)
	}

	r.deliver(m, msg)
	r.fanOut(ctx, m, msg)
	return nil
}

func (r *Relay) deliver(m *models.Membership, msg *models.Message) {
	if m.IsGroup {
		n := r.hub.SendToRoom(m.ConversationID, EventMessageReceived, msg, m.Members, msg.SenderID)
		log.Printf("[Chat] message %s delivered to %d connection(s) in room %s", msg.ID, n, m.ConversationID)
		return
	}

	for _, userID := range m.Members {
		if userID == msg.SenderID {
			continue
		}
		if !r.hub.IsOnline(userID) {
			log.Printf("[Chat] recipient %s of message %s is offline, skipping live delivery", userID, msg.ID)
			continue
		}
		if !r.hub.SendToUser(userID, EventMessageReceived, msg) {
			log.Printf("[Chat] live delivery of message %s to %s dropped", msg.ID, userID)
		}
	}
}

func (r *Relay) fanOut(ctx context.Context, m *models.Membership, msg *models.Message) {
	var sender *models.User
	if r.profiles != nil {
		u, err := r.profiles.GetUser(ctx, msg.SenderID)
		if err != nil {
			log.Printf("[Chat] sender profile %s unavailable for notifications: %v", msg.SenderID, err)
		} else {
			sender = u
		}
	}
	summary := &models.ConversationSummary{ID: m.ConversationID, Name: m.Name, IsGroup: m.IsGroup}
	preview := Preview(msg)

	for _, recipient := range m.Members {
		if recipient == msg.SenderID {
			continue
		}
		r.notify(ctx, recipient, msg, preview, sender, summary)
	}
}

// notify handles one recipient. Failures are logged and never reach the
// caller, so one bad recipient cannot block the rest.
func (r *Relay) notify(ctx context.Context, recipient string, msg *models.Message, preview string, sender *models.User, summary *models.ConversationSummary) {
	created, err := r.notifications.CreateNotification(ctx, &models.Notification{
		RecipientID:    recipient,
		SenderID:       msg.SenderID,
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Type:           models.NotificationTypeMessage,
		Content:        preview,
	})
	if err != nil {
		log.Printf("[Chat] failed to create notification for %s (message %s): %v", recipient, msg.ID, err)
		return
	}

	if err := r.publisher.Publish(ctx, events.NotificationCreated, events.NewEnvelope(events.NotificationCreated, created)); err != nil {
		log.Printf("[Chat] failed to publish notification %s: %v", created.ID, err)
	}

	if !r.hub.IsOnline(recipient) {
		return
	}
	push := NotificationPush{
		Notification: &models.NotificationView{Notification: *created, Sender: sender, Conversation: summary},
		ChatID:       msg.ConversationID,
	}
	if !r.hub.SendToUser(recipient, EventNewNotification, push) {
		log.Printf("[Chat] live notification %s to %s dropped", created.ID, recipient)
	}
}

// Typing relays a typing (start) or stop typing signal from userID to the
// other online members of the conversation. Nothing is stored and no timer
// is kept; the emitting client sends the stop signal itself.
func (r *Relay) Typing(ctx context.Context, conversationID, userID string, start bool) error {
	m, err := r.resolver.Members(ctx, conversationID)
	if err != nil {
		return err
	}
	if !m.Has(userID) {
		return fmt.Errorf("typing by %s in %s: %w", userID, conversationID, ErrNotMember)
	}

	event := EventStopTyping
	if start {
		event = EventTyping
	}
	payload := TypingPayload{UserID: userID, ConversationID: conversationID}
	for _, other := range m.Members {
		if other == userID || !r.hub.IsOnline(other) {
			continue
		}
		r.hub.SendToUser(other, event, payload)
	}
	return nil
}

func (r *Relay) markSeen(id string) bool {
	r.seenMu.Lock()
	defer r.seenMu.Unlock()
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	if len(r.order) > dedupWindow {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
	return true
}

func (r *Relay) unmarkSeen(id string) {
	r.seenMu.Lock()
	defer r.seenMu.Unlock()
	delete(r.seen, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
