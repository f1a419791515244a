package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/Vasu1712/scenyx-chat/internal/models"
)

type userSend struct {
	userID  string
	event   string
	payload any
}

type roomSend struct {
	roomID  string
	event   string
	members []string
	except  string
}

// fakeHub records every push instead of writing to sockets.
type fakeHub struct {
	mu       sync.Mutex
	online   map[string]bool
	sends    []userSend
	rooms    []roomSend
	roomSize int
}

func newFakeHub(online ...string) *fakeHub {
	h := &fakeHub{online: make(map[string]bool)}
	for _, u := range online {
		h.online[u] = true
	}
	return h
}

func (h *fakeHub) IsOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online[userID]
}

func (h *fakeHub) SendToUser(userID, event string, payload any) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.online[userID] {
		return false
	}
	h.sends = append(h.sends, userSend{userID, event, payload})
	return true
}

func (h *fakeHub) SendToRoom(roomID, event string, payload any, members []string, exceptUserID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms = append(h.rooms, roomSend{roomID, event, members, exceptUserID})
	return h.roomSize
}

func (h *fakeHub) sentTo(userID, event string) []userSend {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []userSend
	for _, s := range h.sends {
		if s.userID == userID && s.event == event {
			out = append(out, s)
		}
	}
	return out
}

// recordingNotifications counts CreateNotification calls per recipient and
// can be told to fail for some of them.
type recordingNotifications struct {
	mu      sync.Mutex
	created []*models.Notification
	failFor map[string]bool
}

func (s *recordingNotifications) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[n.RecipientID] {
		return nil, errors.New("store unavailable")
	}
	out := *n
	out.ID = "n-" + n.RecipientID + "-" + n.MessageID
	s.created = append(s.created, &out)
	return &out, nil
}

func (s *recordingNotifications) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, n := range s.created {
		out = append(out, n.RecipientID)
	}
	return out
}

type staticConversations map[string]*models.Conversation

func (s staticConversations) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	c, ok := s[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *c
	return &cp, nil
}

type staticProfiles map[string]*models.User

func (p staticProfiles) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := p[id]
	if !ok {
		return nil, errors.New("no profile")
	}
	return u, nil
}
