package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/google/uuid"
)

// NotificationStore keeps notifications in memory.
type NotificationStore struct {
	mu          sync.RWMutex
	byRecipient map[string][]*models.Notification // recipientID -> notifications
	delivered   map[string]bool                   // messageID + "/" + recipientID
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		byRecipient: make(map[string][]*models.Notification),
		delivered:   make(map[string]bool),
	}
}

// CreateNotification stores n unread. A second notification for the same
// message and recipient is rejected with storage.ErrConflict.
func (s *NotificationStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := n.MessageID + "/" + n.RecipientID
	if s.delivered[key] {
		return nil, storage.ErrConflict
	}
	stored := *n
	stored.ID = uuid.NewString()
	stored.IsRead = false
	stored.CreatedAt = time.Now().UTC()

	s.delivered[key] = true
	s.byRecipient[n.RecipientID] = append(s.byRecipient[n.RecipientID], &stored)
	out := stored
	return &out, nil
}

// NotificationsForUser lists a user's notifications, newest first.
func (s *NotificationStore) NotificationsForUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byRecipient[userID]
	out := make([]*models.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		cp := *list[i]
		out = append(out, &cp)
	}
	return out, nil
}

// UnreadByConversation counts a user's unread notifications per
// conversation, skipping muted ones, most recent notification first.
func (s *NotificationStore) UnreadByConversation(ctx context.Context, userID string, muted []string) ([]models.UnreadCount, error) {
	skip := make(map[string]bool, len(muted))
	for _, id := range muted {
		skip[id] = true
	}

	s.mu.RLock()
	groups := make(map[string]*models.UnreadCount)
	for _, n := range s.byRecipient[userID] {
		if n.IsRead || skip[n.ConversationID] {
			continue
		}
		g, ok := groups[n.ConversationID]
		if !ok {
			g = &models.UnreadCount{ConversationID: n.ConversationID}
			groups[n.ConversationID] = g
		}
		g.Count++
		if n.CreatedAt.After(g.LatestAt) {
			g.LatestAt = n.CreatedAt
		}
	}
	s.mu.RUnlock()

	out := make([]models.UnreadCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LatestAt.Equal(out[j].LatestAt) {
			return out[i].ConversationID < out[j].ConversationID
		}
		return out[i].LatestAt.After(out[j].LatestAt)
	})
	return out, nil
}

// MarkConversationRead marks every notification of a conversation as read
// for userID and returns how many changed.
func (s *NotificationStore) MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, n := range s.byRecipient[userID] {
		if n.ConversationID == conversationID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}
