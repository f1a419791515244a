package memory

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/google/uuid"
)

// MessageStore keeps messages in memory and updates the owning
// conversation's latest message pointer.
type MessageStore struct {
	conversations *ConversationStore

	mu       sync.RWMutex
	messages map[string][]*models.Message // conversationID -> messages, oldest first
	byID     map[string]*models.Message
}

func NewMessageStore(conversations *ConversationStore) *MessageStore {
	return &MessageStore{
		conversations: conversations,
		messages:      make(map[string][]*models.Message),
		byID:          make(map[string]*models.Message),
	}
}

// CreateMessage persists msg and returns the stored copy with id and timestamp set.
func (s *MessageStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	conv, err := s.conversations.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasMember(msg.SenderID) {
		return nil, storage.ErrNotMember
	}

	stored := *msg
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	stored.Attachments = append([]models.Attachment(nil), msg.Attachments...)

	s.mu.Lock()
	s.messages[stored.ConversationID] = append(s.messages[stored.ConversationID], &stored)
	s.byID[stored.ID] = &stored
	s.mu.Unlock()

	if err := s.conversations.TouchLatest(ctx, stored.ConversationID, stored.ID, stored.CreatedAt); err != nil {
		log.Printf("Error updating latest message of conversation %s: %v", stored.ConversationID, err)
	}

	out := stored
	return &out, nil
}

func (s *MessageStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *msg
	return &out, nil
}

// GetMessages returns the history of a conversation, oldest first.
func (s *MessageStore) GetMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Message, 0, len(s.messages[conversationID]))
	for _, msg := range s.messages[conversationID] {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}
