package memory

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/google/uuid"
)

// ConversationStore keeps one-to-one and group conversations in memory.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation // conversationID -> conversation
	userIndex     map[string][]string             // userID -> []conversationID
	muted         map[string]map[string]bool      // userID -> set(conversationID)
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*models.Conversation),
		userIndex:     make(map[string][]string),
		muted:         make(map[string]map[string]bool),
	}
}

// StartOrGetDirect returns the one-to-one conversation between two users,
// creating it on first use.
func (s *ConversationStore) StartOrGetDirect(ctx context.Context, user1, user2 string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.userIndex[user1] {
		conv := s.conversations[id]
		if conv.IsGroup || len(conv.Members) != 2 {
			continue
		}
		if (conv.Members[0] == user1 && conv.Members[1] == user2) ||
			(conv.Members[0] == user2 && conv.Members[1] == user1) {
			return clone(conv), nil
		}
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Members:   []string{user1, user2},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	s.userIndex[user1] = append(s.userIndex[user1], conv.ID)
	s.userIndex[user2] = append(s.userIndex[user2], conv.ID)
	log.Printf("Created direct conversation %s between %s and %s", conv.ID, user1, user2)
	return clone(conv), nil
}

// CreateGroup creates a group conversation. The admin is always the first member.
func (s *ConversationStore) CreateGroup(ctx context.Context, name, adminID string, members []string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Name:      name,
		IsGroup:   true,
		Members:   uniqueMembers(adminID, members),
		AdminID:   adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	for _, userID := range conv.Members {
		s.userIndex[userID] = append(s.userIndex[userID], conv.ID)
	}
	log.Printf("Created group %s (%s) with %d members", conv.ID, name, len(conv.Members))
	return clone(conv), nil
}

func (s *ConversationStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(conv), nil
}

// ConversationsForUser lists a user's conversations, most recently active first.
func (s *ConversationStore) ConversationsForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Conversation, 0, len(s.userIndex[userID]))
	for _, id := range s.userIndex[userID] {
		if conv, ok := s.conversations[id]; ok {
			result = append(result, clone(conv))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

// AddMember adds userID to a group.
func (s *ConversationStore) AddMember(ctx context.Context, conversationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return storage.ErrNotFound
	}
	if !conv.IsGroup {
		return storage.ErrNotGroup
	}
	if conv.HasMember(userID) {
		return storage.ErrConflict
	}
	conv.Members = append(conv.Members, userID)
	conv.UpdatedAt = time.Now().UTC()
	s.userIndex[userID] = append(s.userIndex[userID], conversationID)
	log.Printf("User %s joined group %s. Total members: %d", userID, conversationID, len(conv.Members))
	return nil
}

// RemoveMember removes userID from a group.
func (s *ConversationStore) RemoveMember(ctx context.Context, conversationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return storage.ErrNotFound
	}
	if !conv.IsGroup {
		return storage.ErrNotGroup
	}
	found := false
	for i, id := range conv.Members {
		if id == userID {
			conv.Members = append(conv.Members[:i], conv.Members[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return storage.ErrNotMember
	}
	conv.UpdatedAt = time.Now().UTC()

	ids := s.userIndex[userID]
	for i, id := range ids {
		if id == conversationID {
			s.userIndex[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	log.Printf("User %s left group %s. Total members: %d", userID, conversationID, len(conv.Members))
	return nil
}

// SetMuted mutes or unmutes a conversation for one user.
func (s *ConversationStore) SetMuted(ctx context.Context, userID, conversationID string, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return storage.ErrNotFound
	}
	if !conv.HasMember(userID) {
		return storage.ErrNotMember
	}
	if muted {
		if s.muted[userID] == nil {
			s.muted[userID] = make(map[string]bool)
		}
		s.muted[userID][conversationID] = true
	} else {
		delete(s.muted[userID], conversationID)
	}
	return nil
}

// MutedConversations returns the ids a user has muted.
func (s *ConversationStore) MutedConversations(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.muted[userID]))
	for id := range s.muted[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// TouchLatest records messageID as the latest message of the conversation.
func (s *ConversationStore) TouchLatest(ctx context.Context, conversationID, messageID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return storage.ErrNotFound
	}
	conv.LatestMessageID = messageID
	conv.UpdatedAt = at
	return nil
}

func clone(c *models.Conversation) *models.Conversation {
	cp := *c
	cp.Members = append([]string(nil), c.Members...)
	return &cp
}

func uniqueMembers(first string, rest []string) []string {
	seen := map[string]bool{first: true}
	out := []string{first}
	for _, id := range rest {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
