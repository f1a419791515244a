// Package storage holds what the memory and postgres backends share.
package storage

import (
	"context"
	"errors"

	"github.com/Vasu1712/scenyx-chat/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict is returned when a write would duplicate existing state.
	ErrConflict = errors.New("storage: conflict")
	// ErrNotMember is returned when a user acts on a conversation they do not belong to.
	ErrNotMember = errors.New("storage: user is not a member of the conversation")
	// ErrNotGroup is returned for membership changes on one-to-one conversations.
	ErrNotGroup = errors.New("storage: conversation is not a group")
)

// ConversationStore owns conversations, their members and per-user mutes.
type ConversationStore interface {
	StartOrGetDirect(ctx context.Context, user1, user2 string) (*models.Conversation, error)
	CreateGroup(ctx context.Context, name, adminID string, members []string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ConversationsForUser(ctx context.Context, userID string) ([]*models.Conversation, error)
	AddMember(ctx context.Context, conversationID, userID string) error
	RemoveMember(ctx context.Context, conversationID, userID string) error
	SetMuted(ctx context.Context, userID, conversationID string, muted bool) error
	MutedConversations(ctx context.Context, userID string) ([]string, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	GetMessages(ctx context.Context, conversationID string) ([]*models.Message, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
	NotificationsForUser(ctx context.Context, userID string) ([]*models.Notification, error)
	UnreadByConversation(ctx context.Context, userID string, muted []string) ([]models.UnreadCount, error)
	MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error)
}

type CallLogStore interface {
	CreateCallLog(ctx context.Context, l *models.CallLog) (*models.CallLog, error)
	CallLogsForUser(ctx context.Context, userID string) ([]*models.CallLog, error)
}

type UserStore interface {
	UpsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Stores bundles one backend's stores.
type Stores struct {
	Conversations ConversationStore
	Messages      MessageStore
	Notifications NotificationStore
	CallLogs      CallLogStore
	Users         UserStore
}
