package models

import "time"

// NotificationTypeMessage tags notifications created for new chat messages.
const NotificationTypeMessage = "message"

// Notification is a durable per-recipient record of a message.
type Notification struct {
	ID             string    `json:"id"`
	RecipientID    string    `json:"recipientId"`
	SenderID       string    `json:"senderId"`
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	Type           string    `json:"type"`
	Content        string    `json:"content"` // Short preview of the message
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NotificationView is a notification with its sender and conversation
// expanded, as pushed to online recipients.
type NotificationView struct {
	Notification
	Sender       *User                `json:"sender,omitempty"`
	Conversation *ConversationSummary `json:"conversation,omitempty"`
}

// UnreadCount is the number of unread notifications in one conversation.
type UnreadCount struct {
	ConversationID string    `json:"conversationId"`
	Count          int       `json:"count"`
	LatestAt       time.Time `json:"latestAt"`
}
