package models

import "time"

// Attachment kinds.
const (
	AttachmentImage = "image"
	AttachmentFile  = "file"
)

// Attachment describes media that was uploaded elsewhere and linked to a message.
type Attachment struct {
	URL  string `json:"url"`
	Kind string `json:"kind"` // "image" or "file"
	Name string `json:"name,omitempty"`
}

// Message is a persisted chat message.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	SenderID       string       `json:"senderId"`
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}
