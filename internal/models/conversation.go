package models

import "time"

// Conversation is either a one-to-one chat or a group chat.
type Conversation struct {
	ID              string    `json:"id"`
	Name            string    `json:"name,omitempty"`            // Only set for groups
	IsGroup         bool      `json:"isGroup"`
	Members         []string  `json:"members"`                   // Ordered member user IDs
	AdminID         string    `json:"adminId,omitempty"`         // Group creator
	LatestMessageID string    `json:"latestMessageId,omitempty"` // Updated by the message store
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasMember reports whether userID belongs to the conversation.
func (c *Conversation) HasMember(userID string) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// ConversationSummary is the trimmed conversation shape embedded in
// notification payloads.
type ConversationSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	IsGroup bool   `json:"isGroup"`
}

// Membership is the routing view of a conversation used for delivery fan-out.
type Membership struct {
	ConversationID string   `json:"conversationId"`
	Name           string   `json:"name,omitempty"`
	IsGroup        bool     `json:"isGroup"`
	Members        []string `json:"members"`
}

// Membership returns the routing view of c.
func (c *Conversation) Membership() *Membership {
	members := make([]string, len(c.Members))
	copy(members, c.Members)
	return &Membership{
		ConversationID: c.ID,
		Name:           c.Name,
		IsGroup:        c.IsGroup,
		Members:        members,
	}
}

// Has reports whether userID is a member.
func (m *Membership) Has(userID string) bool {
	for _, id := range m.Members {
		if id == userID {
			return true
		}
	}
	return false
}
