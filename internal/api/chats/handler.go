package chats

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-chat/internal/api/respond"
	"github.com/Vasu1712/scenyx-chat/internal/chat"
	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/gorilla/mux"
)

// ConversationStore is the conversation persistence used by the chat endpoints.
type ConversationStore interface {
	StartOrGetDirect(ctx context.Context, user1, user2 string) (*models.Conversation, error)
	ConversationsForUser(ctx context.Context, userID string) ([]*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
}

// MessageStore is the "create message" collaborator plus history reads.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetMessages(ctx context.Context, conversationID string) ([]*models.Message, error)
}

// Dispatcher hands persisted messages to live delivery and notification fan-out.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *models.Message) error
}

type ChatHandler struct {
	Conversations ConversationStore
	Messages      MessageStore
	Relay         Dispatcher
}

// StartOrGetDirect handles POST /api/v1/chats/direct.
func (h *ChatHandler) StartOrGetDirect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		OtherID string `json:"otherId"`
	}
	if err := respond.Decode(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Printf("[Chat] error decoding direct chat request: %v", err)
		return
	}
	userID, ok := respond.Actor(w, r, req.UserID)
	if !ok {
		return
	}
	if req.OtherID == "" || req.OtherID == userID {
		http.Error(w, "otherId must name another user", http.StatusBadRequest)
		return
	}

	conv, err := h.Conversations.StartOrGetDirect(r.Context(), userID, req.OtherID)
	if err != nil {
		respond.StoreError(w, "start direct chat", err)
		return
	}
	respond.JSON(w, http.StatusOK, conv)
}

// ListConversations handles GET /api/v1/chats?user_id=.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.Actor(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	convs, err := h.Conversations.ConversationsForUser(r.Context(), userID)
	if err != nil {
		respond.StoreError(w, "list conversations", err)
		return
	}
	if convs == nil {
		convs = []*models.Conversation{}
	}
	respond.JSON(w, http.StatusOK, convs)
}

// GetMessages handles GET /api/v1/chats/{id}/messages. When the caller is
// known it must be a member of the conversation.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	userID, ok := respond.Actor(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	conv, err := h.Conversations.GetConversation(r.Context(), convID)
	if err != nil {
		respond.StoreError(w, "get conversation", err)
		return
	}
	if !conv.HasMember(userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	msgs, err := h.Messages.GetMessages(r.Context(), convID)
	if err != nil {
		respond.StoreError(w, "get messages", err)
		return
	}
	respond.JSON(w, http.StatusOK, msgs)
}

// SendMessage handles POST /api/v1/chats/{id}/messages. The response only
// depends on persistence; delivery and notification failures are logged.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID    string              `json:"senderId"`
		Content     string              `json:"content"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if err := respond.Decode(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Printf("[Chat] error decoding send request: %v", err)
		return
	}
	senderID, ok := respond.Actor(w, r, req.SenderID)
	if !ok {
		return
	}
	if req.Content == "" && len(req.Attachments) == 0 {
		http.Error(w, "Message needs content or attachments", http.StatusBadRequest)
		return
	}

	msg, err := h.Messages.CreateMessage(r.Context(), &models.Message{
		ConversationID: mux.Vars(r)["id"],
		SenderID:       senderID,
		Content:        req.Content,
		Attachments:    req.Attachments,
	})
	if err != nil {
		respond.StoreError(w, "create message", err)
		return
	}
	respond.JSON(w, http.StatusCreated, msg)

	if err := h.Relay.Dispatch(context.WithoutCancel(r.Context()), msg); err != nil && !errors.Is(err, chat.ErrAlreadyDispatched) {
		log.Printf("[Chat] dispatch of message %s failed: %v", msg.ID, err)
	}
}
