package notifications

import (
	"context"
	"net/http"

	"github.com/Vasu1712/scenyx-chat/internal/api/respond"
	"github.com/Vasu1712/scenyx-chat/internal/models"
)

// Store reads and updates a user's notifications.
type Store interface {
	UnreadByConversation(ctx context.Context, userID string, muted []string) ([]models.UnreadCount, error)
	MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error)
}

// MuteStore records which conversations a user muted.
type MuteStore interface {
	SetMuted(ctx context.Context, userID, conversationID string, muted bool) error
	MutedConversations(ctx context.Context, userID string) ([]string, error)
}

type NotificationHandler struct {
	Store Store
	Mutes MuteStore
}

// Unread handles GET /api/v1/notifications/unread?user_id=. Muted
// conversations are left out; the most recently notified come first.
func (h *NotificationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.Actor(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	muted, err := h.Mutes.MutedConversations(r.Context(), userID)
	if err != nil {
		respond.StoreError(w, "list muted conversations", err)
		return
	}
	counts, err := h.Store.UnreadByConversation(r.Context(), userID, muted)
	if err != nil {
		respond.StoreError(w, "aggregate unread", err)
		return
	}
	respond.JSON(w, http.StatusOK, counts)
}

// MarkRead handles POST /api/v1/notifications/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID         string `json:"userId"`
		ConversationID string `json:"conversationId"`
	}
	if err := respond.Decode(r, &req); err != nil || req.ConversationID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	userID, ok := respond.Actor(w, r, req.UserID)
	if !ok {
		return
	}
	n, err := h.Store.MarkConversationRead(r.Context(), userID, req.ConversationID)
	if err != nil {
		respond.StoreError(w, "mark read", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int{"updated": n})
}

// Mute handles POST /api/v1/notifications/mute.
func (h *NotificationHandler) Mute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID         string `json:"userId"`
		ConversationID string `json:"conversationId"`
		Muted          bool   `json:"muted"`
	}
	if err := respond.Decode(r, &req); err != nil || req.ConversationID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	userID, ok := respond.Actor(w, r, req.UserID)
	if !ok {
		return
	}
	if err := h.Mutes.SetMuted(r.Context(), userID, req.ConversationID, req.Muted); err != nil {
		respond.StoreError(w, "set muted", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
