package groups

import (
	"context"
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-chat/internal/api/respond"
	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/gorilla/mux"
)

// GroupStore is the group persistence used by the membership endpoints.
type GroupStore interface {
	CreateGroup(ctx context.Context, name, adminID string, members []string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	AddMember(ctx context.Context, conversationID, userID string) error
	RemoveMember(ctx context.Context, conversationID, userID string) error
}

// Invalidator drops cached memberships after a change.
type Invalidator interface {
	Invalidate(ctx context.Context, conversationID string)
}

// RoomLeaver takes a removed member's connections out of the group room.
type RoomLeaver interface {
	LeaveUser(userID, roomID string)
}

type GroupHandler struct {
	Store    GroupStore
	Resolver Invalidator
	Rooms    RoomLeaver // optional
}

// CreateGroup handles POST /api/v1/groups. A group needs a name and at
// least one member besides the admin.
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string   `json:"name"`
		AdminID string   `json:"adminId"`
		Members []string `json:"members"`
	}
	if err := respond.Decode(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Printf("[Group] error decoding create request: %v", err)
		return
	}
	adminID, ok := respond.Actor(w, r, req.AdminID)
	if !ok {
		return
	}
	others := 0
	for _, m := range req.Members {
		if m != "" && m != adminID {
			others++
		}
	}
	if req.Name == "" || others == 0 {
		http.Error(w, "Group name and at least one other member are required", http.StatusBadRequest)
		return
	}

	conv, err := h.Store.CreateGroup(r.Context(), req.Name, adminID, req.Members)
	if err != nil {
		respond.StoreError(w, "create group", err)
		return
	}
	h.Resolver.Invalidate(r.Context(), conv.ID)
	respond.JSON(w, http.StatusCreated, conv)
}

// AddMember handles POST /api/v1/groups/{id}/members. Only the admin may add.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]
	var req struct {
		ActorID string `json:"actorId"`
		UserID  string `json:"userId"`
	}
	if err := respond.Decode(r, &req); err != nil || req.UserID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	actor, ok := respond.Actor(w, r, req.ActorID)
	if !ok || !h.requireAdmin(w, r, groupID, actor) {
		return
	}

	if err := h.Store.AddMember(r.Context(), groupID, req.UserID); err != nil {
		respond.StoreError(w, "add group member", err)
		return
	}
	h.Resolver.Invalidate(r.Context(), groupID)
	h.respondGroup(w, r, groupID)
}

// RemoveMember handles DELETE /api/v1/groups/{id}/members/{userId}. The
// admin may remove anyone; any member may remove themselves.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	groupID, userID := vars["id"], vars["userId"]
	actor, ok := respond.Actor(w, r, r.URL.Query().Get("actor_id"))
	if !ok {
		return
	}
	if actor != userID && !h.requireAdmin(w, r, groupID, actor) {
		return
	}

	if err := h.Store.RemoveMember(r.Context(), groupID, userID); err != nil {
		respond.StoreError(w, "remove group member", err)
		return
	}
	h.Resolver.Invalidate(r.Context(), groupID)
	if h.Rooms != nil {
		h.Rooms.LeaveUser(userID, groupID)
	}
	h.respondGroup(w, r, groupID)
}

func (h *GroupHandler) requireAdmin(w http.ResponseWriter, r *http.Request, groupID, actor string) bool {
	conv, err := h.Store.GetConversation(r.Context(), groupID)
	if err != nil {
		respond.StoreError(w, "get group", err)
		return false
	}
	if !conv.IsGroup {
		http.Error(w, "Not a group conversation", http.StatusBadRequest)
		return false
	}
	if conv.AdminID != actor {
		http.Error(w, "Only the group admin can do that", http.StatusForbidden)
		return false
	}
	return true
}

func (h *GroupHandler) respondGroup(w http.ResponseWriter, r *http.Request, groupID string) {
	conv, err := h.Store.GetConversation(r.Context(), groupID)
	if err != nil {
		respond.StoreError(w, "get group", err)
		return
	}
	log.Printf("[Group] group %s now has %d members", groupID, len(conv.Members))
	respond.JSON(w, http.StatusOK, conv)
}
