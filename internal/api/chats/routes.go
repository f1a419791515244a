package chats

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes registers the conversation and message endpoints on
// the /api/v1 router.
func RegisterChatRoutes(r *mux.Router, handler *ChatHandler) {
	r.HandleFunc("/chats/direct", handler.StartOrGetDirect).Methods(http.MethodPost)
	r.HandleFunc("/chats", handler.ListConversations).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages", handler.GetMessages).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages", handler.SendMessage).Methods(http.MethodPost)
}
