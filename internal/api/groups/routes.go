package groups

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterGroupRoutes registers group creation and membership endpoints.
func RegisterGroupRoutes(r *mux.Router, handler *GroupHandler) {
	r.HandleFunc("/groups", handler.CreateGroup).Methods(http.MethodPost)
	r.HandleFunc("/groups/{id}/members", handler.AddMember).Methods(http.MethodPost)
	r.HandleFunc("/groups/{id}/members/{userId}", handler.RemoveMember).Methods(http.MethodDelete)
}
