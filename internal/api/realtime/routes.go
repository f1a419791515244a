package realtime

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRealtimeRoutes registers the socket endpoint on the root router
// and the presence snapshot on the API router.
func RegisterRealtimeRoutes(root, api *mux.Router, handler *Handler) {
	root.HandleFunc("/ws", handler.ServeWS).Methods(http.MethodGet)
	api.HandleFunc("/presence", handler.Presence).Methods(http.MethodGet)
}
