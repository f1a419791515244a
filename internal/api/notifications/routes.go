package notifications

import (
	"net/http"

	"github.com/gorilla/mux"
)

func RegisterNotificationRoutes(r *mux.Router, handler *NotificationHandler) {
	r.HandleFunc("/notifications/unread", handler.Unread).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read", handler.MarkRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/mute", handler.Mute).Methods(http.MethodPost)
}
