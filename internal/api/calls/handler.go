package calls

import (
	"context"
	"net/http"

	"github.com/Vasu1712/scenyx-chat/internal/api/respond"
	"github.com/Vasu1712/scenyx-chat/internal/call"
	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/gorilla/mux"
)

// HistoryStore reads finished calls.
type HistoryStore interface {
	CallLogsForUser(ctx context.Context, userID string) ([]*models.CallLog, error)
}

// Sessions exposes live call state.
type Sessions interface {
	Session(userID string) (call.Session, bool)
}

type CallHandler struct {
	Logs     HistoryStore
	Sessions Sessions
}

// History handles GET /api/v1/calls?user_id=.
func (h *CallHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.Actor(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	logs, err := h.Logs.CallLogsForUser(r.Context(), userID)
	if err != nil {
		respond.StoreError(w, "list call logs", err)
		return
	}
	respond.JSON(w, http.StatusOK, logs)
}

// Active handles GET /api/v1/calls/active?user_id=. It answers 204 when the
// user is not on a call.
func (h *CallHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.Actor(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	s, found := h.Sessions.Session(userID)
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func RegisterCallRoutes(r *mux.Router, handler *CallHandler) {
	r.HandleFunc("/calls", handler.History).Methods(http.MethodGet)
	r.HandleFunc("/calls/active", handler.Active).Methods(http.MethodGet)
}
