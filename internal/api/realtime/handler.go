// Package realtime serves the chat WebSocket: it upgrades connections,
// runs one read and one write pump per connection and routes inbound events
// to the hub, the chat relay and the call manager.
package realtime

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/api/respond"
	"github.com/Vasu1712/scenyx-chat/internal/auth"
	"github.com/Vasu1712/scenyx-chat/internal/call"
	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/ws"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Relay is the chat side of inbound traffic.
type Relay interface {
	Dispatch(ctx context.Context, msg *models.Message) error
	Typing(ctx context.Context, conversationID, userID string, start bool) error
}

// Calls is the call signaling side of inbound traffic.
type Calls interface {
	Initiate(ctx context.Context, req call.InitiateRequest) error
	Accept(ctx context.Context, req call.AcceptRequest) error
	Reject(ctx context.Context, req call.RejectRequest) error
	End(ctx context.Context, actor string, req call.EndRequest) error
	RelayCandidate(ctx context.Context, req call.CandidateRequest) error
}

// Members resolves conversation membership for room joins.
type Members interface {
	Members(ctx context.Context, conversationID string) (*models.Membership, error)
}

// MessageReader loads persisted messages announced over the socket.
type MessageReader interface {
	GetMessage(ctx context.Context, id string) (*models.Message, error)
}

// Profiles stores the profile a client announces on setup.
type Profiles interface {
	UpsertUser(ctx context.Context, u *models.User) error
}

type Handler struct {
	Hub      *ws.Hub
	Relay    Relay
	Calls    Calls
	Members  Members
	Messages MessageReader
	Profiles Profiles
	Verifier *auth.Verifier

	AllowedOrigins []string
	SendBuffer     int
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	log.Printf("[WS] rejected origin %s", origin)
	return false
}

// ServeWS handles GET /ws. With a verifier enabled the upgrade must carry a
// valid token and the connection may only set up as that user.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var identity *auth.Identity
	if h.Verifier != nil && h.Verifier.Enabled() {
		id, err := h.Verifier.Parse(auth.TokenFromRequest(r))
		if err != nil {
			log.Printf("[WS] rejected upgrade from %s: %v", r.RemoteAddr, err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		identity = id
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(conn, h.SendBuffer)
	h.Hub.Attach(client)
	s := &session{h: h, client: client, identity: identity}

	go s.writePump()
	go s.readPump()
}

// Presence handles GET /api/v1/presence.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Hub.OnlineUsers())
}
