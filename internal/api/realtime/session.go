package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/auth"
	"github.com/Vasu1712/scenyx-chat/internal/call"
	"github.com/Vasu1712/scenyx-chat/internal/chat"
	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/ws"
	"github.com/gorilla/websocket"
)

// Inbound events.
const (
	EventSetup        = "setup"
	EventJoinRoom     = "join room"
	EventLeaveRoom    = "leave room"
	EventTyping       = "typing"
	EventStopTyping   = "stop typing"
	EventNewMessage   = "new message"
	EventCallInitiate = "call:initiate"
	EventCallAccept   = "call:accept"
	EventCallReject   = "call:reject"
	EventCallEnd      = "call:end"
	EventICECandidate = "webrtc:ice-candidate"
)

// EventConnected acknowledges setup.
const EventConnected = "connected"

// session is the per-connection state. Only the read pump touches it.
type session struct {
	h        *Handler
	client   *ws.Client
	identity *auth.Identity

	user *models.User // set by setup
}

func (s *session) readPump() {
	conn := s.client.Conn
	defer func() {
		s.h.Hub.Unregister(s.client.ID)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] connection %s closed unexpectedly: %v", s.client.ID, err)
			}
			return
		}
		frame, err := ws.Decode(data)
		if err != nil {
			log.Printf("[WS] malformed frame on connection %s: %v", s.client.ID, err)
			continue
		}
		s.handle(frame)
	}
}

func (s *session) writePump() {
	conn := s.client.Conn
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write to connection %s failed: %v", s.client.ID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) handle(f ws.Frame) {
	if f.Event == EventSetup {
		s.setup(f.Data)
		return
	}
	if s.user == nil {
		log.Printf("[WS] dropped %q on connection %s before setup", f.Event, s.client.ID)
		return
	}

	ctx := context.Background()
	var err error
	switch f.Event {
	case EventJoinRoom:
		err = s.joinRoom(ctx, f.Data)
	case EventLeaveRoom:
		if room := roomID(f.Data); room != "" {
			s.h.Hub.Leave(s.client.ID, room)
		}
	case EventTyping, EventStopTyping:
		room := roomID(f.Data)
		if room == "" {
			err = errors.New("missing conversation id")
			break
		}
		err = s.h.Relay.Typing(ctx, room, s.user.ID, f.Event == EventTyping)
	case EventNewMessage:
		err = s.newMessage(ctx, f.Data)
	case EventCallInitiate:
		var req call.InitiateRequest
		if err = json.Unmarshal(f.Data, &req); err == nil {
			req.CallerID = s.user.ID
			if req.CallerName == "" {
				req.CallerName = s.user.Name
			}
			if req.CallerAvatar == "" {
				req.CallerAvatar = s.user.Avatar
			}
			err = s.h.Calls.Initiate(ctx, req)
		}
	case EventCallAccept:
		var req call.AcceptRequest
		if err = json.Unmarshal(f.Data, &req); err == nil {
			req.ReceiverID = s.user.ID
			err = s.h.Calls.Accept(ctx, req)
		}
	case EventCallReject:
		var req call.RejectRequest
		if err = json.Unmarshal(f.Data, &req); err == nil {
			req.ReceiverID = s.user.ID
			err = s.h.Calls.Reject(ctx, req)
		}
	case EventCallEnd:
		var req call.EndRequest
		if err = json.Unmarshal(f.Data, &req); err == nil {
			err = s.h.Calls.End(ctx, s.user.ID, req)
		}
	case EventICECandidate:
		var req call.CandidateRequest
		if err = json.Unmarshal(f.Data, &req); err == nil {
			req.From = s.user.ID
			err = s.h.Calls.RelayCandidate(ctx, req)
		}
	default:
		log.Printf("[WS] unknown event %q from %s", f.Event, s.user.ID)
		return
	}
	if err != nil {
		log.Printf("[WS] %q from %s dropped: %v", f.Event, s.user.ID, err)
	}
}

type setupPayload struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

// setup binds the connection to a user. Re-running setup is allowed.
func (s *session) setup(data json.RawMessage) {
	var p setupPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("[WS] malformed setup on connection %s: %v", s.client.ID, err)
		return
	}
	userID := p.ID
	if userID == "" {
		userID = p.LegacyID
	}
	if userID == "" {
		log.Printf("[WS] setup without user id on connection %s", s.client.ID)
		return
	}
	if s.identity != nil {
		if userID != s.identity.UserID {
			log.Printf("[WS] setup as %s rejected, connection %s is authenticated as %s", userID, s.client.ID, s.identity.UserID)
			return
		}
		if p.Name == "" {
			p.Name = s.identity.Name
		}
		if p.Avatar == "" {
			p.Avatar = s.identity.Avatar
		}
	}

	if err := s.h.Hub.Register(userID, s.client.ID); err != nil {
		log.Printf("[WS] register %s failed: %v", userID, err)
		return
	}
	s.user = &models.User{ID: userID, Name: p.Name, Avatar: p.Avatar}
	if s.h.Profiles != nil {
		if err := s.h.Profiles.UpsertUser(context.Background(), s.user); err != nil {
			log.Printf("[WS] failed to store profile of %s: %v", userID, err)
		}
	}
	s.h.Hub.SendToConn(s.client.ID, EventConnected, s.user)
}

func (s *session) joinRoom(ctx context.Context, data json.RawMessage) error {
	room := roomID(data)
	if room == "" {
		return errors.New("missing conversation id")
	}
	m, err := s.h.Members.Members(ctx, room)
	if err != nil {
		return err
	}
	if !m.Has(s.user.ID) {
		return chat.ErrNotMember
	}
	if err := s.h.Hub.Join(s.client.ID, room); err != nil {
		return err
	}
	log.Printf("[WS] %s joined room %s", s.user.ID, room)
	return nil
}

// newMessage re-dispatches a message the client already persisted over REST.
// The stored copy is used, and only its sender may announce it.
func (s *session) newMessage(ctx context.Context, data json.RawMessage) error {
	var announced struct {
		ID  string `json:"id"`
		Alt string `json:"_id"`
	}
	if err := json.Unmarshal(data, &announced); err != nil {
		return err
	}
	id := announced.ID
	if id == "" {
		id = announced.Alt
	}
	if id == "" {
		return chat.ErrInvalidMessage
	}
	msg, err := s.h.Messages.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if msg.SenderID != s.user.ID {
		return errors.New("message was sent by another user")
	}
	err = s.h.Relay.Dispatch(ctx, msg)
	if errors.Is(err, chat.ErrAlreadyDispatched) {
		return nil
	}
	return err
}

// roomID accepts either a bare JSON string or an object naming the conversation.
func roomID(data json.RawMessage) string {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id
	}
	var obj struct {
		ConversationID string `json:"conversationId"`
		Room           string `json:"room"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return ""
	}
	if obj.ConversationID != "" {
		return obj.ConversationID
	}
	return obj.Room
}
