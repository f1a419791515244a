package ws

import (
	"errors"
	"log"
	"sort"
	"sync"
)

// Outbound events owned by the hub.
const (
	EventOnlineUsers = "getOnlineUsers"
)

var (
	ErrUnknownConnection = errors.New("ws: unknown connection")
	ErrEmptyUser         = errors.New("ws: empty user id")
)

// Hub is the connection registry. It maps each user to at most one live
// connection (last connect wins), tracks conversation rooms, and broadcasts
// the online-user set to every connection whenever the mapping changes.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // connID -> client
	users   map[string]string             // userID -> connID
	rooms   map[string]map[string]*Client // roomID -> connID -> client

	hookMu    sync.RWMutex
	onOffline []func(userID string)
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		users:   make(map[string]string),
		rooms:   make(map[string]map[string]*Client),
	}
}

// OnOffline registers fn to run after a user's current connection is
// unregistered. Hooks run outside the hub lock.
func (h *Hub) OnOffline(fn func(userID string)) {
	h.hookMu.Lock()
	h.onOffline = append(h.onOffline, fn)
	h.hookMu.Unlock()
}

// Attach adds a freshly opened, not yet authenticated connection.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	log.Printf("[Hub] connection %s attached", c.ID)
}

// Register binds userID to connID, replacing any previous mapping for the
// user. Re-registering is not an error.
func (h *Hub) Register(userID, connID string) error {
	if userID == "" {
		return ErrEmptyUser
	}

	h.mu.Lock()
	c, ok := h.clients[connID]
	if !ok {
		h.mu.Unlock()
		return ErrUnknownConnection
	}
	// A connection that switches identity leaves the old user's rooms, and
	// the old user goes offline if this was their current connection.
	var switchedFrom string
	if c.userID != "" && c.userID != userID {
		h.leaveAllLocked(connID)
		if h.users[c.userID] == connID {
			delete(h.users, c.userID)
			switchedFrom = c.userID
		}
	}
	prev := h.users[userID]
	h.users[userID] = connID
	c.userID = userID
	h.mu.Unlock()

	switch {
	case switchedFrom != "":
		log.Printf("[Hub] connection %s switched from user %s to %s", connID, switchedFrom, userID)
	case prev != "" && prev != connID:
		log.Printf("[Hub] user %s moved from connection %s to %s", userID, prev, connID)
	default:
		log.Printf("[Hub] user %s registered on connection %s", userID, connID)
	}
	h.broadcastPresence()
	if switchedFrom != "" {
		h.runOffline(switchedFrom)
	}
	return nil
}

// Unregister removes a connection. The user mapping is only dropped when it
// still points at connID, so a late disconnect of a replaced connection
// cannot evict the newer one.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, connID)
	h.leaveAllLocked(connID)
	userID := c.userID
	current := userID != "" && h.users[userID] == connID
	if current {
		delete(h.users, userID)
	}
	c.close()
	h.mu.Unlock()

	if userID == "" {
		log.Printf("[Hub] anonymous connection %s detached", connID)
		return
	}
	if !current {
		log.Printf("[Hub] stale connection %s of user %s detached, newer connection kept", connID, userID)
	} else {
		log.Printf("[Hub] user %s went offline (connection %s)", userID, connID)
	}
	h.broadcastPresence()
	if current {
		h.runOffline(userID)
	}
}

// runOffline calls the offline hooks. The hub lock must not be held.
func (h *Hub) runOffline(userID string) {
	h.hookMu.RLock()
	hooks := make([]func(string), len(h.onOffline))
	copy(hooks, h.onOffline)
	h.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(userID)
	}
}

func (h *Hub) leaveAllLocked(connID string) {
	for roomID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// IsOnline reports whether userID currently holds a connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	_, ok := h.users[userID]
	h.mu.RUnlock()
	return ok
}

// ConnectionOf returns the user's current connection id.
func (h *Hub) ConnectionOf(userID string) (string, bool) {
	h.mu.RLock()
	connID, ok := h.users[userID]
	h.mu.RUnlock()
	return connID, ok
}

// UserOf returns the user a connection is registered as, if any.
func (h *Hub) UserOf(connID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok || c.userID == "" {
		return "", false
	}
	return c.userID, true
}

// OnlineUsers returns the sorted set of online user ids.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineLocked()
}

func (h *Hub) onlineLocked() []string {
	out := make([]string, 0, len(h.users))
	for userID := range h.users {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// Join subscribes a connection to a conversation room.
func (h *Hub) Join(connID, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return ErrUnknownConnection
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][connID] = c
	return nil
}

// Leave unsubscribes a connection from a room.
func (h *Hub) Leave(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// LeaveUser unsubscribes every connection registered as userID from roomID.
// It is used when the user is removed from the conversation.
func (h *Hub) LeaveUser(userID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for connID, c := range members {
		if c.userID == userID {
			delete(members, connID)
		}
	}
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// RoomSize returns the number of connections joined to roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// SendToUser pushes an event to the user's current connection. It returns
// false when the user is offline or the frame could not be queued.
func (h *Hub) SendToUser(userID, event string, payload any) bool {
	data, err := Encode(event, payload)
	if err != nil {
		log.Printf("[Hub] failed to encode %q for user %s: %v", event, userID, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	connID, ok := h.users[userID]
	if !ok {
		return false
	}
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	return c.push(data)
}

// SendToConn pushes an event to one connection regardless of registration.
func (h *Hub) SendToConn(connID, event string, payload any) bool {
	data, err := Encode(event, payload)
	if err != nil {
		log.Printf("[Hub] failed to encode %q for connection %s: %v", event, connID, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	return c.push(data)
}

// SendToRoom pushes an event to the connections joined to roomID whose user
// is in members, except those of exceptUserID. Only a user's current
// connection receives the frame, so each member gets at most one copy. It
// returns the number of connections the frame was queued for.
func (h *Hub) SendToRoom(roomID, event string, payload any, members []string, exceptUserID string) int {
	data, err := Encode(event, payload)
	if err != nil {
		log.Printf("[Hub] failed to encode %q for room %s: %v", event, roomID, err)
		return 0
	}
	allowed := make(map[string]bool, len(members))
	for _, userID := range members {
		allowed[userID] = true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for connID, c := range h.rooms[roomID] {
		if !allowed[c.userID] || c.userID == exceptUserID || h.users[c.userID] != connID {
			continue
		}
		if c.push(data) {
			sent++
		}
	}
	return sent
}

// Broadcast pushes an event to every attached connection.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := Encode(event, payload)
	if err != nil {
		log.Printf("[Hub] failed to encode %q for broadcast: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.push(data)
	}
}

func (h *Hub) broadcastPresence() {
	h.mu.RLock()
	online := h.onlineLocked()
	h.mu.RUnlock()
	h.Broadcast(EventOnlineUsers, online)
}
