package ws

import (
	"log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultSendBuffer is the number of outbound frames queued per connection.
const DefaultSendBuffer = 256

// Client is one live connection. Send is drained by the connection's write
// pump and closed by the hub when the connection is unregistered.
type Client struct {
	ID   string
	Send chan []byte
	Conn *websocket.Conn // nil in tests

	userID string // guarded by Hub.mu
	closed bool   // guarded by Hub.mu
}

// NewClient wraps conn with a fresh connection id.
func NewClient(conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, buffer),
		Conn: conn,
	}
}

// push queues data without blocking. Callers hold Hub.mu.
func (c *Client) push(data []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		log.Printf("[Hub] send buffer full for connection %s, dropping frame", c.ID)
		return false
	}
}

// close is called with Hub.mu held for writing.
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}
