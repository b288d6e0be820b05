package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Shaydu/cache-raiders-sub000/internal/services/presence"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong before the connection is dead
	pongWait = 60 * time.Second

	// Time between keepalive pings; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest inbound message we accept
	maxMessageSize = 64 * 1024

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// ConnState tracks where a connection is in its lifecycle. A session
// re-enters StateSyncing on every explicit resync, not just the first.
type ConnState string

const (
	StateConnected  ConnState = "connected"
	StateRegistered ConnState = "registered"
	StateSyncing    ConnState = "syncing"
	StateLive       ConnState = "live"
)

// Client represents one websocket connection. Writes go through the send
// channel and the write pump; the read loop lives in the handler.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID presence.SessionID
	send      chan []byte

	connectedAt time.Time

	stateMu sync.Mutex
	state   ConnState

	closeOnce sync.Once
}

// NewClient creates a client for an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, sessionID presence.SessionID) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		sessionID:   sessionID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
		state:       StateConnected,
	}
}

// SessionID returns the client's session id
func (c *Client) SessionID() presence.SessionID {
	return c.sessionID
}

// State returns the connection's lifecycle state
func (c *Client) State() ConnState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Client) setState(state ConnState) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

// writePump drains the send channel onto the connection and keeps the
// peer alive with pings. It exits when the hub closes the send channel
// or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConn closes the underlying connection once; the read loop then
// unblocks and unregisters the client
func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
