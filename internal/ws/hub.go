package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/presence"
)

// Hub manages all live websocket clients and fans events out to them.
// There is one hub for the whole world; every client sees every event.
type Hub struct {
	clients  map[*Client]bool
	sessions map[presence.SessionID]*Client
	mu       sync.RWMutex
	logger   *slog.Logger

	// Channels for managing clients
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[presence.SessionID]*Client),
		logger:     logger.With(slog.String("component", "ws-hub")),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.sessions, client.sessionID)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				duration := time.Since(client.connectedAt)
				h.logger.Info("ws client unregistered",
					slog.String("session_id", string(client.sessionID)),
					slog.Duration("connection_duration", duration),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			sentCount := 0
			droppedCount := 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sentCount++
				default:
					droppedCount++
					h.logger.Warn("ws message dropped - client buffer full",
						slog.String("session_id", string(client.sessionID)))
				}
			}
			h.mu.RUnlock()
			if droppedCount > 0 {
				h.logger.Warn("ws broadcast partial failure",
					slog.Int("sent", sentCount),
					slog.Int("dropped", droppedCount))
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.sessions = make(map[presence.SessionID]*Client)
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register adds a client to the hub. Registration is synchronous so that
// a targeted send issued right after always finds the session.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.sessions[client.sessionID] = client
	clientCount := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client registered",
		slog.String("session_id", string(client.sessionID)),
		slog.Int("total_clients", clientCount))
}

// Unregister removes a client from the hub. After Close it is a no-op
// rather than blocking on the stopped loop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a raw message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("ws broadcast dropped - hub buffer full")
	}
}

// Publish marshals an event and broadcasts it to every client. A failed
// or dropped delivery never affects the state change that produced the
// event; slow clients recover via resync.
func (h *Hub) Publish(event model.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws event marshal failed",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}
	h.Broadcast(message)
}

// SendToSession delivers an event to a single session. It reports false
// when the session is unknown or its buffer is full.
func (h *Hub) SendToSession(sessionID presence.SessionID, event model.Event) bool {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws event marshal failed",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return false
	}

	// The send happens under the read lock: the hub loop closes send
	// channels under the write lock, so a send can never race the close.
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.sessions[sessionID]
	if !ok {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("session_id", string(sessionID)))
		return false
	}
}

// CloseSession forcibly disconnects a session, if connected. The read
// loop observes the closed connection and unregisters the client.
func (h *Hub) CloseSession(sessionID presence.SessionID) bool {
	h.mu.RLock()
	client, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	client.closeConn()
	return true
}

// SessionIDs returns the session ids of all connected clients
func (h *Hub) SessionIDs() []presence.SessionID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]presence.SessionID, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close shuts down the hub. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}
