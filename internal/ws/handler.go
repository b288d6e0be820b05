package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/clock"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/players"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/presence"
)

// Client message types
const (
	msgRegisterDevice      = "register_device"
	msgResync              = "resync"
	msgGetConnectedClients = "get_connected_clients"
	msgPing                = "ping"
	msgDiagnosticPing      = "diagnostic_ping"
	msgAdminPingClient     = "admin_ping_client"
	msgClientPong          = "client_diagnostic_pong"
)

// clientMessage is the envelope for everything a client sends
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type registerDevicePayload struct {
	DeviceUUID model.DeviceUUID `json:"device_uuid"`
	PlayerName string           `json:"player_name,omitempty"`
}

type adminPingRequest struct {
	DeviceUUID model.DeviceUUID `json:"device_uuid"`
}

type clientPongPayload struct {
	PingID string `json:"ping_id"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients are mobile apps, not browsers; origin checks add nothing
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// pendingPing tracks an admin diagnostic ping awaiting its pong
type pendingPing struct {
	requester presence.SessionID
	device    model.DeviceUUID
	sentAt    time.Time
}

// Handler owns the websocket endpoint: it upgrades connections, assigns
// session ids, and dispatches client messages.
type Handler struct {
	hub      *Hub
	registry *presence.Registry
	players  *players.Service
	syncer   *Syncer
	clock    clock.Clock
	logger   *slog.Logger

	pingMu       sync.Mutex
	pendingPings map[string]pendingPing
}

// NewHandler creates the websocket handler
func NewHandler(
	hub *Hub,
	registry *presence.Registry,
	playersSvc *players.Service,
	syncer *Syncer,
	clk clock.Clock,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		hub:          hub,
		registry:     registry,
		players:      playersSvc,
		syncer:       syncer,
		clock:        clk,
		logger:       logger.With(slog.String("component", "ws-handler")),
		pendingPings: make(map[string]pendingPing),
	}
}

// ServeHTTP upgrades the connection and runs the session until the client
// disconnects
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	sessionID := presence.SessionID(uuid.NewString())
	client := NewClient(h.hub, conn, sessionID)
	h.hub.Register(client)
	go client.writePump()

	defer func() {
		device, deviceGone := h.registry.Unregister(sessionID)
		if deviceGone {
			h.logger.Info("device offline",
				slog.String("device_uuid", string(device)))
		}
		h.hub.Unregister(client)
		client.closeConn()
	}()

	h.hub.SendToSession(sessionID, model.Event{
		Type: model.EventConnected,
		Payload: model.ConnectedPayload{
			SessionID:  string(sessionID),
			ServerTime: h.clock.Now().UTC(),
		},
	})

	// Unregistered sessions still get the global snapshot; registering
	// later triggers a personalized one
	h.transition(client, StateSyncing)
	if err := h.syncer.SendWorld(r.Context(), sessionID); err != nil {
		h.logger.Error("initial sync failed",
			slog.String("session_id", string(sessionID)),
			slog.Any("error", err))
	}
	h.transition(client, StateLive)

	h.readLoop(r.Context(), client)
}

// readLoop reads and dispatches client messages until the connection dies
func (h *Handler) readLoop(ctx context.Context, client *Client) {
	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("ws read failed",
					slog.String("session_id", string(client.sessionID)),
					slog.Any("error", err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Warn("ws message unparseable",
				slog.String("session_id", string(client.sessionID)),
				slog.Any("error", err))
			continue
		}
		h.dispatch(ctx, client, msg)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, msg clientMessage) {
	sessionID := client.sessionID

	switch msg.Type {
	case msgRegisterDevice:
		h.handleRegisterDevice(ctx, client, msg.Payload)

	case msgResync:
		h.transition(client, StateSyncing)
		if err := h.syncer.SendWorld(ctx, sessionID); err != nil {
			h.logger.Error("resync failed",
				slog.String("session_id", string(sessionID)),
				slog.Any("error", err))
		}
		h.transition(client, StateLive)

	case msgGetConnectedClients:
		h.hub.SendToSession(sessionID, model.Event{
			Type: model.EventConnectedClientsList,
			Payload: model.ConnectedClientsPayload{
				Clients: h.registry.ListConnected(),
			},
		})

	case msgPing:
		h.hub.SendToSession(sessionID, model.Event{Type: model.EventPong})

	case msgDiagnosticPing:
		// Echo straight back; the client measures its own round trip
		h.hub.SendToSession(sessionID, model.Event{
			Type:    model.EventDiagnosticPong,
			Payload: json.RawMessage(msg.Payload),
		})

	case msgAdminPingClient:
		h.handleAdminPing(sessionID, msg.Payload)

	case msgClientPong:
		h.handleClientPong(sessionID, msg.Payload)

	default:
		h.logger.Warn("ws unknown message type",
			slog.String("session_id", string(sessionID)),
			slog.String("type", msg.Type))
	}
}

func (h *Handler) handleRegisterDevice(ctx context.Context, client *Client, payload json.RawMessage) {
	sessionID := client.sessionID

	var req registerDevicePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.registerError(sessionID, "", "malformed register_device payload")
		return
	}

	if err := h.registry.Register(sessionID, req.DeviceUUID); err != nil {
		h.registerError(sessionID, req.DeviceUUID, err.Error())
		return
	}
	h.transition(client, StateRegistered)

	if req.PlayerName != "" {
		if _, err := h.players.Register(ctx, req.DeviceUUID, req.PlayerName); err != nil {
			h.logger.Error("player upsert failed during registration",
				slog.String("device_uuid", string(req.DeviceUUID)),
				slog.Any("error", err))
		}
	}

	h.hub.SendToSession(sessionID, model.Event{
		Type: model.EventDeviceRegistered,
		Payload: model.DeviceRegisteredPayload{
			DeviceUUID: req.DeviceUUID,
			SessionID:  string(sessionID),
		},
	})

	// Registration changes visibility, so push a personalized snapshot
	h.transition(client, StateSyncing)
	if err := h.syncer.SendWorld(ctx, sessionID); err != nil {
		h.logger.Error("post-register sync failed",
			slog.String("session_id", string(sessionID)),
			slog.Any("error", err))
	}
	h.transition(client, StateLive)
}

func (h *Handler) transition(client *Client, state ConnState) {
	client.setState(state)
	h.logger.Debug("ws session state",
		slog.String("session_id", string(client.sessionID)),
		slog.String("state", string(state)))
}

func (h *Handler) registerError(sessionID presence.SessionID, device model.DeviceUUID, message string) {
	h.hub.SendToSession(sessionID, model.Event{
		Type: model.EventDeviceRegistered,
		Payload: model.DeviceRegisteredPayload{
			DeviceUUID: device,
			SessionID:  string(sessionID),
			Error:      message,
		},
	})
}

func (h *Handler) handleAdminPing(requester presence.SessionID, payload json.RawMessage) {
	var req adminPingRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.DeviceUUID == "" {
		h.hub.SendToSession(requester, model.Event{
			Type: model.EventAdminPingError,
			Payload: model.AdminPingErrorPayload{
				DeviceUUID: req.DeviceUUID,
				Error:      "device_uuid is required",
			},
		})
		return
	}

	targets := h.targetSessions(req.DeviceUUID)
	if len(targets) == 0 {
		h.hub.SendToSession(requester, model.Event{
			Type: model.EventAdminPingError,
			Payload: model.AdminPingErrorPayload{
				DeviceUUID: req.DeviceUUID,
				Error:      "device not connected",
			},
		})
		return
	}

	pingID := uuid.NewString()
	sentAt := h.clock.Now().UTC()

	h.pingMu.Lock()
	h.pendingPings[pingID] = pendingPing{
		requester: requester,
		device:    req.DeviceUUID,
		sentAt:    sentAt,
	}
	h.pingMu.Unlock()

	ping := model.Event{
		Type: model.EventAdminDiagnosticPing,
		Payload: model.AdminPingPayload{
			PingID:     pingID,
			DeviceUUID: req.DeviceUUID,
			SentAt:     sentAt,
		},
	}
	for _, target := range targets {
		h.hub.SendToSession(target, ping)
	}
}

// targetSessions returns the live sessions of a device without mutating
// the registry
func (h *Handler) targetSessions(device model.DeviceUUID) []presence.SessionID {
	var targets []presence.SessionID
	for _, client := range h.registry.ListConnected() {
		if client.DeviceUUID != device {
			continue
		}
		for _, id := range client.SessionIDs {
			targets = append(targets, presence.SessionID(id))
		}
	}
	return targets
}

func (h *Handler) handleClientPong(responder presence.SessionID, payload json.RawMessage) {
	var pong clientPongPayload
	if err := json.Unmarshal(payload, &pong); err != nil || pong.PingID == "" {
		return
	}

	h.pingMu.Lock()
	pending, ok := h.pendingPings[pong.PingID]
	if ok {
		delete(h.pendingPings, pong.PingID)
	}
	h.pingMu.Unlock()
	if !ok {
		return
	}

	h.hub.SendToSession(pending.requester, model.Event{
		Type: model.EventAdminPingResponse,
		Payload: model.AdminPingResponsePayload{
			PingID:     pong.PingID,
			DeviceUUID: pending.device,
			SessionID:  string(responder),
			RTTMillis:  h.clock.Now().UTC().Sub(pending.sentAt).Milliseconds(),
		},
	})
}
