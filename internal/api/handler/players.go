package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Shaydu/cache-raiders-sub000/internal/api/request"
	"github.com/Shaydu/cache-raiders-sub000/internal/api/response"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/location"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/players"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/presence"
	"github.com/Shaydu/cache-raiders-sub000/internal/ws"
)

// PlayerHandler handles player directory and presence endpoints
type PlayerHandler struct {
	players  *players.Service
	registry *presence.Registry
	tracker  *location.Tracker
	hub      *ws.Hub
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(playersSvc *players.Service, registry *presence.Registry, tracker *location.Tracker, hub *ws.Hub) *PlayerHandler {
	return &PlayerHandler{
		players:  playersSvc,
		registry: registry,
		tracker:  tracker,
		hub:      hub,
	}
}

// Register handles POST /api/v1/players
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, err := h.players.Register(r.Context(), req.DeviceUUID, req.PlayerName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, player)
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.players.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayersResponse{
		Players: all,
		Count:   len(all),
	})
}

// Get handles GET /api/v1/players/{device_uuid}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	deviceUUID := model.DeviceUUID(mux.Vars(r)["device_uuid"])

	player, err := h.players.Get(r.Context(), deviceUUID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, player)
}

// Delete handles DELETE /api/v1/players/{device_uuid}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deviceUUID := model.DeviceUUID(mux.Vars(r)["device_uuid"])

	if err := h.players.Delete(r.Context(), deviceUUID); err != nil {
		WriteError(w, err)
		return
	}
	h.tracker.Forget(deviceUUID)

	response.NoContent(w)
}

// Kick handles POST /api/v1/players/{device_uuid}/kick. Kicking an
// offline device succeeds with kicked=false.
func (h *PlayerHandler) Kick(w http.ResponseWriter, r *http.Request) {
	deviceUUID := model.DeviceUUID(mux.Vars(r)["device_uuid"])

	sessions := h.registry.Kick(deviceUUID)
	for _, sessionID := range sessions {
		h.hub.CloseSession(sessionID)
	}

	response.JSON(w, http.StatusOK, response.KickResponse{
		Kicked:         len(sessions) > 0,
		SessionsClosed: len(sessions),
	})
}

// ListConnected handles GET /api/v1/players/connected
func (h *PlayerHandler) ListConnected(w http.ResponseWriter, r *http.Request) {
	clients := h.registry.ListConnected()
	response.JSON(w, http.StatusOK, model.ConnectedClientsPayload{Clients: clients})
}
