package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Shaydu/cache-raiders-sub000/internal/api/request"
	"github.com/Shaydu/cache-raiders-sub000/internal/api/response"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/location"
)

// LocationHandler handles live player location endpoints
type LocationHandler struct {
	tracker *location.Tracker
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(tracker *location.Tracker) *LocationHandler {
	return &LocationHandler{tracker: tracker}
}

// Update handles POST /api/v1/locations
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.LocationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.tracker.Update(r.Context(), req.ToModel()); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ListActive handles GET /api/v1/locations
func (h *LocationHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	active := h.tracker.Active()
	response.JSON(w, http.StatusOK, response.LocationsResponse{
		Locations: active,
		Count:     len(active),
	})
}

// LastKnown handles GET /api/v1/locations/last-known
func (h *LocationHandler) LastKnown(w http.ResponseWriter, r *http.Request) {
	locations, err := h.tracker.LastKnown(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LastLocationsResponse{
		Locations: locations,
		Count:     len(locations),
	})
}
