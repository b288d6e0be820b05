package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Shaydu/cache-raiders-sub000/internal/api/request"
	"github.com/Shaydu/cache-raiders-sub000/internal/api/response"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/finds"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/world"
)

// ObjectHandler handles object endpoints
type ObjectHandler struct {
	world *world.Service
	finds *finds.Service
}

// NewObjectHandler creates a new object handler
func NewObjectHandler(worldSvc *world.Service, findsSvc *finds.Service) *ObjectHandler {
	return &ObjectHandler{
		world: worldSvc,
		finds: findsSvc,
	}
}

// Create handles POST /api/v1/objects
func (h *ObjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateObjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	view, err := h.world.CreateObject(r.Context(), req.ToModel())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, view)
}

// List handles GET /api/v1/objects
func (h *ObjectHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	views, err := h.world.ListObjects(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ObjectsResponse{
		Objects: views,
		Count:   len(views),
	})
}

// Get handles GET /api/v1/objects/{id}
func (h *ObjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])
	viewer := model.DeviceUUID(r.URL.Query().Get("device_uuid"))

	view, err := h.world.GetObject(r.Context(), id, viewer)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, view)
}

// UpdateLocation handles PATCH /api/v1/objects/{id}/location
func (h *ObjectHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])

	var req request.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		WriteError(w, fmt.Errorf("latitude and longitude are required: %w", model.ErrValidation))
		return
	}

	if err := h.world.UpdateLocation(r.Context(), id, *req.Latitude, *req.Longitude); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// UpdateGrounding handles PATCH /api/v1/objects/{id}/grounding
func (h *ObjectHandler) UpdateGrounding(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])

	var req request.UpdateGroundingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.GroundingHeight == nil {
		WriteError(w, fmt.Errorf("grounding_height is required: %w", model.ErrValidation))
		return
	}

	if err := h.world.UpdateGrounding(r.Context(), id, *req.GroundingHeight); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// UpdateAROffset handles PATCH /api/v1/objects/{id}/ar-offset
func (h *ObjectHandler) UpdateAROffset(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])

	var update model.AROffsetUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.world.UpdateAROffset(r.Context(), id, update); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /api/v1/objects/{id}
func (h *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])

	if err := h.world.DeleteObject(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// MarkFound handles POST /api/v1/objects/{id}/found
func (h *ObjectHandler) MarkFound(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])

	var req request.MarkFoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	find, err := h.finds.MarkFound(r.Context(), id, req.FoundBy)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, find)
}

// Unfound handles POST /api/v1/objects/{id}/unfound
func (h *ObjectHandler) Unfound(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])

	deleted, err := h.finds.UnmarkFound(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FindsDeletedResponse{FindsDeleted: deleted})
}

// ListFinds handles GET /api/v1/objects/{id}/finds
func (h *ObjectHandler) ListFinds(w http.ResponseWriter, r *http.Request) {
	id := model.ObjectID(mux.Vars(r)["id"])

	objFinds, err := h.finds.ListForObject(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FindsResponse{
		Finds: objFinds,
		Count: len(objFinds),
	})
}

// filterFromQuery parses list query parameters. Region filtering needs
// lat, lon and radius together.
func filterFromQuery(r *http.Request) (world.Filter, error) {
	q := r.URL.Query()
	filter := world.Filter{
		Viewer: model.DeviceUUID(q.Get("device_uuid")),
	}

	if v := q.Get("include_found"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return filter, NewInvalidRequestError("include_found must be a boolean")
		}
		filter.IncludeFound = include
	}

	latStr, lonStr, radiusStr := q.Get("lat"), q.Get("lon"), q.Get("radius")
	if latStr == "" && lonStr == "" && radiusStr == "" {
		return filter, nil
	}
	if latStr == "" || lonStr == "" || radiusStr == "" {
		return filter, NewInvalidRequestError("lat, lon and radius must be supplied together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return filter, NewInvalidRequestError("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return filter, NewInvalidRequestError("lon must be a number")
	}
	radius, err := strconv.ParseFloat(radiusStr, 64)
	if err != nil || radius <= 0 {
		return filter, NewInvalidRequestError("radius must be a positive number")
	}

	filter.CenterLat = &lat
	filter.CenterLon = &lon
	filter.RadiusM = radius
	return filter, nil
}
