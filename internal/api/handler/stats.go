package handler

import (
	"net/http"

	"github.com/Shaydu/cache-raiders-sub000/internal/api/response"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/world"
)

// StatsHandler handles the admin stats endpoint
type StatsHandler struct {
	world *world.Service
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(worldSvc *world.Service) *StatsHandler {
	return &StatsHandler{world: worldSvc}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.world.Stats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, stats)
}
