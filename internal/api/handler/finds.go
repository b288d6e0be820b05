package handler

import (
	"net/http"

	"github.com/Shaydu/cache-raiders-sub000/internal/api/response"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/finds"
)

// FindsHandler handles ledger-wide find endpoints
type FindsHandler struct {
	finds *finds.Service
}

// NewFindsHandler creates a new finds handler
func NewFindsHandler(findsSvc *finds.Service) *FindsHandler {
	return &FindsHandler{finds: findsSvc}
}

// List handles GET /api/v1/finds
func (h *FindsHandler) List(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.finds.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FindsResponse{
		Finds: ledger,
		Count: len(ledger),
	})
}

// Reset handles POST /api/v1/finds/reset
func (h *FindsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.finds.ResetAll(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FindsDeletedResponse{FindsDeleted: deleted})
}
