package response

import (
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
)

// ObjectsResponse is the body for object list endpoints
type ObjectsResponse struct {
	Objects []model.ObjectView `json:"objects"`
	Count   int                `json:"count"`
}

// FindsResponse is the body for find ledger endpoints
type FindsResponse struct {
	Finds []*model.Find `json:"finds"`
	Count int           `json:"count"`
}

// FindsDeletedResponse reports how many ledger rows a reset or unfound
// removed
type FindsDeletedResponse struct {
	FindsDeleted int64 `json:"finds_deleted"`
}

// PlayersResponse is the body for GET /players
type PlayersResponse struct {
	Players []*model.Player `json:"players"`
	Count   int             `json:"count"`
}

// KickResponse reports the outcome of kicking a device's sessions
type KickResponse struct {
	Kicked         bool `json:"kicked"`
	SessionsClosed int  `json:"sessions_closed"`
}

// LocationsResponse is the body for GET /locations
type LocationsResponse struct {
	Locations []*model.LiveLocation `json:"locations"`
	Count     int                   `json:"count"`
}

// LastLocationsResponse is the body for GET /locations/last-known
type LastLocationsResponse struct {
	Locations []*model.LastLocation `json:"locations"`
	Count     int                   `json:"count"`
}
