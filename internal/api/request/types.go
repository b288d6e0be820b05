package request

import (
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
)

// CreateObjectRequest is the body for POST /api/v1/objects
type CreateObjectRequest struct {
	ID              model.ObjectID    `json:"id"`
	Name            string            `json:"name"`
	Type            string            `json:"type,omitempty"`
	Latitude        float64           `json:"latitude"`
	Longitude       float64           `json:"longitude"`
	Radius          float64           `json:"radius,omitempty"`
	GroundingHeight *float64          `json:"grounding_height,omitempty"`
	Multifindable   bool              `json:"multifindable,omitempty"`
	CreatedBy       model.DeviceUUID  `json:"created_by,omitempty"`
	AR              model.ARPlacement `json:"ar,omitempty"`
}

// ToModel builds the object to persist. Timestamps are filled in by the
// service.
func (r *CreateObjectRequest) ToModel() *model.Object {
	return &model.Object{
		ID:              r.ID,
		Name:            r.Name,
		Type:            r.Type,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Radius:          r.Radius,
		GroundingHeight: r.GroundingHeight,
		Multifindable:   r.Multifindable,
		CreatedBy:       r.CreatedBy,
		AR:              r.AR,
	}
}

// UpdateLocationRequest is the body for PATCH /objects/{id}/location.
// Pointer fields distinguish absent from zero, so an empty body cannot
// silently move an object to (0, 0).
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// UpdateGroundingRequest is the body for PATCH /objects/{id}/grounding
type UpdateGroundingRequest struct {
	GroundingHeight *float64 `json:"grounding_height"`
}

// MarkFoundRequest is the body for POST /objects/{id}/found
type MarkFoundRequest struct {
	FoundBy model.DeviceUUID `json:"found_by"`
}

// RegisterPlayerRequest is the body for POST /api/v1/players
type RegisterPlayerRequest struct {
	DeviceUUID model.DeviceUUID `json:"device_uuid"`
	PlayerName string           `json:"player_name"`
}

// LocationUpdateRequest is the body for POST /api/v1/locations
type LocationUpdateRequest struct {
	DeviceUUID model.DeviceUUID `json:"device_uuid"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	Accuracy   *float64         `json:"accuracy,omitempty"`
	Heading    *float64         `json:"heading,omitempty"`
	AROffset   *model.ARVector  `json:"ar_offset,omitempty"`
}

// ToModel builds the live location to record
func (r *LocationUpdateRequest) ToModel() *model.LiveLocation {
	return &model.LiveLocation{
		DeviceUUID: r.DeviceUUID,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Accuracy:   r.Accuracy,
		Heading:    r.Heading,
		AROffset:   r.AROffset,
	}
}
