package model

import (
	"encoding/json"
	"time"
)

// ObjectID is the client-supplied, globally unique identifier of a placed object
type ObjectID string

// DeviceUUID is the stable, client-generated device identity.
// It is the sole unique player identity; display names may collide.
type DeviceUUID string

// CreatorUnknown is recorded when a client places an object without identifying itself
const CreatorUnknown DeviceUUID = "unknown"

// Object is a placeable/collectible entity in the shared world
type Object struct {
	ID        ObjectID   `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Radius    float64    `json:"radius"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy DeviceUUID `json:"created_by"`

	// GroundingHeight is the client-measured height of the object above
	// the detected ground plane, in meters. Nil when never grounded.
	GroundingHeight *float64 `json:"grounding_height,omitempty"`

	// Multifindable controls visibility semantics: false means one find
	// collects the object for everyone, true means finds are per-viewer.
	Multifindable bool `json:"multifindable"`

	AR ARPlacement `json:"ar"`
}

// ARPlacement carries client AR placement data. The server never interprets
// these fields; they are stored and replayed to clients verbatim.
type ARPlacement struct {
	OriginLat          *float64        `json:"origin_lat,omitempty"`
	OriginLon          *float64        `json:"origin_lon,omitempty"`
	OffsetX            *float64        `json:"offset_x,omitempty"`
	OffsetY            *float64        `json:"offset_y,omitempty"`
	OffsetZ            *float64        `json:"offset_z,omitempty"`
	PlacementTimestamp *time.Time      `json:"placement_timestamp,omitempty"`
	PlacementHeading   *float64        `json:"placement_heading,omitempty"`
	AnchorTransform    json.RawMessage `json:"anchor_transform,omitempty"`
}

// AROffsetUpdate is a partial update to an object's AR placement fields.
// Nil fields are left unchanged.
type AROffsetUpdate struct {
	OffsetX            *float64        `json:"offset_x,omitempty"`
	OffsetY            *float64        `json:"offset_y,omitempty"`
	OffsetZ            *float64        `json:"offset_z,omitempty"`
	PlacementTimestamp *time.Time      `json:"placement_timestamp,omitempty"`
	PlacementHeading   *float64        `json:"placement_heading,omitempty"`
	AnchorTransform    json.RawMessage `json:"anchor_transform,omitempty"`
}

// IsZero reports whether the update carries no recognized field
func (u AROffsetUpdate) IsZero() bool {
	return u.OffsetX == nil && u.OffsetY == nil && u.OffsetZ == nil &&
		u.PlacementTimestamp == nil && u.PlacementHeading == nil &&
		len(u.AnchorTransform) == 0
}

// Apply merges the update onto an existing placement
func (u AROffsetUpdate) Apply(ar *ARPlacement) {
	if u.OffsetX != nil {
		ar.OffsetX = u.OffsetX
	}
	if u.OffsetY != nil {
		ar.OffsetY = u.OffsetY
	}
	if u.OffsetZ != nil {
		ar.OffsetZ = u.OffsetZ
	}
	if u.PlacementTimestamp != nil {
		ar.PlacementTimestamp = u.PlacementTimestamp
	}
	if u.PlacementHeading != nil {
		ar.PlacementHeading = u.PlacementHeading
	}
	if len(u.AnchorTransform) > 0 {
		ar.AnchorTransform = u.AnchorTransform
	}
}

// ObjectView is an object with visibility metadata computed for a viewer.
// Visibility is derived from the find ledger and never stored.
type ObjectView struct {
	Object
	Collected bool       `json:"collected"`
	FoundBy   DeviceUUID `json:"found_by,omitempty"`
	FoundAt   *time.Time `json:"found_at,omitempty"`
}
