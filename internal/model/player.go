package model

import "time"

// Player is the durable identity record for a device. The device UUID is
// the primary key; player names are display-only and may collide.
type Player struct {
	DeviceUUID DeviceUUID `json:"device_uuid"`
	PlayerName string     `json:"player_name"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
