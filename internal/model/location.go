package model

import "time"

// ARVector is an opaque client-supplied AR-space offset
type ARVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LiveLocation is the last reported position of a device. It is ephemeral,
// last-write-wins per device, and carries no durability guarantee beyond
// the persisted last-known snapshot.
type LiveLocation struct {
	DeviceUUID DeviceUUID `json:"device_uuid"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Accuracy   *float64   `json:"accuracy,omitempty"`
	Heading    *float64   `json:"heading,omitempty"`
	AROffset   *ARVector  `json:"ar_offset,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// LastLocation is the persisted last-known position of a device,
// used for map centering across restarts.
type LastLocation struct {
	DeviceUUID DeviceUUID `json:"device_uuid"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
