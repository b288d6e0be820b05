package model

import "time"

// Find is an append-only ledger entry recording who found what, when.
// Rows are never mutated; they are only removed by explicit unmark/reset.
type Find struct {
	ID       int64      `json:"id"`
	ObjectID ObjectID   `json:"object_id"`
	FoundBy  DeviceUUID `json:"found_by"`
	FoundAt  time.Time  `json:"found_at"`
}
