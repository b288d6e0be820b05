package model

import "time"

// EventType identifies the type of event pushed to connected sessions
type EventType string

const (
	// Connection lifecycle events
	EventConnected        EventType = "connected"
	EventDeviceRegistered EventType = "device_registered"

	// World state delta events, emitted after each committed mutation
	EventObjectCreated       EventType = "object_created"
	EventObjectCollected     EventType = "object_collected"
	EventObjectUncollected   EventType = "object_uncollected"
	EventObjectDeleted       EventType = "object_deleted"
	EventAllFindsReset       EventType = "all_finds_reset"
	EventUserLocationUpdated EventType = "user_location_updated"

	// Reconciliation events
	EventObjectsBatch EventType = "objects_batch"

	// Presence and diagnostics
	EventConnectedClientsList EventType = "connected_clients_list"
	EventDiagnosticPong       EventType = "diagnostic_pong"
	EventAdminDiagnosticPing  EventType = "admin_diagnostic_ping"
	EventAdminPingResponse    EventType = "admin_ping_response"
	EventAdminPingError       EventType = "admin_ping_error"
	EventPong                 EventType = "pong"
)

// Event is a typed state-change notification. Events are emitted only after
// the mutation that produced them has committed.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// ConnectedPayload accompanies connected, sent once per new session
type ConnectedPayload struct {
	SessionID  string    `json:"session_id"`
	ServerTime time.Time `json:"server_time"`
}

// ObjectCreatedPayload accompanies object_created. The view carries the
// global (non-personalized) visibility, which is "not collected" for a
// freshly created object.
type ObjectCreatedPayload struct {
	Object ObjectView `json:"object"`
}

// ObjectCollectedPayload accompanies object_collected
type ObjectCollectedPayload struct {
	ObjectID ObjectID   `json:"object_id"`
	FoundBy  DeviceUUID `json:"found_by"`
	FoundAt  time.Time  `json:"found_at"`
}

// ObjectUncollectedPayload accompanies object_uncollected
type ObjectUncollectedPayload struct {
	ObjectID     ObjectID `json:"object_id"`
	FindsDeleted int64    `json:"finds_deleted"`
}

// ObjectDeletedPayload accompanies object_deleted
type ObjectDeletedPayload struct {
	ObjectID ObjectID `json:"object_id"`
}

// AllFindsResetPayload accompanies all_finds_reset
type AllFindsResetPayload struct {
	FindsDeleted int64 `json:"finds_deleted"`
}

// ObjectsBatchPayload is one bounded slice of the full object set delivered
// during reconciliation. Clients detect completion via IsLastBatch.
type ObjectsBatchPayload struct {
	Objects      []ObjectView `json:"objects"`
	BatchIndex   int          `json:"batch_index"`
	TotalBatches int          `json:"total_batches"`
	IsLastBatch  bool         `json:"is_last_batch"`
}

// DeviceRegisteredPayload accompanies device_registered
type DeviceRegisteredPayload struct {
	DeviceUUID DeviceUUID `json:"device_uuid"`
	SessionID  string     `json:"session_id"`
	Error      string     `json:"error,omitempty"`
}

// ConnectedClient describes one device with at least one live session
type ConnectedClient struct {
	DeviceUUID   DeviceUUID `json:"device_uuid"`
	SessionCount int        `json:"session_count"`
	SessionIDs   []string   `json:"session_ids"`
}

// ConnectedClientsPayload accompanies connected_clients_list
type ConnectedClientsPayload struct {
	Clients []ConnectedClient `json:"clients"`
}

// AdminPingPayload is the targeted diagnostic ping relayed from an admin
// session to a specific device's sessions, and the response routed back.
type AdminPingPayload struct {
	PingID     string     `json:"ping_id"`
	DeviceUUID DeviceUUID `json:"device_uuid"`
	SentAt     time.Time  `json:"sent_at"`
}

// AdminPingResponsePayload accompanies admin_ping_response
type AdminPingResponsePayload struct {
	PingID     string     `json:"ping_id"`
	DeviceUUID DeviceUUID `json:"device_uuid"`
	SessionID  string     `json:"session_id"`
	RTTMillis  int64      `json:"rtt_ms"`
}

// AdminPingErrorPayload accompanies admin_ping_error
type AdminPingErrorPayload struct {
	PingID     string     `json:"ping_id"`
	DeviceUUID DeviceUUID `json:"device_uuid"`
	Error      string     `json:"error"`
}
