package presence

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
)

// SessionID identifies one live connection. A device may hold several
// sessions at once (multiple app instances or a reconnect race).
type SessionID string

// Registry tracks which devices are online. It keeps two maps that must
// stay consistent under the mutex: session to device, and device to its
// session set.
type Registry struct {
	mu sync.RWMutex

	sessionDevice  map[SessionID]model.DeviceUUID
	deviceSessions map[model.DeviceUUID]map[SessionID]struct{}

	logger *slog.Logger
}

// NewRegistry creates an empty presence registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessionDevice:  make(map[SessionID]model.DeviceUUID),
		deviceSessions: make(map[model.DeviceUUID]map[SessionID]struct{}),
		logger:         logger.With(slog.String("component", "presence")),
	}
}

// Register binds a session to a device. Registering the same pair twice is
// a no-op; re-registering a session under a different device moves it.
func (r *Registry) Register(sessionID SessionID, deviceUUID model.DeviceUUID) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required: %w", model.ErrValidation)
	}
	if deviceUUID == "" {
		return fmt.Errorf("device uuid is required: %w", model.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessionDevice[sessionID]; ok {
		if prev == deviceUUID {
			return nil
		}
		r.detachLocked(sessionID, prev)
		r.logger.Info("session rebound to new device",
			slog.String("session_id", string(sessionID)),
			slog.String("old_device", string(prev)),
			slog.String("new_device", string(deviceUUID)))
	}

	r.sessionDevice[sessionID] = deviceUUID
	sessions := r.deviceSessions[deviceUUID]
	if sessions == nil {
		sessions = make(map[SessionID]struct{})
		r.deviceSessions[deviceUUID] = sessions
	}
	sessions[sessionID] = struct{}{}
	return nil
}

// Unregister removes a session. Unknown sessions are a silent no-op.
// It reports whether the session's device now has no sessions left.
func (r *Registry) Unregister(sessionID SessionID) (device model.DeviceUUID, deviceGone bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.sessionDevice[sessionID]
	if !ok {
		return "", false
	}
	r.detachLocked(sessionID, device)
	_, stillPresent := r.deviceSessions[device]
	return device, !stillPresent
}

// detachLocked drops the session from both maps; callers hold the lock
func (r *Registry) detachLocked(sessionID SessionID, device model.DeviceUUID) {
	delete(r.sessionDevice, sessionID)
	if sessions := r.deviceSessions[device]; sessions != nil {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.deviceSessions, device)
		}
	}
}

// Kick returns every session bound to the device and removes them from
// the registry. The caller is responsible for closing the transports.
// An offline device yields an empty slice.
func (r *Registry) Kick(deviceUUID model.DeviceUUID) []SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.deviceSessions[deviceUUID]
	if len(sessions) == 0 {
		return nil
	}
	kicked := make([]SessionID, 0, len(sessions))
	for sessionID := range sessions {
		delete(r.sessionDevice, sessionID)
		kicked = append(kicked, sessionID)
	}
	delete(r.deviceSessions, deviceUUID)
	sort.Slice(kicked, func(i, j int) bool { return kicked[i] < kicked[j] })
	return kicked
}

// DeviceForSession resolves a session to its device, if registered
func (r *Registry) DeviceForSession(sessionID SessionID) (model.DeviceUUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.sessionDevice[sessionID]
	return device, ok
}

// IsOnline reports whether the device has at least one live session
func (r *Registry) IsOnline(deviceUUID model.DeviceUUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.deviceSessions[deviceUUID]) > 0
}

// ListConnected returns every online device with its sessions, sorted by
// device uuid for stable output
func (r *Registry) ListConnected() []model.ConnectedClient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]model.ConnectedClient, 0, len(r.deviceSessions))
	for device, sessions := range r.deviceSessions {
		ids := make([]string, 0, len(sessions))
		for sessionID := range sessions {
			ids = append(ids, string(sessionID))
		}
		sort.Strings(ids)
		clients = append(clients, model.ConnectedClient{
			DeviceUUID:   device,
			SessionCount: len(ids),
			SessionIDs:   ids,
		})
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].DeviceUUID < clients[j].DeviceUUID
	})
	return clients
}
