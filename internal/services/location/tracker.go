package location

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/clock"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

// freshnessWindow bounds how long a live location stays in the active set
// without a new update
const freshnessWindow = 5 * time.Minute

// Publisher pushes state-change events to connected sessions after commit
type Publisher interface {
	Publish(event model.Event)
}

// Tracker keeps live player positions in memory, last write wins. Each
// update also persists a trimmed last-known row so positions survive a
// restart.
type Tracker struct {
	mu   sync.RWMutex
	live map[model.DeviceUUID]*model.LiveLocation

	storage   storage.Storage
	clock     clock.Clock
	publisher Publisher
}

// NewTracker creates an empty live-location tracker
func NewTracker(store storage.Storage, clk clock.Clock, publisher Publisher) *Tracker {
	return &Tracker{
		live:      make(map[model.DeviceUUID]*model.LiveLocation),
		storage:   store,
		clock:     clk,
		publisher: publisher,
	}
}

// Update records a device's position. Out-of-order delivery is tolerated:
// whatever arrives last wins.
func (t *Tracker) Update(ctx context.Context, loc *model.LiveLocation) error {
	if loc.DeviceUUID == "" {
		return fmt.Errorf("device uuid is required: %w", model.ErrValidation)
	}
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range: %w", loc.Latitude, model.ErrValidation)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range: %w", loc.Longitude, model.ErrValidation)
	}
	loc.UpdatedAt = t.clock.Now().UTC()

	t.mu.Lock()
	stored := *loc
	t.live[loc.DeviceUUID] = &stored
	t.mu.Unlock()

	if err := t.storage.SaveLastLocation(ctx, &model.LastLocation{
		DeviceUUID: loc.DeviceUUID,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		UpdatedAt:  loc.UpdatedAt,
	}); err != nil {
		return err
	}

	t.publisher.Publish(model.Event{
		Type:    model.EventUserLocationUpdated,
		Payload: stored,
	})
	return nil
}

// Active returns live locations updated within the freshness window,
// sorted by device uuid. Stale entries are excluded but kept; a late
// update brings a device straight back.
func (t *Tracker) Active() []*model.LiveLocation {
	cutoff := t.clock.Now().UTC().Add(-freshnessWindow)

	t.mu.RLock()
	defer t.mu.RUnlock()

	active := make([]*model.LiveLocation, 0, len(t.live))
	for _, loc := range t.live {
		if loc.UpdatedAt.Before(cutoff) {
			continue
		}
		out := *loc
		active = append(active, &out)
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].DeviceUUID < active[j].DeviceUUID
	})
	return active
}

// LastKnown returns the persisted last-known positions for all devices
func (t *Tracker) LastKnown(ctx context.Context) ([]*model.LastLocation, error) {
	return t.storage.ListLastLocations(ctx)
}

// Forget drops the device's live entry, typically when its player record
// is deleted
func (t *Tracker) Forget(deviceUUID model.DeviceUUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.live, deviceUUID)
}
