package world

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/clock"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/finds"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

// metersPerDegreeLat approximates one degree of latitude. Region filters
// use a flat lat/lon box, not true geodesic distance.
const metersPerDegreeLat = 111320.0

// Publisher pushes state-change events to connected sessions after commit
type Publisher interface {
	Publish(event model.Event)
}

// Filter narrows a ListObjects query
type Filter struct {
	// Center plus RadiusM select a bounding box; nil Center means no
	// region filtering
	CenterLat *float64
	CenterLon *float64
	RadiusM   float64

	// IncludeFound keeps collected objects in the result
	IncludeFound bool

	// Viewer personalizes visibility; empty means the global view
	Viewer model.DeviceUUID
}

// Service is the authoritative world-state store: all object mutations go
// through it, and every committed mutation is broadcast exactly once.
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	publisher Publisher
}

// NewService creates a new world-state service
func NewService(store storage.Storage, clk clock.Clock, publisher Publisher) *Service {
	return &Service{
		storage:   store,
		clock:     clk,
		publisher: publisher,
	}
}

// CreateObject persists a new object. A duplicate id is a conflict and
// never overwrites the existing record.
func (s *Service) CreateObject(ctx context.Context, obj *model.Object) (*model.ObjectView, error) {
	if obj.ID == "" {
		return nil, fmt.Errorf("object id is required: %w", model.ErrValidation)
	}
	if obj.CreatedBy == "" {
		obj.CreatedBy = model.CreatorUnknown
	}
	obj.CreatedAt = s.clock.Now().UTC()

	if err := s.storage.CreateObject(ctx, obj); err != nil {
		return nil, err
	}

	// A fresh object has no finds, so the broadcast view is uncollected
	view := finds.Resolve(obj, nil, "")
	s.publisher.Publish(model.Event{
		Type:    model.EventObjectCreated,
		Payload: model.ObjectCreatedPayload{Object: view},
	})
	return &view, nil
}

// GetObject returns one object with visibility resolved for the viewer
func (s *Service) GetObject(ctx context.Context, id model.ObjectID, viewer model.DeviceUUID) (*model.ObjectView, error) {
	obj, err := s.storage.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	objFinds, err := s.storage.ListFindsForObject(ctx, id)
	if err != nil {
		return nil, err
	}
	view := finds.Resolve(obj, objFinds, viewer)
	return &view, nil
}

// UpdateLocation moves an object to a new position
func (s *Service) UpdateLocation(ctx context.Context, id model.ObjectID, lat, lon float64) error {
	return s.storage.UpdateObjectLocation(ctx, id, lat, lon)
}

// UpdateGrounding records the client-measured grounding height
func (s *Service) UpdateGrounding(ctx context.Context, id model.ObjectID, height float64) error {
	return s.storage.UpdateObjectGrounding(ctx, id, height)
}

// UpdateAROffset merges a partial AR placement update onto the object.
// The fields stay opaque to the server.
func (s *Service) UpdateAROffset(ctx context.Context, id model.ObjectID, update model.AROffsetUpdate) error {
	if update.IsZero() {
		return fmt.Errorf("no recognized field supplied: %w", model.ErrValidation)
	}
	return s.storage.UpdateObjectAROffset(ctx, id, update)
}

// DeleteObject removes the object and all its find rows
func (s *Service) DeleteObject(ctx context.Context, id model.ObjectID) error {
	if err := s.storage.DeleteObject(ctx, id); err != nil {
		return err
	}

	s.publisher.Publish(model.Event{
		Type:    model.EventObjectDeleted,
		Payload: model.ObjectDeletedPayload{ObjectID: id},
	})
	return nil
}

// ListObjects returns objects newest-first with visibility metadata,
// optionally restricted to a bounding region and filtered by found state
func (s *Service) ListObjects(ctx context.Context, filter Filter) ([]model.ObjectView, error) {
	objects, err := s.storage.ListObjects(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.storage.ListFinds(ctx)
	if err != nil {
		return nil, err
	}

	findsByObject := make(map[model.ObjectID][]*model.Find, len(objects))
	for _, find := range ledger {
		findsByObject[find.ObjectID] = append(findsByObject[find.ObjectID], find)
	}

	views := make([]model.ObjectView, 0, len(objects))
	for _, obj := range objects {
		if !filter.contains(obj) {
			continue
		}
		view := finds.Resolve(obj, findsByObject[obj.ID], filter.Viewer)
		if !filter.IncludeFound && view.Collected {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// contains reports whether the object falls inside the filter's lat/lon box
func (f Filter) contains(obj *model.Object) bool {
	if f.CenterLat == nil || f.CenterLon == nil || f.RadiusM <= 0 {
		return true
	}
	latDelta := f.RadiusM / metersPerDegreeLat
	lonScale := math.Cos(*f.CenterLat * math.Pi / 180)
	if lonScale < 0.01 {
		lonScale = 0.01 // clamp near the poles
	}
	lonDelta := f.RadiusM / (metersPerDegreeLat * lonScale)

	return obj.Latitude >= *f.CenterLat-latDelta && obj.Latitude <= *f.CenterLat+latDelta &&
		obj.Longitude >= *f.CenterLon-lonDelta && obj.Longitude <= *f.CenterLon+lonDelta
}

// Stats summarizes world state for the admin surface
type Stats struct {
	ObjectCount int                `json:"object_count"`
	FindCount   int                `json:"find_count"`
	PlayerCount int                `json:"player_count"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// LeaderboardEntry is one player's find tally. DisplayName is
// disambiguated with a short device-uuid suffix when names collide.
type LeaderboardEntry struct {
	DeviceUUID  model.DeviceUUID `json:"device_uuid"`
	DisplayName string           `json:"display_name"`
	FindCount   int              `json:"find_count"`
}

// Stats computes counts and the per-player leaderboard
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	objects, err := s.storage.ListObjects(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.storage.ListFinds(ctx)
	if err != nil {
		return nil, err
	}
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[model.DeviceUUID]string, len(players))
	nameCounts := make(map[string]int, len(players))
	for _, player := range players {
		names[player.DeviceUUID] = player.PlayerName
		nameCounts[player.PlayerName]++
	}

	tally := make(map[model.DeviceUUID]int)
	for _, find := range ledger {
		tally[find.FoundBy]++
	}

	leaderboard := make([]LeaderboardEntry, 0, len(tally))
	for device, count := range tally {
		leaderboard = append(leaderboard, LeaderboardEntry{
			DeviceUUID:  device,
			DisplayName: displayName(device, names, nameCounts),
			FindCount:   count,
		})
	}
	sort.Slice(leaderboard, func(i, j int) bool {
		if leaderboard[i].FindCount != leaderboard[j].FindCount {
			return leaderboard[i].FindCount > leaderboard[j].FindCount
		}
		return leaderboard[i].DeviceUUID < leaderboard[j].DeviceUUID
	})

	return &Stats{
		ObjectCount: len(objects),
		FindCount:   len(ledger),
		PlayerCount: len(players),
		Leaderboard: leaderboard,
	}, nil
}

// displayName resolves a device to a display name. Name collisions are
// expected (names are not unique) and disambiguated, never rejected.
func displayName(device model.DeviceUUID, names map[model.DeviceUUID]string, nameCounts map[string]int) string {
	name, ok := names[device]
	if !ok || name == "" {
		return string(shortUUID(device))
	}
	if nameCounts[name] > 1 {
		return name + " (" + string(shortUUID(device)) + ")"
	}
	return name
}

func shortUUID(device model.DeviceUUID) model.DeviceUUID {
	if len(device) <= 8 {
		return device
	}
	return device[:8]
}
