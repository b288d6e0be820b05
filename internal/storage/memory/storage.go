package memory

import (
	"context"
	"sync"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	objects       map[model.ObjectID]*model.Object
	objectOrder   []model.ObjectID // insertion order, oldest first
	finds         map[int64]*model.Find
	findOrder     []int64
	nextFindID    int64
	players       map[model.DeviceUUID]*model.Player
	lastLocations map[model.DeviceUUID]*model.LastLocation
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		objects:       make(map[model.ObjectID]*model.Object),
		finds:         make(map[int64]*model.Find),
		nextFindID:    1,
		players:       make(map[model.DeviceUUID]*model.Player),
		lastLocations: make(map[model.DeviceUUID]*model.LastLocation),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Object operations

func (s *Storage) CreateObject(ctx context.Context, obj *model.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[obj.ID]; ok {
		return model.ErrObjectExists
	}
	stored := *obj
	s.objects[obj.ID] = &stored
	s.objectOrder = append(s.objectOrder, obj.ID)
	return nil
}

func (s *Storage) GetObject(ctx context.Context, id model.ObjectID) (*model.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, model.ErrObjectNotFound
	}
	copied := *obj
	return &copied, nil
}

func (s *Storage) ListObjects(ctx context.Context) ([]*model.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects := make([]*model.Object, 0, len(s.objectOrder))
	// Newest first
	for i := len(s.objectOrder) - 1; i >= 0; i-- {
		if obj, ok := s.objects[s.objectOrder[i]]; ok {
			copied := *obj
			objects = append(objects, &copied)
		}
	}
	return objects, nil
}

func (s *Storage) UpdateObjectLocation(ctx context.Context, id model.ObjectID, lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return model.ErrObjectNotFound
	}
	obj.Latitude = lat
	obj.Longitude = lon
	return nil
}

func (s *Storage) UpdateObjectGrounding(ctx context.Context, id model.ObjectID, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return model.ErrObjectNotFound
	}
	obj.GroundingHeight = &height
	return nil
}

func (s *Storage) UpdateObjectAROffset(ctx context.Context, id model.ObjectID, update model.AROffsetUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return model.ErrObjectNotFound
	}
	update.Apply(&obj.AR)
	return nil
}

func (s *Storage) DeleteObject(ctx context.Context, id model.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		return model.ErrObjectNotFound
	}
	delete(s.objects, id)
	for i, oid := range s.objectOrder {
		if oid == id {
			s.objectOrder = append(s.objectOrder[:i], s.objectOrder[i+1:]...)
			break
		}
	}
	s.deleteFindsForObjectLocked(id)
	return nil
}

// Find ledger operations

func (s *Storage) AppendFind(ctx context.Context, find *model.Find) (*model.Find, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *find
	stored.ID = s.nextFindID
	s.nextFindID++
	s.finds[stored.ID] = &stored
	s.findOrder = append(s.findOrder, stored.ID)
	copied := stored
	return &copied, nil
}

func (s *Storage) ListFinds(ctx context.Context) ([]*model.Find, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	finds := make([]*model.Find, 0, len(s.findOrder))
	for _, id := range s.findOrder {
		if find, ok := s.finds[id]; ok {
			copied := *find
			finds = append(finds, &copied)
		}
	}
	return finds, nil
}

func (s *Storage) ListFindsForObject(ctx context.Context, objectID model.ObjectID) ([]*model.Find, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var finds []*model.Find
	for _, id := range s.findOrder {
		if find, ok := s.finds[id]; ok && find.ObjectID == objectID {
			copied := *find
			finds = append(finds, &copied)
		}
	}
	return finds, nil
}

func (s *Storage) DeleteFindsForObject(ctx context.Context, objectID model.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteFindsForObjectLocked(objectID), nil
}

func (s *Storage) deleteFindsForObjectLocked(objectID model.ObjectID) int64 {
	var deleted int64
	remaining := s.findOrder[:0]
	for _, id := range s.findOrder {
		find, ok := s.finds[id]
		if ok && find.ObjectID == objectID {
			delete(s.finds, id)
			deleted++
			continue
		}
		remaining = append(remaining, id)
	}
	s.findOrder = remaining
	return deleted
}

func (s *Storage) DeleteAllFinds(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := int64(len(s.finds))
	s.finds = make(map[int64]*model.Find)
	s.findOrder = nil
	return deleted, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *player
	s.players[player.DeviceUUID] = &copied
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, deviceUUID model.DeviceUUID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[deviceUUID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, player := range s.players {
		copied := *player
		players = append(players, &copied)
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, deviceUUID model.DeviceUUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[deviceUUID]; !ok {
		return model.ErrPlayerNotFound
	}
	delete(s.players, deviceUUID)
	return nil
}

// Last-known location operations

func (s *Storage) SaveLastLocation(ctx context.Context, loc *model.LastLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *loc
	s.lastLocations[loc.DeviceUUID] = &copied
	return nil
}

func (s *Storage) ListLastLocations(ctx context.Context) ([]*model.LastLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	locations := make([]*model.LastLocation, 0, len(s.lastLocations))
	for _, loc := range s.lastLocations {
		copied := *loc
		locations = append(locations, &copied)
	}
	return locations, nil
}

// Close is a no-op for the in-memory backend
func (s *Storage) Close() error {
	return nil
}
