package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Entities are stored as JSON values; ordering indexes are sorted sets.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Object operations

func (s *Storage) CreateObject(ctx context.Context, obj *model.Object) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, objectKey(obj.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrObjectExists
	}

	return s.client.ZAdd(ctx, objectsByCreation, redis.Z{
		Score:  float64(obj.CreatedAt.UnixNano()),
		Member: string(obj.ID),
	}).Err()
}

func (s *Storage) GetObject(ctx context.Context, id model.ObjectID) (*model.Object, error) {
	data, err := s.client.Get(ctx, objectKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrObjectNotFound
		}
		return nil, err
	}

	var obj model.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (s *Storage) ListObjects(ctx context.Context) ([]*model.Object, error) {
	// Newest first
	ids, err := s.client.ZRevRange(ctx, objectsByCreation, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = objectKey(model.ObjectID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	objects := make([]*model.Object, 0, len(values))
	for _, value := range values {
		str, ok := value.(string)
		if !ok {
			continue // index entry without a value key; skip
		}
		var obj model.Object
		if err := json.Unmarshal([]byte(str), &obj); err != nil {
			return nil, err
		}
		objects = append(objects, &obj)
	}
	return objects, nil
}

// updateObject applies fn to the stored object and writes it back
func (s *Storage) updateObject(ctx context.Context, id model.ObjectID, fn func(*model.Object)) error {
	obj, err := s.GetObject(ctx, id)
	if err != nil {
		return err
	}
	fn(obj)

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, objectKey(id), data, 0).Err()
}

func (s *Storage) UpdateObjectLocation(ctx context.Context, id model.ObjectID, lat, lon float64) error {
	return s.updateObject(ctx, id, func(obj *model.Object) {
		obj.Latitude = lat
		obj.Longitude = lon
	})
}

func (s *Storage) UpdateObjectGrounding(ctx context.Context, id model.ObjectID, height float64) error {
	return s.updateObject(ctx, id, func(obj *model.Object) {
		obj.GroundingHeight = &height
	})
}

func (s *Storage) UpdateObjectAROffset(ctx context.Context, id model.ObjectID, update model.AROffsetUpdate) error {
	return s.updateObject(ctx, id, func(obj *model.Object) {
		update.Apply(&obj.AR)
	})
}

func (s *Storage) DeleteObject(ctx context.Context, id model.ObjectID) error {
	deleted, err := s.client.Del(ctx, objectKey(id)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return model.ErrObjectNotFound
	}

	pipe := s.client.Pipeline()
	pipe.ZRem(ctx, objectsByCreation, string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	// Cascade the find ledger
	_, err = s.DeleteFindsForObject(ctx, id)
	return err
}

// Find ledger operations

func (s *Storage) AppendFind(ctx context.Context, find *model.Find) (*model.Find, error) {
	id, err := s.client.Incr(ctx, findSequence).Result()
	if err != nil {
		return nil, err
	}

	stored := *find
	stored.ID = id

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, findKey(id), data, 0)
	pipe.ZAdd(ctx, findLedger, redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
	pipe.SAdd(ctx, objectFindsKey(stored.ObjectID), strconv.FormatInt(id, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Storage) ListFinds(ctx context.Context) ([]*model.Find, error) {
	ids, err := s.client.ZRange(ctx, findLedger, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.loadFinds(ctx, ids)
}

func (s *Storage) ListFindsForObject(ctx context.Context, objectID model.ObjectID) ([]*model.Find, error) {
	ids, err := s.client.SMembers(ctx, objectFindsKey(objectID)).Result()
	if err != nil {
		return nil, err
	}
	finds, err := s.loadFinds(ctx, ids)
	if err != nil {
		return nil, err
	}
	// Set members are unordered; restore ledger insertion order
	sortFindsByID(finds)
	return finds, nil
}

func (s *Storage) loadFinds(ctx context.Context, ids []string) ([]*model.Find, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, err
		}
		keys[i] = findKey(n)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	finds := make([]*model.Find, 0, len(values))
	for _, value := range values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		var find model.Find
		if err := json.Unmarshal([]byte(str), &find); err != nil {
			return nil, err
		}
		finds = append(finds, &find)
	}
	return finds, nil
}

func sortFindsByID(finds []*model.Find) {
	sort.Slice(finds, func(i, j int) bool {
		return finds[i].ID < finds[j].ID
	})
}

func (s *Storage) DeleteFindsForObject(ctx context.Context, objectID model.ObjectID) (int64, error) {
	ids, err := s.client.SMembers(ctx, objectFindsKey(objectID)).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, err
		}
		pipe.Del(ctx, findKey(n))
		pipe.ZRem(ctx, findLedger, id)
	}
	pipe.Del(ctx, objectFindsKey(objectID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (s *Storage) DeleteAllFinds(ctx context.Context) (int64, error) {
	finds, err := s.ListFinds(ctx)
	if err != nil {
		return 0, err
	}
	if len(finds) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, find := range finds {
		pipe.Del(ctx, findKey(find.ID))
		pipe.Del(ctx, objectFindsKey(find.ObjectID))
	}
	pipe.Del(ctx, findLedger)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int64(len(finds)), nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, playerKey(player.DeviceUUID), data, 0)
	pipe.SAdd(ctx, playerIndex, string(player.DeviceUUID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, deviceUUID model.DeviceUUID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(deviceUUID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	uuids, err := s.client.SMembers(ctx, playerIndex).Result()
	if err != nil {
		return nil, err
	}
	if len(uuids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(uuids))
	for i, uuid := range uuids {
		keys[i] = playerKey(model.DeviceUUID(uuid))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, value := range values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			return nil, err
		}
		players = append(players, &player)
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, deviceUUID model.DeviceUUID) error {
	deleted, err := s.client.Del(ctx, playerKey(deviceUUID)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return model.ErrPlayerNotFound
	}
	return s.client.SRem(ctx, playerIndex, string(deviceUUID)).Err()
}

// Last-known location operations

func (s *Storage) SaveLastLocation(ctx context.Context, loc *model.LastLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, lastLocationKey(loc.DeviceUUID), data, 0)
	pipe.SAdd(ctx, lastLocationIndex, string(loc.DeviceUUID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListLastLocations(ctx context.Context) ([]*model.LastLocation, error) {
	uuids, err := s.client.SMembers(ctx, lastLocationIndex).Result()
	if err != nil {
		return nil, err
	}
	if len(uuids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(uuids))
	for i, uuid := range uuids {
		keys[i] = lastLocationKey(model.DeviceUUID(uuid))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]*model.LastLocation, 0, len(values))
	for _, value := range values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		var loc model.LastLocation
		if err := json.Unmarshal([]byte(str), &loc); err != nil {
			return nil, err
		}
		locations = append(locations, &loc)
	}
	return locations, nil
}
