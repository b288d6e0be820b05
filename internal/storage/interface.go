package storage

import (
	"context"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
)

// Storage defines the interface for world-state persistence.
//
// All backends follow a single-writer/multiple-reader discipline: reads
// never block on writes, writers serialize against each other. A backend
// that hits writer contention returns an error wrapping
// model.ErrStorageBusy; callers go through the retry wrapper in
// storage/retry rather than retrying ad hoc.
type Storage interface {
	// Object operations
	CreateObject(ctx context.Context, obj *model.Object) error
	GetObject(ctx context.Context, id model.ObjectID) (*model.Object, error)
	// ListObjects returns all objects ordered newest-first
	ListObjects(ctx context.Context) ([]*model.Object, error)
	UpdateObjectLocation(ctx context.Context, id model.ObjectID, lat, lon float64) error
	UpdateObjectGrounding(ctx context.Context, id model.ObjectID, height float64) error
	UpdateObjectAROffset(ctx context.Context, id model.ObjectID, update model.AROffsetUpdate) error
	// DeleteObject removes the object and cascades deletion of its finds
	DeleteObject(ctx context.Context, id model.ObjectID) error

	// Find ledger operations (append-only; rows are removed, never mutated)
	AppendFind(ctx context.Context, find *model.Find) (*model.Find, error)
	ListFinds(ctx context.Context) ([]*model.Find, error)
	ListFindsForObject(ctx context.Context, objectID model.ObjectID) ([]*model.Find, error)
	DeleteFindsForObject(ctx context.Context, objectID model.ObjectID) (int64, error)
	DeleteAllFinds(ctx context.Context) (int64, error)

	// Player operations (device UUID is the primary key; SavePlayer upserts)
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, deviceUUID model.DeviceUUID) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, deviceUUID model.DeviceUUID) error

	// Last-known location snapshots (upsert per device)
	SaveLastLocation(ctx context.Context, loc *model.LastLocation) error
	ListLastLocations(ctx context.Context) ([]*model.LastLocation, error)

	Close() error
}
