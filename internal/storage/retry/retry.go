package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/random"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

const (
	// DefaultMaxAttempts bounds how often a busy write is retried
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the first backoff delay; it doubles per attempt
	DefaultBaseDelay = 100 * time.Millisecond
)

// Storage decorates another storage backend with bounded retry on writer
// contention. Every mutating operation that fails with model.ErrStorageBusy
// is retried with exponential backoff before the error reaches the caller;
// reads and non-busy errors pass through untouched. This is the single
// retry point for the whole application; call sites never retry ad hoc.
type Storage struct {
	inner       storage.Storage
	random      random.Random
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// New wraps inner with the default retry policy
func New(inner storage.Storage, rnd random.Random, logger *slog.Logger) *Storage {
	return &Storage{
		inner:       inner,
		random:      rnd,
		logger:      logger.With(slog.String("component", "storage-retry")),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// retry runs fn, backing off and re-running on busy errors until the
// attempt budget is exhausted
func (s *Storage) retry(ctx context.Context, op string, fn func() error) error {
	delay := s.baseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, model.ErrStorageBusy) {
			return err
		}
		if attempt >= s.maxAttempts {
			return err
		}

		// Small jitter avoids retry lockstep between contending writers
		jitter := time.Duration(s.random.Intn(int(delay/4) + 1))
		s.logger.Warn("storage busy, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay+jitter))

		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", model.ErrStorageBusy, ctx.Err())
		}
		delay *= 2
	}
}

// Object operations

func (s *Storage) CreateObject(ctx context.Context, obj *model.Object) error {
	return s.retry(ctx, "create_object", func() error {
		return s.inner.CreateObject(ctx, obj)
	})
}

func (s *Storage) GetObject(ctx context.Context, id model.ObjectID) (*model.Object, error) {
	return s.inner.GetObject(ctx, id)
}

func (s *Storage) ListObjects(ctx context.Context) ([]*model.Object, error) {
	return s.inner.ListObjects(ctx)
}

func (s *Storage) UpdateObjectLocation(ctx context.Context, id model.ObjectID, lat, lon float64) error {
	return s.retry(ctx, "update_object_location", func() error {
		return s.inner.UpdateObjectLocation(ctx, id, lat, lon)
	})
}

func (s *Storage) UpdateObjectGrounding(ctx context.Context, id model.ObjectID, height float64) error {
	return s.retry(ctx, "update_object_grounding", func() error {
		return s.inner.UpdateObjectGrounding(ctx, id, height)
	})
}

func (s *Storage) UpdateObjectAROffset(ctx context.Context, id model.ObjectID, update model.AROffsetUpdate) error {
	return s.retry(ctx, "update_object_ar_offset", func() error {
		return s.inner.UpdateObjectAROffset(ctx, id, update)
	})
}

func (s *Storage) DeleteObject(ctx context.Context, id model.ObjectID) error {
	return s.retry(ctx, "delete_object", func() error {
		return s.inner.DeleteObject(ctx, id)
	})
}

// Find ledger operations

func (s *Storage) AppendFind(ctx context.Context, find *model.Find) (*model.Find, error) {
	var stored *model.Find
	err := s.retry(ctx, "append_find", func() error {
		var err error
		stored, err = s.inner.AppendFind(ctx, find)
		return err
	})
	return stored, err
}

func (s *Storage) ListFinds(ctx context.Context) ([]*model.Find, error) {
	return s.inner.ListFinds(ctx)
}

func (s *Storage) ListFindsForObject(ctx context.Context, objectID model.ObjectID) ([]*model.Find, error) {
	return s.inner.ListFindsForObject(ctx, objectID)
}

func (s *Storage) DeleteFindsForObject(ctx context.Context, objectID model.ObjectID) (int64, error) {
	var deleted int64
	err := s.retry(ctx, "delete_finds_for_object", func() error {
		var err error
		deleted, err = s.inner.DeleteFindsForObject(ctx, objectID)
		return err
	})
	return deleted, err
}

func (s *Storage) DeleteAllFinds(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.retry(ctx, "delete_all_finds", func() error {
		var err error
		deleted, err = s.inner.DeleteAllFinds(ctx)
		return err
	})
	return deleted, err
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	return s.retry(ctx, "save_player", func() error {
		return s.inner.SavePlayer(ctx, player)
	})
}

func (s *Storage) GetPlayer(ctx context.Context, deviceUUID model.DeviceUUID) (*model.Player, error) {
	return s.inner.GetPlayer(ctx, deviceUUID)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	return s.inner.ListPlayers(ctx)
}

func (s *Storage) DeletePlayer(ctx context.Context, deviceUUID model.DeviceUUID) error {
	return s.retry(ctx, "delete_player", func() error {
		return s.inner.DeletePlayer(ctx, deviceUUID)
	})
}

// Last-known location operations

func (s *Storage) SaveLastLocation(ctx context.Context, loc *model.LastLocation) error {
	return s.retry(ctx, "save_last_location", func() error {
		return s.inner.SaveLastLocation(ctx, loc)
	})
}

func (s *Storage) ListLastLocations(ctx context.Context) ([]*model.LastLocation, error) {
	return s.inner.ListLastLocations(ctx)
}

// Close closes the wrapped backend
func (s *Storage) Close() error {
	return s.inner.Close()
}
