package finds

import (
	"context"
	"fmt"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/clock"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

// Publisher pushes state-change events to connected sessions after commit
type Publisher interface {
	Publish(event model.Event)
}

// Service owns the find ledger: the append-only record of who found what,
// when. It is the source of truth for visibility computation.
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	publisher Publisher
}

// NewService creates a new find ledger service
func NewService(store storage.Storage, clk clock.Clock, publisher Publisher) *Service {
	return &Service{
		storage:   store,
		clock:     clk,
		publisher: publisher,
	}
}

// MarkFound appends a find row for the object. It never checks for an
// existing find by the same finder; repeat visits append new rows.
func (s *Service) MarkFound(ctx context.Context, objectID model.ObjectID, foundBy model.DeviceUUID) (*model.Find, error) {
	if foundBy == "" {
		return nil, fmt.Errorf("found_by is required: %w", model.ErrValidation)
	}

	// The object must exist; the ledger never references ghosts
	if _, err := s.storage.GetObject(ctx, objectID); err != nil {
		return nil, err
	}

	find := &model.Find{
		ObjectID: objectID,
		FoundBy:  foundBy,
		FoundAt:  s.clock.Now().UTC(),
	}
	stored, err := s.storage.AppendFind(ctx, find)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(model.Event{
		Type: model.EventObjectCollected,
		Payload: model.ObjectCollectedPayload{
			ObjectID: stored.ObjectID,
			FoundBy:  stored.FoundBy,
			FoundAt:  stored.FoundAt,
		},
	})
	return stored, nil
}

// UnmarkFound deletes every find row for the object. It is idempotent:
// zero deleted rows is success ("already unfound"), not an error.
func (s *Service) UnmarkFound(ctx context.Context, objectID model.ObjectID) (int64, error) {
	deleted, err := s.storage.DeleteFindsForObject(ctx, objectID)
	if err != nil {
		return 0, err
	}

	s.publisher.Publish(model.Event{
		Type: model.EventObjectUncollected,
		Payload: model.ObjectUncollectedPayload{
			ObjectID:     objectID,
			FindsDeleted: deleted,
		},
	})
	return deleted, nil
}

// ResetAll deletes the entire find ledger
func (s *Service) ResetAll(ctx context.Context) (int64, error) {
	deleted, err := s.storage.DeleteAllFinds(ctx)
	if err != nil {
		return 0, err
	}

	s.publisher.Publish(model.Event{
		Type:    model.EventAllFindsReset,
		Payload: model.AllFindsResetPayload{FindsDeleted: deleted},
	})
	return deleted, nil
}

// ListForObject returns the object's ledger rows in insertion order
func (s *Service) ListForObject(ctx context.Context, objectID model.ObjectID) ([]*model.Find, error) {
	return s.storage.ListFindsForObject(ctx, objectID)
}

// List returns the full ledger in insertion order
func (s *Service) List(ctx context.Context) ([]*model.Find, error) {
	return s.storage.ListFinds(ctx)
}

// Resolve computes visibility of an object for a viewer from its ledger
// rows. This is the single resolver used by every read path; visibility
// is never stored.
//
// Non-multifindable objects are collected for every viewer as soon as any
// find row exists. Multifindable objects are collected only for viewers
// with their own find row. The global view (empty viewer) reports an
// object collected when any find exists, attributed to the first finder.
func Resolve(obj *model.Object, objFinds []*model.Find, viewer model.DeviceUUID) model.ObjectView {
	view := model.ObjectView{Object: *obj}
	if len(objFinds) == 0 {
		return view
	}

	if !obj.Multifindable || viewer == "" {
		first := objFinds[0]
		view.Collected = true
		view.FoundBy = first.FoundBy
		foundAt := first.FoundAt
		view.FoundAt = &foundAt
		return view
	}

	for _, find := range objFinds {
		if find.FoundBy == viewer {
			view.Collected = true
			view.FoundBy = find.FoundBy
			foundAt := find.FoundAt
			view.FoundAt = &foundAt
			return view
		}
	}
	return view
}
