package world

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/mocks"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage/memory"
)

type capturePublisher struct {
	events []model.Event
}

func (p *capturePublisher) Publish(event model.Event) {
	p.events = append(p.events, event)
}

type ServiceSuite struct {
	suite.Suite
	storage   *memory.Storage
	clock     *mocks.MockClock
	publisher *capturePublisher
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.publisher = &capturePublisher{}
	s.service = NewService(s.storage, s.clock, s.publisher)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreateObject() {
	view, err := s.service.CreateObject(s.ctx, &model.Object{
		ID:   "obj-1",
		Name: "Gold Coin",
	})

	s.Require().NoError(err)
	s.Equal(model.ObjectID("obj-1"), view.ID)
	s.Equal(s.clock.Now(), view.CreatedAt)
	s.Equal(model.CreatorUnknown, view.CreatedBy)
	s.False(view.Collected)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(model.EventObjectCreated, s.publisher.events[0].Type)
}

func (s *ServiceSuite) TestCreateObjectRequiresID() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{Name: "Nameless"})

	s.ErrorIs(err, model.ErrValidation)
	s.Empty(s.publisher.events)
}

func (s *ServiceSuite) TestCreateObjectDuplicateConflicts() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1", Name: "First"})
	s.Require().NoError(err)

	_, err = s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1", Name: "Second"})

	s.ErrorIs(err, model.ErrObjectExists)
	s.Len(s.publisher.events, 1)

	view, err := s.service.GetObject(s.ctx, "obj-1", "")
	s.Require().NoError(err)
	s.Equal("First", view.Name)
}

func (s *ServiceSuite) TestGetObjectResolvesViewer() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1", Multifindable: true})
	s.Require().NoError(err)
	_, err = s.storage.AppendFind(s.ctx, &model.Find{ObjectID: "obj-1", FoundBy: "device-1", FoundAt: s.clock.Now()})
	s.Require().NoError(err)

	mine, err := s.service.GetObject(s.ctx, "obj-1", "device-1")
	s.Require().NoError(err)
	s.True(mine.Collected)

	theirs, err := s.service.GetObject(s.ctx, "obj-1", "device-2")
	s.Require().NoError(err)
	s.False(theirs.Collected)
}

func (s *ServiceSuite) TestUpdateAROffsetRejectsEmptyUpdate() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1"})
	s.Require().NoError(err)

	err = s.service.UpdateAROffset(s.ctx, "obj-1", model.AROffsetUpdate{})

	s.ErrorIs(err, model.ErrValidation)
}

func (s *ServiceSuite) TestDeleteObjectPublishes() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1"})
	s.Require().NoError(err)
	s.publisher.events = nil

	s.Require().NoError(s.service.DeleteObject(s.ctx, "obj-1"))

	s.Require().Len(s.publisher.events, 1)
	s.Equal(model.EventObjectDeleted, s.publisher.events[0].Type)
}

func (s *ServiceSuite) TestDeleteObjectNotFound() {
	s.ErrorIs(s.service.DeleteObject(s.ctx, "nonexistent"), model.ErrObjectNotFound)
	s.Empty(s.publisher.events)
}

func (s *ServiceSuite) TestListObjectsExcludesCollectedByDefault() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1"})
	s.Require().NoError(err)
	_, err = s.service.CreateObject(s.ctx, &model.Object{ID: "obj-2"})
	s.Require().NoError(err)
	_, err = s.storage.AppendFind(s.ctx, &model.Find{ObjectID: "obj-1", FoundBy: "device-1", FoundAt: s.clock.Now()})
	s.Require().NoError(err)

	views, err := s.service.ListObjects(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(model.ObjectID("obj-2"), views[0].ID)

	all, err := s.service.ListObjects(s.ctx, Filter{IncludeFound: true})
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *ServiceSuite) TestListObjectsRegionFilter() {
	near := &model.Object{ID: "near", Latitude: -27.47, Longitude: 153.02}
	far := &model.Object{ID: "far", Latitude: -27.60, Longitude: 153.02}
	_, err := s.service.CreateObject(s.ctx, near)
	s.Require().NoError(err)
	_, err = s.service.CreateObject(s.ctx, far)
	s.Require().NoError(err)

	lat, lon := -27.47, 153.02
	views, err := s.service.ListObjects(s.ctx, Filter{
		CenterLat: &lat,
		CenterLon: &lon,
		RadiusM:   500,
	})

	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(model.ObjectID("near"), views[0].ID)
}

func (s *ServiceSuite) TestListObjectsViewerVisibility() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1", Multifindable: true})
	s.Require().NoError(err)
	_, err = s.storage.AppendFind(s.ctx, &model.Find{ObjectID: "obj-1", FoundBy: "device-1", FoundAt: s.clock.Now()})
	s.Require().NoError(err)

	// device-1 already collected it, so its filtered view is empty
	mine, err := s.service.ListObjects(s.ctx, Filter{Viewer: "device-1"})
	s.Require().NoError(err)
	s.Empty(mine)

	// device-2 has not, so the object is still up for grabs
	theirs, err := s.service.ListObjects(s.ctx, Filter{Viewer: "device-2"})
	s.Require().NoError(err)
	s.Len(theirs, 1)
}

func (s *ServiceSuite) TestStats() {
	now := s.clock.Now()
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{DeviceUUID: "device-1", PlayerName: "Alice", CreatedAt: now}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{DeviceUUID: "device-2", PlayerName: "Bob", CreatedAt: now}))

	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1", Multifindable: true})
	s.Require().NoError(err)
	_, err = s.service.CreateObject(s.ctx, &model.Object{ID: "obj-2"})
	s.Require().NoError(err)

	for _, find := range []*model.Find{
		{ObjectID: "obj-1", FoundBy: "device-1", FoundAt: now},
		{ObjectID: "obj-1", FoundBy: "device-2", FoundAt: now},
		{ObjectID: "obj-2", FoundBy: "device-1", FoundAt: now},
	} {
		_, err := s.storage.AppendFind(s.ctx, find)
		s.Require().NoError(err)
	}

	stats, err := s.service.Stats(s.ctx)

	s.Require().NoError(err)
	s.Equal(2, stats.ObjectCount)
	s.Equal(3, stats.FindCount)
	s.Equal(2, stats.PlayerCount)
	s.Require().Len(stats.Leaderboard, 2)
	s.Equal(model.DeviceUUID("device-1"), stats.Leaderboard[0].DeviceUUID)
	s.Equal("Alice", stats.Leaderboard[0].DisplayName)
	s.Equal(2, stats.Leaderboard[0].FindCount)
	s.Equal(1, stats.Leaderboard[1].FindCount)
}

func (s *ServiceSuite) TestStatsDisambiguatesDuplicateNames() {
	now := s.clock.Now()
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{DeviceUUID: "aaaaaaaa-1111", PlayerName: "Alice", CreatedAt: now}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{DeviceUUID: "bbbbbbbb-2222", PlayerName: "Alice", CreatedAt: now}))

	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1", Multifindable: true})
	s.Require().NoError(err)
	for _, device := range []model.DeviceUUID{"aaaaaaaa-1111", "bbbbbbbb-2222"} {
		_, err := s.storage.AppendFind(s.ctx, &model.Find{ObjectID: "obj-1", FoundBy: device, FoundAt: now})
		s.Require().NoError(err)
	}

	stats, err := s.service.Stats(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(stats.Leaderboard, 2)
	s.Equal("Alice (aaaaaaaa)", stats.Leaderboard[0].DisplayName)
	s.Equal("Alice (bbbbbbbb)", stats.Leaderboard[1].DisplayName)
}

func (s *ServiceSuite) TestStatsUnregisteredFinderUsesShortUUID() {
	_, err := s.service.CreateObject(s.ctx, &model.Object{ID: "obj-1"})
	s.Require().NoError(err)
	_, err = s.storage.AppendFind(s.ctx, &model.Find{ObjectID: "obj-1", FoundBy: "cccccccc-3333", FoundAt: s.clock.Now()})
	s.Require().NoError(err)

	stats, err := s.service.Stats(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(stats.Leaderboard, 1)
	s.Equal("cccccccc", stats.Leaderboard[0].DisplayName)
}
