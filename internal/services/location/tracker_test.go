package location

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

type TrackerSuite struct {
	suite.Suite
	storage   *memory.Storage
	clock     *mocks.MockClock
	publisher *capturePublisher
	tracker   *Tracker
	ctx       context.Context
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.publisher = &capturePublisher{}
	s.tracker = NewTracker(s.storage, s.clock, s.publisher)
	s.ctx = context.Background()
}

func (s *TrackerSuite) TestUpdate() {
	err := s.tracker.Update(s.ctx, &model.LiveLocation{
		DeviceUUID: "device-1",
		Latitude:   -27.47,
		Longitude:  153.02,
	})

	s.Require().NoError(err)

	active := s.tracker.Active()
	s.Require().Len(active, 1)
	s.Equal(model.DeviceUUID("device-1"), active[0].DeviceUUID)
	s.Equal(s.clock.Now(), active[0].UpdatedAt)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(model.EventUserLocationUpdated, s.publisher.events[0].Type)

	// The position is also persisted as the last-known row
	persisted, err := s.storage.ListLastLocations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(persisted, 1)
	s.Equal(-27.47, persisted[0].Latitude)
}

func (s *TrackerSuite) TestUpdateValidation() {
	s.ErrorIs(s.tracker.Update(s.ctx, &model.LiveLocation{Latitude: 1, Longitude: 2}), model.ErrValidation)
	s.ErrorIs(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "d", Latitude: 91}), model.ErrValidation)
	s.ErrorIs(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "d", Longitude: -181}), model.ErrValidation)
	s.Empty(s.publisher.events)
}

func (s *TrackerSuite) TestUpdateLastWriteWins() {
	s.Require().NoError(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "device-1", Latitude: 1, Longitude: 2}))
	s.clock.Advance(time.Second)
	s.Require().NoError(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "device-1", Latitude: 3, Longitude: 4}))

	active := s.tracker.Active()
	s.Require().Len(active, 1)
	s.Equal(3.0, active[0].Latitude)
}

func (s *TrackerSuite) TestActiveExcludesStaleEntries() {
	s.Require().NoError(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "device-1", Latitude: 1, Longitude: 2}))

	s.clock.Advance(freshnessWindow + time.Second)
	s.Empty(s.tracker.Active())

	// A late update brings the device straight back
	s.Require().NoError(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "device-1", Latitude: 1, Longitude: 2}))
	s.Len(s.tracker.Active(), 1)
}

func (s *TrackerSuite) TestActiveSortedByDevice() {
	s.Require().NoError(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "device-b", Latitude: 1, Longitude: 2}))
	s.Require().NoError(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "device-a", Latitude: 3, Longitude: 4}))

	active := s.tracker.Active()
	s.Require().Len(active, 2)
	s.Equal(model.DeviceUUID("device-a"), active[0].DeviceUUID)
	s.Equal(model.DeviceUUID("device-b"), active[1].DeviceUUID)
}

func (s *TrackerSuite) TestForget() {
	s.Require().NoError(s.tracker.Update(s.ctx, &model.LiveLocation{DeviceUUID: "device-1", Latitude: 1, Longitude: 2}))

	s.tracker.Forget("device-1")

	s.Empty(s.tracker.Active())

	// Last-known persistence is unaffected
	persisted, err := s.tracker.LastKnown(s.ctx)
	s.Require().NoError(err)
	s.Len(persisted, 1)
}
