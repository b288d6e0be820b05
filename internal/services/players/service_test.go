package players

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/mocks"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = NewService(s.storage, s.clock)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestRegisterNewPlayer() {
	player, err := s.service.Register(s.ctx, "device-1", "Alice")

	s.Require().NoError(err)
	s.Equal(model.DeviceUUID("device-1"), player.DeviceUUID)
	s.Equal("Alice", player.PlayerName)
	s.Equal(s.clock.Now(), player.CreatedAt)
	s.Equal(s.clock.Now(), player.UpdatedAt)
}

func (s *ServiceSuite) TestRegisterValidation() {
	_, err := s.service.Register(s.ctx, "", "Alice")
	s.ErrorIs(err, model.ErrValidation)

	_, err = s.service.Register(s.ctx, "device-1", "")
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ServiceSuite) TestRegisterUpsertKeepsCreatedAt() {
	first, err := s.service.Register(s.ctx, "device-1", "Alice")
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	second, err := s.service.Register(s.ctx, "device-1", "Alicia")
	s.Require().NoError(err)

	s.Equal("Alicia", second.PlayerName)
	s.Equal(first.CreatedAt, second.CreatedAt)
	s.Equal(s.clock.Now(), second.UpdatedAt)

	players, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 1)
}

func (s *ServiceSuite) TestRegisterAllowsDuplicateNames() {
	_, err := s.service.Register(s.ctx, "device-1", "Alice")
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, "device-2", "Alice")
	s.Require().NoError(err)

	players, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *ServiceSuite) TestGetNotFound() {
	_, err := s.service.Get(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestDelete() {
	_, err := s.service.Register(s.ctx, "device-1", "Alice")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, "device-1"))

	_, err = s.service.Get(s.ctx, "device-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestDeleteNotFound() {
	s.ErrorIs(s.service.Delete(s.ctx, "nonexistent"), model.ErrPlayerNotFound)
}
