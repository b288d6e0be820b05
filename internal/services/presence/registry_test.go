package presence

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry(testutil.NopLogger())
}

func (s *RegistrySuite) TestRegisterAndResolve() {
	s.Require().NoError(s.registry.Register("session-1", "device-1"))

	device, ok := s.registry.DeviceForSession("session-1")
	s.True(ok)
	s.Equal(model.DeviceUUID("device-1"), device)
	s.True(s.registry.IsOnline("device-1"))
}

func (s *RegistrySuite) TestRegisterValidation() {
	s.ErrorIs(s.registry.Register("", "device-1"), model.ErrValidation)
	s.ErrorIs(s.registry.Register("session-1", ""), model.ErrValidation)
}

func (s *RegistrySuite) TestRegisterSamePairIsNoOp() {
	s.Require().NoError(s.registry.Register("session-1", "device-1"))
	s.Require().NoError(s.registry.Register("session-1", "device-1"))

	clients := s.registry.ListConnected()
	s.Require().Len(clients, 1)
	s.Equal(1, clients[0].SessionCount)
}

func (s *RegistrySuite) TestRegisterRebindsSession() {
	s.Require().NoError(s.registry.Register("session-1", "device-1"))
	s.Require().NoError(s.registry.Register("session-1", "device-2"))

	device, ok := s.registry.DeviceForSession("session-1")
	s.True(ok)
	s.Equal(model.DeviceUUID("device-2"), device)
	s.False(s.registry.IsOnline("device-1"))
	s.True(s.registry.IsOnline("device-2"))
}

func (s *RegistrySuite) TestUnregisterReportsDeviceGone() {
	s.Require().NoError(s.registry.Register("session-1", "device-1"))
	s.Require().NoError(s.registry.Register("session-2", "device-1"))

	device, gone := s.registry.Unregister("session-1")
	s.Equal(model.DeviceUUID("device-1"), device)
	s.False(gone)

	device, gone = s.registry.Unregister("session-2")
	s.Equal(model.DeviceUUID("device-1"), device)
	s.True(gone)

	s.False(s.registry.IsOnline("device-1"))
}

func (s *RegistrySuite) TestUnregisterUnknownSession() {
	device, gone := s.registry.Unregister("nonexistent")
	s.Empty(device)
	s.False(gone)
}

func (s *RegistrySuite) TestKick() {
	s.Require().NoError(s.registry.Register("session-b", "device-1"))
	s.Require().NoError(s.registry.Register("session-a", "device-1"))
	s.Require().NoError(s.registry.Register("session-c", "device-2"))

	kicked := s.registry.Kick("device-1")

	s.Equal([]SessionID{"session-a", "session-b"}, kicked)
	s.False(s.registry.IsOnline("device-1"))
	s.True(s.registry.IsOnline("device-2"))

	_, ok := s.registry.DeviceForSession("session-a")
	s.False(ok)
}

func (s *RegistrySuite) TestKickOfflineDevice() {
	s.Nil(s.registry.Kick("device-1"))
}

func (s *RegistrySuite) TestListConnectedSorted() {
	s.Require().NoError(s.registry.Register("session-1", "device-b"))
	s.Require().NoError(s.registry.Register("session-2", "device-a"))
	s.Require().NoError(s.registry.Register("session-3", "device-a"))

	clients := s.registry.ListConnected()

	s.Require().Len(clients, 2)
	s.Equal(model.DeviceUUID("device-a"), clients[0].DeviceUUID)
	s.Equal(2, clients[0].SessionCount)
	s.Equal([]string{"session-2", "session-3"}, clients[0].SessionIDs)
	s.Equal(model.DeviceUUID("device-b"), clients[1].DeviceUUID)
}
