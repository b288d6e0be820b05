package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/world"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{StorageType: "bogus"})
	require.Error(t, err)

	_, err = New(Config{StorageType: StorageTypeSQLite})
	require.Error(t, err)

	_, err = New(Config{StorageType: StorageTypeRedis})
	require.Error(t, err)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, app.Close())
}

func TestNewWithSQLite(t *testing.T) {
	app, err := New(Config{
		StorageType: StorageTypeSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "world.db"),
	})
	require.NoError(t, err)
	require.NoError(t, app.Close())
}

// IntegrationSuite exercises a full game flow through the wired services
type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	_ = s.app.Close()
}

func (s *IntegrationSuite) TestFullGameFlow() {
	// Two players register
	alice, err := s.app.PlayersService.Register(s.ctx, "device-a", "Alice")
	s.Require().NoError(err)
	s.Equal("Alice", alice.PlayerName)
	_, err = s.app.PlayersService.Register(s.ctx, "device-b", "Bob")
	s.Require().NoError(err)

	// Alice places a multifindable object
	view, err := s.app.WorldService.CreateObject(s.ctx, &model.Object{
		ID:            "cache-1",
		Name:          "Hidden Cache",
		Latitude:      -27.47,
		Longitude:     153.02,
		Multifindable: true,
		CreatedBy:     "device-a",
	})
	s.Require().NoError(err)
	s.False(view.Collected)

	// Bob finds it; Alice still sees it as available
	_, err = s.app.FindsService.MarkFound(s.ctx, "cache-1", "device-b")
	s.Require().NoError(err)

	bobView, err := s.app.WorldService.GetObject(s.ctx, "cache-1", "device-b")
	s.Require().NoError(err)
	s.True(bobView.Collected)

	aliceView, err := s.app.WorldService.GetObject(s.ctx, "cache-1", "device-a")
	s.Require().NoError(err)
	s.False(aliceView.Collected)

	// Both report live positions
	s.Require().NoError(s.app.LocationTracker.Update(s.ctx, &model.LiveLocation{
		DeviceUUID: "device-a", Latitude: -27.47, Longitude: 153.02,
	}))
	s.Require().NoError(s.app.LocationTracker.Update(s.ctx, &model.LiveLocation{
		DeviceUUID: "device-b", Latitude: -27.48, Longitude: 153.03,
	}))
	s.Len(s.app.LocationTracker.Active(), 2)

	// The leaderboard credits Bob's find
	stats, err := s.app.WorldService.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.ObjectCount)
	s.Equal(1, stats.FindCount)
	s.Equal(2, stats.PlayerCount)
	s.Require().Len(stats.Leaderboard, 1)
	s.Equal("Bob", stats.Leaderboard[0].DisplayName)

	// Resetting the ledger makes the object available to everyone again
	deleted, err := s.app.FindsService.ResetAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	bobView, err = s.app.WorldService.GetObject(s.ctx, "cache-1", "device-b")
	s.Require().NoError(err)
	s.False(bobView.Collected)
}

func (s *IntegrationSuite) TestClockIsInjectedEverywhere() {
	start := s.app.MockClock.Now()

	view, err := s.app.WorldService.CreateObject(s.ctx, &model.Object{ID: "obj-1"})
	s.Require().NoError(err)
	s.Equal(start, view.CreatedAt)

	s.app.MockClock.Advance(time.Hour)
	find, err := s.app.FindsService.MarkFound(s.ctx, "obj-1", "device-1")
	s.Require().NoError(err)
	s.Equal(start.Add(time.Hour), find.FoundAt)
}

func (s *IntegrationSuite) TestDeleteObjectCascades() {
	_, err := s.app.WorldService.CreateObject(s.ctx, &model.Object{ID: "obj-1"})
	s.Require().NoError(err)
	_, err = s.app.FindsService.MarkFound(s.ctx, "obj-1", "device-1")
	s.Require().NoError(err)

	s.Require().NoError(s.app.WorldService.DeleteObject(s.ctx, "obj-1"))

	finds, err := s.app.FindsService.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(finds)

	views, err := s.app.WorldService.ListObjects(s.ctx, world.Filter{IncludeFound: true})
	s.Require().NoError(err)
	s.Empty(views)
}
