package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/clock"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

// Service owns the player directory keyed by device uuid. Display names
// are free text and intentionally not unique.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
}

// NewService creates a new player directory service
func NewService(store storage.Storage, clk clock.Clock) *Service {
	return &Service{
		storage: store,
		clock:   clk,
	}
}

// Register upserts a player record. A new device gets a CreatedAt stamp;
// an existing one keeps it and only UpdatedAt moves.
func (s *Service) Register(ctx context.Context, deviceUUID model.DeviceUUID, playerName string) (*model.Player, error) {
	if deviceUUID == "" {
		return nil, fmt.Errorf("device_uuid is required: %w", model.ErrValidation)
	}
	if playerName == "" {
		return nil, fmt.Errorf("player_name is required: %w", model.ErrValidation)
	}

	now := s.clock.Now().UTC()
	player := &model.Player{
		DeviceUUID: deviceUUID,
		PlayerName: playerName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, err := s.storage.GetPlayer(ctx, deviceUUID)
	switch {
	case err == nil:
		player.CreatedAt = existing.CreatedAt
	case errors.Is(err, model.ErrPlayerNotFound):
	default:
		return nil, err
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Get returns one player record
func (s *Service) Get(ctx context.Context, deviceUUID model.DeviceUUID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, deviceUUID)
}

// List returns all player records
func (s *Service) List(ctx context.Context) ([]*model.Player, error) {
	return s.storage.ListPlayers(ctx)
}

// Delete removes a player record. The device's find rows stay in the
// ledger; only the directory entry goes.
func (s *Service) Delete(ctx context.Context, deviceUUID model.DeviceUUID) error {
	return s.storage.DeletePlayer(ctx, deviceUUID)
}
