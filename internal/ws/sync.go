package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/presence"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/world"
)

const (
	// DefaultBatchSize is how many objects go into one objects_batch event
	DefaultBatchSize = 50

	// DefaultResyncInterval is how often every session gets a fresh
	// snapshot regardless of delta delivery
	DefaultResyncInterval = 5 * time.Minute
)

// Syncer pushes full world snapshots to sessions as bounded objects_batch
// events. Snapshots are the safety net for missed deltas: a client that
// lost a broadcast converges on the next sync.
type Syncer struct {
	world     *world.Service
	hub       *Hub
	registry  *presence.Registry
	logger    *slog.Logger
	batchSize int
}

// NewSyncer creates a Syncer with the default batch size
func NewSyncer(worldSvc *world.Service, hub *Hub, registry *presence.Registry, logger *slog.Logger) *Syncer {
	return &Syncer{
		world:     worldSvc,
		hub:       hub,
		registry:  registry,
		logger:    logger.With(slog.String("component", "ws-sync")),
		batchSize: DefaultBatchSize,
	}
}

// SendWorld streams the full object set to one session. Visibility is
// personalized when the session has registered a device. An empty world
// still yields one batch so the client can detect completion.
func (s *Syncer) SendWorld(ctx context.Context, sessionID presence.SessionID) error {
	viewer, _ := s.registry.DeviceForSession(sessionID)
	views, err := s.world.ListObjects(ctx, world.Filter{
		IncludeFound: true,
		Viewer:       viewer,
	})
	if err != nil {
		return err
	}

	total := (len(views) + s.batchSize - 1) / s.batchSize
	if total == 0 {
		total = 1
	}

	for i := 0; i < total; i++ {
		start := i * s.batchSize
		end := start + s.batchSize
		if end > len(views) {
			end = len(views)
		}
		s.hub.SendToSession(sessionID, model.Event{
			Type: model.EventObjectsBatch,
			Payload: model.ObjectsBatchPayload{
				Objects:      views[start:end],
				BatchIndex:   i,
				TotalBatches: total,
				IsLastBatch:  i == total-1,
			},
		})
	}

	s.logger.Debug("world snapshot sent",
		slog.String("session_id", string(sessionID)),
		slog.Int("objects", len(views)),
		slog.Int("batches", total))
	return nil
}

// Resyncer periodically pushes a fresh snapshot to every connected
// session
type Resyncer struct {
	syncer   *Syncer
	hub      *Hub
	logger   *slog.Logger
	interval time.Duration
}

// NewResyncer creates a Resyncer with the given interval; zero means the
// default
func NewResyncer(syncer *Syncer, hub *Hub, logger *slog.Logger, interval time.Duration) *Resyncer {
	if interval <= 0 {
		interval = DefaultResyncInterval
	}
	return &Resyncer{
		syncer:   syncer,
		hub:      hub,
		logger:   logger.With(slog.String("component", "ws-resync")),
		interval: interval,
	}
}

// Run resyncs all sessions on a ticker until the context is cancelled
func (r *Resyncer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("periodic resync started", slog.Duration("interval", r.interval))
	for {
		select {
		case <-ticker.C:
			sessions := r.hub.SessionIDs()
			for _, sessionID := range sessions {
				if err := r.syncer.SendWorld(ctx, sessionID); err != nil {
					r.logger.Error("periodic resync failed",
						slog.String("session_id", string(sessionID)),
						slog.Any("error", err))
				}
			}
			if len(sessions) > 0 {
				r.logger.Debug("periodic resync complete",
					slog.Int("sessions", len(sessions)))
			}

		case <-ctx.Done():
			r.logger.Info("periodic resync stopped")
			return
		}
	}
}
