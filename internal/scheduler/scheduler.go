package scheduler

import (
	"context"
	"log/slog"
	"time"

	"hn_reader/internal/domain"
)

type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncResult, error)
}

// Scheduler runs the syncer immediately and then every interval until the
// context is cancelled. Each run is bounded by runTimeout.
type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:     syncer,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "run_timeout", s.runTimeout)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single bounded sync and reports whether it succeeded.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	syncCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	result, err := s.syncer.Sync(syncCtx)
	if err != nil {
		s.logger.Error("sync failed", "error", err)
		return false
	}

	s.logger.Info("sync finished",
		"synced", result.Synced,
		"errors", result.Stats.Errors,
		"duration", result.Stats.Duration,
	)
	return true
}
