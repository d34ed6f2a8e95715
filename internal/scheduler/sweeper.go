package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

type expiredSessionStore interface {
	EndExpired(ctx context.Context, now time.Time) (int64, error)
}

type snapshotInvalidator interface {
	InvalidateCache()
}

// Sweeper periodically closes sessions whose end time has passed while
// active=true. It is a safety net: the resolver already refuses expired
// sessions, the sweeper just keeps storage tidy.
type Sweeper struct {
	sessions  expiredSessionStore
	resolver  snapshotInvalidator
	interval  time.Duration
	scheduler *gocron.Scheduler
	logger    *zap.Logger
}

// NewSweeper builds a sweeper running at the given interval.
func NewSweeper(sessions expiredSessionStore, resolver snapshotInvalidator, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		sessions:  sessions,
		resolver:  resolver,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Start schedules the sweep and runs it in the background.
func (s *Sweeper) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("session sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
	s.logger.Info("session sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := s.sessions.EndExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("session sweep failed", zap.Error(err))
		return
	}
	if closed > 0 {
		s.resolver.InvalidateCache()
		s.logger.Info("expired sessions closed", zap.Int64("count", closed))
	}
}
