package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Sweeper drops idle attempts.
type Sweeper interface {
	SweepIdle(maxIdle time.Duration) int
}

// Scheduler runs background maintenance for the service.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	logger    *zap.Logger
}

func New(sweeper Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		logger:    logger,
	}
}

// Start sweeps attempts idle longer than maxIdle every interval, without blocking.
func (s *Scheduler) Start(interval, maxIdle time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	_, err := s.scheduler.Every(interval).SingletonMode().Do(func() {
		removed := s.sweeper.SweepIdle(maxIdle)
		s.logger.Debug("idle sweep finished", zap.Int("removed", removed))
	})
	if err != nil {
		return fmt.Errorf("schedule idle sweep: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
