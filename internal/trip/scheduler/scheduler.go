package scheduler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

// Scheduler drives every active trip from one goroutine at a fixed interval.
type Scheduler struct {
	trips    trip.UseCase
	interval time.Duration
	logger   logger.ZapLogger
}

func NewScheduler(trips trip.UseCase, interval time.Duration, log logger.ZapLogger) *Scheduler {
	return &Scheduler{
		trips:    trips,
		interval: interval,
		logger:   log,
	}
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting trip scheduler", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping trip scheduler")
			return
		case <-ticker.C:
			s.trips.TickAll(ctx)
		}
	}
}
