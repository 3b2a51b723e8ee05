package usecase

import (
	"context"
	"time"

	"appointment-booking/pkg/clock"

	"go.uber.org/zap"
)

// Sweeper runs CleanupExpired on a fixed interval inside the server process.
// It may run next to external triggers since cleanup is idempotent.
type Sweeper struct {
	reservations ReservationService
	clock        clock.Clock
	interval     time.Duration
	batchSize    int
	log          *zap.Logger
}

func NewSweeper(reservations ReservationService, clk clock.Clock, interval time.Duration, batchSize int, log *zap.Logger) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		clock:        clk,
		interval:     interval,
		batchSize:    batchSize,
		log:          log.With(zap.String("service", "sweeper")),
	}
}

// Run blocks until ctx is done. A failed run is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Reservation sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reservation sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) int {
	cleaned, err := s.reservations.CleanupExpired(ctx, s.clock.Now(), s.batchSize)
	if err != nil && ctx.Err() == nil {
		s.log.Warn("Sweep failed, retrying on next tick", zap.Error(err), zap.Int("cleaned_up", cleaned))
	}
	return cleaned
}
