package usecase

import (
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/metrics"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Reservation ReservationService
	Booking     BookingService
	Session     SessionService
	Sweeper     *Sweeper
}

// NewService builds the use cases. m may be nil.
func NewService(repo *repository.Repository, tx Transactor, clk clock.Clock, m *metrics.Metrics, config *utils.Config, log *zap.Logger, opts ...ReservationOption) *Service {
	opts = append([]ReservationOption{WithReservationTTL(config.Reservation.TTL), WithMetrics(m)}, opts...)
	reservations := NewReservationService(repo.Reservation, repo.Appointment, clk, log, opts...)

	return &Service{
		Reservation: reservations,
		Booking:     NewBookingService(reservations, repo.Appointment, tx, clk, m, log),
		Session:     NewSessionService(repo.User, repo.Session, tx, clk, log),
		Sweeper:     NewSweeper(reservations, clk, config.Reservation.CleanupInterval, config.Reservation.CleanupBatchSize, log),
	}
}
