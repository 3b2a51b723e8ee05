package repository

import (
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	User        UserRepository
	Session     SessionRepository
	Reservation ReservationRepository
	Appointment AppointmentRepository
}

// NewRepository wires the postgres repositories. When rdb is non-nil,
// reservations are kept in redis instead.
func NewRepository(db database.PgxIface, rdb *redis.Client, clk clock.Clock, log *zap.Logger) *Repository {
	reservations := NewReservationRepository(db, log)
	if rdb != nil {
		reservations = NewRedisReservationRepository(rdb, clk, log)
	}

	return &Repository{
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Reservation: reservations,
		Appointment: NewAppointmentRepository(db, log),
	}
}
