package wire

import (
	"appointment-booking/internal/adaptor"
	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/reservations", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/reservations - hold a slot while the booking is completed
		r.Post("/", reservationHandler.CreateReservation)

		// GET /api/reservations/{id} - holder (or admin) view of a hold
		r.Get("/{id}", reservationHandler.GetReservation)

		// DELETE /api/reservations/{id} - release a hold early
		r.Delete("/{id}", reservationHandler.ReleaseReservation)
	})
}
