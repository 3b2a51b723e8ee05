package wire

import (
	"appointment-booking/internal/adaptor"
	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/middleware"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCleanup(
	r chi.Router,
	cleanupHandler *adaptor.CleanupHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	if config.Reservation.CleanupTokenHash == "" {
		log.Warn("CLEANUP_TOKEN_HASH is not set; POST /api/cleanup-reservations accepts unauthenticated requests")
	}

	// POST /api/cleanup-reservations - scheduler entry point, idempotent
	r.With(middleware.CleanupTrigger(config.Reservation.CleanupTokenHash, log)).
		Post("/api/cleanup-reservations", cleanupHandler.CleanupReservations)

	// Manual run from an admin session
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(log))

		r.Post("/api/admin/cleanup-reservations", cleanupHandler.CleanupReservations)
	})
}
