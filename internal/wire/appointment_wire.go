package wire

import (
	"appointment-booking/internal/adaptor"
	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAppointment(
	r chi.Router,
	appointmentHandler *adaptor.AppointmentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/appointments - consume a hold into a confirmed appointment
		r.Post("/api/appointments", appointmentHandler.CreateAppointment)

		// GET /api/appointments - the caller's appointments, paginated
		r.Get("/api/appointments", appointmentHandler.GetAppointments)
	})
}
