package adaptor

import (
	"errors"
	"net/http"

	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Reservation *ReservationHandler
	Appointment *AppointmentHandler
	Cleanup     *CleanupHandler
	Session     *SessionHandler
}

func NewHandler(service *usecase.Service, clk clock.Clock, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Reservation: NewReservationHandler(service.Reservation, clk, log),
		Appointment: NewAppointmentHandler(service.Booking, log),
		Cleanup:     NewCleanupHandler(service.Reservation, clk, config.Reservation.CleanupBatchSize, log),
		Session:     NewSessionHandler(service.Session, log),
	}
}

// handleServiceError maps usecase errors onto the response envelope.
// Client errors log at warn, everything else at error.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	warn := func(reason string) {
		log.Warn(operation+" failed - "+reason,
			zap.Error(err),
			zap.String("operation", operation))
	}

	switch {
	case errors.Is(err, usecase.ErrValidation), errors.Is(err, usecase.ErrInvalidSlot):
		warn("invalid input")
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrReservationNotFound),
		errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, usecase.ErrSessionNotFound):
		warn("not found")
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		warn("forbidden")
		utils.ResponseForbidden(w, "Reservation belongs to another customer")

	case errors.Is(err, usecase.ErrSlotUnavailable):
		warn("slot unavailable")
		utils.ResponseConflict(w, "Slot is no longer available, please choose another time")

	case errors.Is(err, usecase.ErrReservationNotActive):
		warn("reservation not active")
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrReservationExpired):
		warn("reservation expired")
		utils.ResponseGone(w, "Reservation expired, please reserve the slot again")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
