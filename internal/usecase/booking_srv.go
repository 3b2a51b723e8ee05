package usecase

import (
	"context"
	"errors"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"
	"appointment-booking/internal/metrics"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transactor runs fn in a single database transaction carried by ctx.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BookingService turns a held slot into a confirmed appointment.
type BookingService interface {
	CompleteBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateAppointmentRequest) (*response.AppointmentResponse, error)
	ListAppointments(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.AppointmentResponse], error)
}

type bookingService struct {
	reservations ReservationService
	appointments repository.AppointmentRepository
	tx           Transactor
	clock        clock.Clock
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewBookingService(reservations ReservationService, appointments repository.AppointmentRepository, tx Transactor, clk clock.Clock, m *metrics.Metrics, log *zap.Logger) BookingService {
	return &bookingService{
		reservations: reservations,
		appointments: appointments,
		tx:           tx,
		clock:        clk,
		metrics:      m,
		log:          log.With(zap.String("service", "booking")),
	}
}

// CompleteBooking records the appointment and consumes the hold in one
// transaction. Only the holder may complete its own reservation. Lifecycle
// events go out after commit.
//
// A redis hold store is outside the transaction: its consume is already
// applied when the commit runs. A commit failure then leaves the hold
// CONSUMED without an appointment, which is logged and counted.
func (s *bookingService) CompleteBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateAppointmentRequest) (*response.AppointmentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Complete booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID format %s: %w", ErrValidation, req.ReservationID, err)
	}

	now := s.clock.Now()
	var (
		appointment *entity.Appointment
		consumed    bool
	)

	pending := &outbox{}
	err = s.tx.WithTx(withOutbox(ctx, pending), func(txCtx context.Context) error {
		reservation, err := s.reservations.Get(txCtx, reservationID)
		if err != nil {
			return err
		}
		if reservation.HolderID != customerID.String() {
			return ErrForbidden
		}
		if err := classify(reservation, now); err != nil {
			return err
		}

		appointment = &entity.Appointment{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ReservationID: reservation.ID,
			Slot:          reservation.Slot,
			CustomerID:    customerID,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Notes:         req.Notes,
			Status:        entity.AppointmentStatusConfirmed,
		}
		if err := s.appointments.Create(txCtx, appointment); err != nil {
			if errors.Is(err, repository.ErrSlotConflict) {
				return ErrSlotUnavailable
			}
			return storeError("create appointment", err)
		}

		if _, err := s.reservations.Consume(txCtx, reservationID, now); err != nil {
			return err
		}
		consumed = true
		return nil
	})
	if err != nil && consumed {
		s.checkOrphanedConsume(ctx, reservationID, err)
		return nil, storeError("commit booking", err)
	}
	if err != nil {
		s.log.Warn("Complete booking failed",
			zap.Error(err),
			zap.String("reservation_id", req.ReservationID),
			zap.String("customer_id", customerID.String()),
		)
		return nil, err
	}

	pending.flush()
	s.log.Info("Appointment confirmed",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("reservation_id", req.ReservationID),
		zap.String("slot_key", appointment.Slot.String()),
	)

	resp := response.AppointmentToResponse(appointment)
	return &resp, nil
}

// checkOrphanedConsume re-reads a hold whose booking failed to commit. A
// transactional store has rolled the consume back; any other store still
// reports it CONSUMED.
func (s *bookingService) checkOrphanedConsume(ctx context.Context, reservationID uuid.UUID, commitErr error) {
	current, err := s.reservations.Get(ctx, reservationID)
	if err != nil {
		s.log.Error("Cannot verify hold after failed booking commit",
			zap.Error(err),
			zap.NamedError("commit_error", commitErr),
			zap.String("reservation_id", reservationID.String()),
		)
		return
	}
	if current.Status != entity.ReservationStatusConsumed {
		return
	}

	s.metrics.ObserveOrphanedConsume()
	s.log.Error("Hold consumed but booking not committed",
		zap.NamedError("commit_error", commitErr),
		zap.String("reservation_id", reservationID.String()),
		zap.String("slot_key", current.Slot.String()),
		zap.String("holder_id", current.HolderID),
	)
}

func (s *bookingService) ListAppointments(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.AppointmentResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	appointments, err := s.appointments.FindByCustomerID(ctx, customerID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get customer appointments",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("get customer appointments: %w", err)
	}

	total, err := s.appointments.CountByCustomerID(ctx, customerID)
	if err != nil {
		s.log.Error("Failed to count customer appointments", zap.Error(err))
		return nil, fmt.Errorf("count customer appointments: %w", err)
	}

	items := make([]response.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		items[i] = response.AppointmentToResponse(appointment)
	}

	return response.NewPaginatedResponse(items, req.Page, limit, total), nil
}
