package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/events"
	"appointment-booking/internal/metrics"
	"appointment-booking/pkg/clock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultReservationTTL = 10 * time.Minute

// ConfirmedBookingChecker answers whether a slot already has a confirmed booking.
type ConfirmedBookingChecker interface {
	IsSlotConfirmed(ctx context.Context, slot entity.SlotKey) (bool, error)
}

type ReservationService interface {
	Reserve(ctx context.Context, slot entity.SlotKey, holderID string, now time.Time) (*entity.SlotReservation, error)
	Consume(ctx context.Context, id uuid.UUID, now time.Time) (*entity.SlotReservation, error)
	Release(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error)
	CleanupExpired(ctx context.Context, now time.Time, batchSize int) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error)
	TTL() time.Duration
}

type ReservationOption func(*reservationService)

func WithReservationTTL(ttl time.Duration) ReservationOption {
	return func(s *reservationService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) ReservationOption {
	return func(s *reservationService) {
		s.metrics = m
	}
}

func WithPublisher(p events.Publisher) ReservationOption {
	return func(s *reservationService) {
		if p != nil {
			s.publisher = p
		}
	}
}

type reservationService struct {
	store     repository.ReservationRepository
	bookings  ConfirmedBookingChecker
	clock     clock.Clock
	ttl       time.Duration
	metrics   *metrics.Metrics
	publisher events.Publisher
	log       *zap.Logger
}

func NewReservationService(store repository.ReservationRepository, bookings ConfirmedBookingChecker, clk clock.Clock, log *zap.Logger, opts ...ReservationOption) ReservationService {
	s := &reservationService{
		store:     store,
		bookings:  bookings,
		clock:     clk,
		ttl:       DefaultReservationTTL,
		publisher: events.NewNopPublisher(),
		log:       log.With(zap.String("service", "reservation")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *reservationService) TTL() time.Duration {
	return s.ttl
}

func (s *reservationService) Reserve(ctx context.Context, slot entity.SlotKey, holderID string, now time.Time) (*entity.SlotReservation, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}
	if holderID == "" {
		return nil, fmt.Errorf("%w: holder id is required", ErrInvalidSlot)
	}
	slotKey := slot.String()

	confirmed, err := s.bookings.IsSlotConfirmed(ctx, slot)
	if err != nil {
		s.metrics.ObserveReserve(metrics.OutcomeError)
		return nil, storeError("check confirmed booking", err)
	}
	if confirmed {
		s.metrics.ObserveReserve(metrics.OutcomeUnavailable)
		s.log.Debug("Slot already booked", zap.String("slot_key", slotKey))
		return nil, ErrSlotUnavailable
	}

	active, err := s.store.FindActiveForSlot(ctx, slot, now)
	if err != nil {
		s.metrics.ObserveReserve(metrics.OutcomeError)
		return nil, storeError("find active hold", err)
	}
	if active != nil {
		s.metrics.ObserveReserve(metrics.OutcomeUnavailable)
		s.log.Debug("Slot already held",
			zap.String("slot_key", slotKey),
			zap.String("reservation_id", active.ID.String()),
		)
		return nil, ErrSlotUnavailable
	}

	reservation := entity.NewSlotReservation(slot, holderID, now, s.ttl)
	if err := s.store.Create(ctx, reservation); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			s.metrics.ObserveReserve(metrics.OutcomeUnavailable)
			s.log.Debug("Lost race for slot", zap.String("slot_key", slotKey))
			return nil, ErrSlotUnavailable
		}
		s.metrics.ObserveReserve(metrics.OutcomeError)
		return nil, storeError("create hold", err)
	}

	s.metrics.ObserveReserve(metrics.OutcomeSuccess)
	s.publish(ctx, events.ReservationCreated, reservation)
	s.log.Info("Slot reserved",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("slot_key", slotKey),
		zap.String("holder_id", holderID),
		zap.Time("expires_at", reservation.ExpiresAt),
	)

	return reservation, nil
}

func (s *reservationService) Consume(ctx context.Context, id uuid.UUID, now time.Time) (*entity.SlotReservation, error) {
	return s.transition(ctx, id, now, entity.ReservationStatusConsumed)
}

func (s *reservationService) Release(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error) {
	return s.transition(ctx, id, s.clock.Now(), entity.ReservationStatusReleased)
}

// transition moves a live hold out of ACTIVE. A hold past its expiry is
// reported as expired whatever its stored status.
func (s *reservationService) transition(ctx context.Context, id uuid.UUID, now time.Time, to entity.ReservationStatus) (*entity.SlotReservation, error) {
	reservation, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find hold", err)
	}
	if err := classify(reservation, now); err != nil {
		return nil, err
	}

	err = s.store.UpdateStatus(ctx, id, entity.ReservationStatusActive, to)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Lost a race with another transition; report what won.
		current, findErr := s.store.FindByID(ctx, id)
		if findErr != nil {
			return nil, storeError("find hold", findErr)
		}
		if err := classify(current, now); err != nil {
			return nil, err
		}
		return nil, ErrReservationNotActive
	}
	if err != nil {
		return nil, storeError("update hold status", err)
	}

	reservation.Status = to
	reservation.UpdatedAt = now

	s.metrics.ObserveTransition(string(to))
	switch to {
	case entity.ReservationStatusConsumed:
		s.publish(ctx, events.ReservationConsumed, reservation)
	case entity.ReservationStatusReleased:
		s.publish(ctx, events.ReservationReleased, reservation)
	}
	s.log.Info("Reservation status changed",
		zap.String("reservation_id", id.String()),
		zap.String("status", string(to)),
	)

	return reservation, nil
}

func classify(reservation *entity.SlotReservation, now time.Time) error {
	if reservation == nil {
		return ErrReservationNotFound
	}
	switch reservation.Status {
	case entity.ReservationStatusExpired:
		return ErrReservationExpired
	case entity.ReservationStatusActive:
		if !reservation.ExpiresAt.After(now) {
			return ErrReservationExpired
		}
		return nil
	default:
		return ErrReservationNotActive
	}
}

// CleanupExpired marks lapsed ACTIVE holds EXPIRED in batches until a batch
// comes back short. Holds that another caller moved first are skipped.
func (s *reservationService) CleanupExpired(ctx context.Context, now time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("invalid batch size %d", batchSize)
	}

	cleaned, err := s.cleanup(ctx, now, batchSize)
	s.metrics.ObserveCleanup(cleaned, err)
	if err != nil {
		s.log.Error("Cleanup of expired reservations failed",
			zap.Error(err),
			zap.Int("cleaned_up", cleaned),
		)
		return cleaned, err
	}

	if cleaned > 0 {
		s.log.Info("Expired reservations cleaned up", zap.Int("cleaned_up", cleaned))
	}
	return cleaned, nil
}

func (s *reservationService) cleanup(ctx context.Context, now time.Time, batchSize int) (int, error) {
	cleaned := 0
	for {
		if err := ctx.Err(); err != nil {
			return cleaned, err
		}

		batch, err := s.store.ListExpired(ctx, now, batchSize)
		if err != nil {
			return cleaned, storeError("list expired holds", err)
		}

		reclaimed := 0
		for _, reservation := range batch {
			err := s.store.UpdateStatus(ctx, reservation.ID, entity.ReservationStatusActive, entity.ReservationStatusExpired)
			if errors.Is(err, repository.ErrStatusConflict) {
				continue
			}
			if err != nil {
				return cleaned, storeError("expire hold", err)
			}

			reclaimed++
			cleaned++
			reservation.Status = entity.ReservationStatusExpired
			s.metrics.ObserveTransition(string(entity.ReservationStatusExpired))
			s.publish(ctx, events.ReservationExpired, reservation)
		}

		// A batch lost entirely to concurrent callers ends the run.
		if len(batch) < batchSize || reclaimed == 0 {
			return cleaned, nil
		}
	}
}

func (s *reservationService) Get(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error) {
	reservation, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find hold", err)
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

// publish sends the event now, or after commit when ctx carries an outbox.
func (s *reservationService) publish(ctx context.Context, eventType events.EventType, reservation *entity.SlotReservation) {
	o := outboxFrom(ctx)
	if o == nil {
		s.publisher.Publish(eventType, reservation)
		return
	}
	snapshot := *reservation
	o.add(func() { s.publisher.Publish(eventType, &snapshot) })
}

func validateSlot(slot entity.SlotKey) error {
	switch {
	case strings.TrimSpace(slot.BusinessID) == "":
		return fmt.Errorf("%w: business id is required", ErrInvalidSlot)
	case strings.TrimSpace(slot.ServiceID) == "":
		return fmt.Errorf("%w: service id is required", ErrInvalidSlot)
	case slot.StartsAt.IsZero():
		return fmt.Errorf("%w: start time is required", ErrInvalidSlot)
	}
	for name, part := range map[string]string{
		"business id": slot.BusinessID,
		"service id":  slot.ServiceID,
		"staff id":    slot.StaffID,
	} {
		if strings.Contains(part, entity.SlotKeySeparator) {
			return fmt.Errorf("%w: %s must not contain %q", ErrInvalidSlot, name, entity.SlotKeySeparator)
		}
	}
	return nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
