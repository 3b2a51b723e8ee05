package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ReservationRepository is the durable store of slot holds. Create and
// UpdateStatus are the only writers and carry the concurrency guarantees:
// Create fails with ErrSlotConflict when the slot already has a live hold and
// UpdateStatus is a compare-and-set on the current status.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.SlotReservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error)
	FindActiveForSlot(ctx context.Context, slot entity.SlotKey, now time.Time) (*entity.SlotReservation, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.SlotReservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) error
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `id, business_id, service_id, starts_at, staff_id, holder_id, status, created_at, expires_at, updated_at`

// Create inserts the hold and claims its slot in one transaction. The claim
// is only taken over from a hold whose expiry has passed at CreatedAt, so of
// two concurrent callers the second sees the first's claim and gets
// ErrSlotConflict. The lapsed hold itself stays ACTIVE until cleanup.
func (r *reservationRepository) Create(ctx context.Context, reservation *entity.SlotReservation) error {
	slotKey := reservation.Slot.String()

	err := database.WithTx(ctx, r.db, func(txCtx context.Context) error {
		q := database.QuerierFrom(txCtx, r.db)

		_, err := q.Exec(txCtx, `
			INSERT INTO slot_reservations (id, slot_key, business_id, service_id, starts_at, staff_id,
			                               holder_id, status, created_at, expires_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			reservation.ID,
			slotKey,
			reservation.Slot.BusinessID,
			reservation.Slot.ServiceID,
			reservation.Slot.StartsAt.UTC(),
			reservation.Slot.StaffID,
			reservation.HolderID,
			reservation.Status,
			reservation.CreatedAt,
			reservation.ExpiresAt,
			reservation.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert reservation %s: %w", reservation.ID.String(), err)
		}

		claimed, err := q.Exec(txCtx, `
			INSERT INTO slot_holds (slot_key, reservation_id, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (slot_key) DO UPDATE
			SET reservation_id = EXCLUDED.reservation_id, expires_at = EXCLUDED.expires_at
			WHERE slot_holds.expires_at <= $4
		`, slotKey, reservation.ID, reservation.ExpiresAt, reservation.CreatedAt)
		if err != nil {
			return fmt.Errorf("claim slot %s: %w", slotKey, err)
		}
		if claimed.RowsAffected() == 0 {
			return ErrSlotConflict
		}
		return nil
	})

	if err != nil && !errors.Is(err, ErrSlotConflict) {
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("slot_key", slotKey),
			zap.String("holder_id", reservation.HolderID),
		)
		return fmt.Errorf("create reservation for slot %s: %w", slotKey, err)
	}
	return err
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM slot_reservations WHERE id = $1`

	reservation, err := scanReservation(database.QuerierFrom(ctx, r.db).QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return reservation, nil
}

func (r *reservationRepository) FindActiveForSlot(ctx context.Context, slot entity.SlotKey, now time.Time) (*entity.SlotReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM slot_reservations
		WHERE slot_key = $1 AND status = $2 AND expires_at > $3
		ORDER BY expires_at DESC
		LIMIT 1
	`

	reservation, err := scanReservation(database.QuerierFrom(ctx, r.db).QueryRow(ctx, query,
		slot.String(), entity.ReservationStatusActive, now))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active reservation for slot",
			zap.Error(err),
			zap.String("slot_key", slot.String()),
		)
		return nil, fmt.Errorf("find active reservation for slot %s: %w", slot.String(), err)
	}

	return reservation, nil
}

func (r *reservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.SlotReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM slot_reservations
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at
		LIMIT $3
	`

	rows, err := database.QuerierFrom(ctx, r.db).Query(ctx, query, entity.ReservationStatusActive, now, limit)
	if err != nil {
		r.log.Error("Failed to list expired reservations",
			zap.Error(err),
			zap.Time("now", now),
			zap.Int("limit", limit),
		)
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entity.SlotReservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired reservations: %w", err)
	}

	return reservations, nil
}

// UpdateStatus is a compare-and-set on status. Leaving ACTIVE also frees the
// slot claim so the slot can be held again before the old expiry.
func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) error {
	if !entity.CanTransition(from, to) {
		return fmt.Errorf("reservation %s %s -> %s: %w", id.String(), from, to, ErrInvalidTransition)
	}

	err := database.WithTx(ctx, r.db, func(txCtx context.Context) error {
		q := database.QuerierFrom(txCtx, r.db)

		result, err := q.Exec(txCtx,
			`UPDATE slot_reservations SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
			id, from, to)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrStatusConflict
		}

		if _, err := q.Exec(txCtx, `DELETE FROM slot_holds WHERE reservation_id = $1`, id); err != nil {
			return fmt.Errorf("free slot claim: %w", err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, ErrStatusConflict) {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update reservation %s status to %s: %w", id.String(), string(to), err)
	}
	return err
}

func scanReservation(row pgx.Row) (*entity.SlotReservation, error) {
	var reservation entity.SlotReservation
	err := row.Scan(
		&reservation.ID,
		&reservation.Slot.BusinessID,
		&reservation.Slot.ServiceID,
		&reservation.Slot.StartsAt,
		&reservation.Slot.StaffID,
		&reservation.HolderID,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.ExpiresAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	reservation.Slot.StartsAt = reservation.Slot.StartsAt.UTC()
	return &reservation, nil
}
