package repository

import (
	"context"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Appointment, error)
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)

	// IsSlotConfirmed reports whether a confirmed appointment already occupies slot.
	IsSlotConfirmed(ctx context.Context, slot entity.SlotKey) (bool, error)
}

type appointmentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAppointmentRepository(db database.PgxIface, log *zap.Logger) AppointmentRepository {
	return &appointmentRepository{
		db:  db,
		log: log.With(zap.String("repository", "appointment")),
	}
}

const appointmentColumns = `id, reservation_id, business_id, service_id, starts_at, staff_id,
	customer_id, customer_name, customer_phone, notes, status, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	query := `
		INSERT INTO appointments (id, reservation_id, slot_key, business_id, service_id, starts_at, staff_id,
		                          customer_id, customer_name, customer_phone, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := database.QuerierFrom(ctx, r.db).Exec(ctx, query,
		appointment.ID,
		appointment.ReservationID,
		appointment.Slot.String(),
		appointment.Slot.BusinessID,
		appointment.Slot.ServiceID,
		appointment.Slot.StartsAt.UTC(),
		appointment.Slot.StaffID,
		appointment.CustomerID,
		appointment.CustomerName,
		appointment.CustomerPhone,
		appointment.Notes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSlotConflict
		}
		r.log.Error("Failed to create appointment",
			zap.Error(err),
			zap.String("reservation_id", appointment.ReservationID.String()),
			zap.String("customer_id", appointment.CustomerID.String()),
		)
		return fmt.Errorf("create appointment for reservation %s: %w", appointment.ReservationID.String(), err)
	}

	return nil
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appointment, err := scanAppointment(database.QuerierFrom(ctx, r.db).QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find appointment by ID",
			zap.Error(err),
			zap.String("appointment_id", id.String()),
		)
		return nil, fmt.Errorf("find appointment by ID %s: %w", id.String(), err)
	}

	return appointment, nil
}

func (r *appointmentRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := database.QuerierFrom(ctx, r.db).Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find appointments by customer",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find appointments by customer %s: %w", customerID.String(), err)
	}
	defer rows.Close()

	var appointments []*entity.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			r.log.Error("Failed to scan appointment row", zap.Error(err))
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate appointment rows: %w", err)
	}

	return appointments, nil
}

func (r *appointmentRepository) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE customer_id = $1`

	var count int64
	err := database.QuerierFrom(ctx, r.db).QueryRow(ctx, query, customerID).Scan(&count)
	if err != nil {
		r.log.Error("Database error counting appointments",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return 0, fmt.Errorf("count appointments for customer %s: %w", customerID.String(), err)
	}

	return count, nil
}

func (r *appointmentRepository) IsSlotConfirmed(ctx context.Context, slot entity.SlotKey) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM appointments WHERE slot_key = $1 AND status = $2)`

	var exists bool
	err := database.QuerierFrom(ctx, r.db).QueryRow(ctx, query, slot.String(), entity.AppointmentStatusConfirmed).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check confirmed appointment for slot",
			zap.Error(err),
			zap.String("slot_key", slot.String()),
		)
		return false, fmt.Errorf("check confirmed appointment for slot %s: %w", slot.String(), err)
	}

	return exists, nil
}

func scanAppointment(row pgx.Row) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := row.Scan(
		&appointment.ID,
		&appointment.ReservationID,
		&appointment.Slot.BusinessID,
		&appointment.Slot.ServiceID,
		&appointment.Slot.StartsAt,
		&appointment.Slot.StaffID,
		&appointment.CustomerID,
		&appointment.CustomerName,
		&appointment.CustomerPhone,
		&appointment.Notes,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	appointment.Slot.StartsAt = appointment.Slot.StartsAt.UTC()
	return &appointment, nil
}
