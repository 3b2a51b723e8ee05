package entity

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is a confirmed booking produced by consuming a reservation.
type Appointment struct {
	BaseNoDelete
	ReservationID uuid.UUID         `db:"reservation_id"`
	Slot          SlotKey           `db:"slot_key"`
	CustomerID    uuid.UUID         `db:"customer_id"`
	CustomerName  string            `db:"customer_name"`
	CustomerPhone *string           `db:"customer_phone"`
	Notes         *string           `db:"notes"`
	Status        AppointmentStatus `db:"status"`
}
