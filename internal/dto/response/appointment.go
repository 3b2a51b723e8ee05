package response

import (
	"time"

	"appointment-booking/internal/data/entity"
)

type AppointmentResponse struct {
	ID            string                   `json:"id"`
	ReservationID string                   `json:"reservation_id"`
	SlotKey       string                   `json:"slot_key"`
	BusinessID    string                   `json:"business_id"`
	ServiceID     string                   `json:"service_id"`
	StaffID       string                   `json:"staff_id,omitempty"`
	StartsAt      time.Time                `json:"starts_at"`
	CustomerID    string                   `json:"customer_id"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone *string                  `json:"customer_phone,omitempty"`
	Notes         *string                  `json:"notes,omitempty"`
	Status        entity.AppointmentStatus `json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
}

func AppointmentToResponse(a *entity.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID.String(),
		ReservationID: a.ReservationID.String(),
		SlotKey:       a.Slot.String(),
		BusinessID:    a.Slot.BusinessID,
		ServiceID:     a.Slot.ServiceID,
		StaffID:       a.Slot.StaffID,
		StartsAt:      a.Slot.StartsAt,
		CustomerID:    a.CustomerID.String(),
		CustomerName:  a.CustomerName,
		CustomerPhone: a.CustomerPhone,
		Notes:         a.Notes,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt,
	}
}
