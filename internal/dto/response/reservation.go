package response

import (
	"time"

	"appointment-booking/internal/data/entity"
)

type ReservationResponse struct {
	ID         string                   `json:"id"`
	SlotKey    string                   `json:"slot_key"`
	BusinessID string                   `json:"business_id"`
	ServiceID  string                   `json:"service_id"`
	StaffID    string                   `json:"staff_id,omitempty"`
	StartsAt   time.Time                `json:"starts_at"`
	HolderID   string                   `json:"holder_id"`
	Status     entity.ReservationStatus `json:"status"`
	CreatedAt  time.Time                `json:"created_at"`
	ExpiresAt  time.Time                `json:"expires_at"`
}

func ReservationToResponse(r *entity.SlotReservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID.String(),
		SlotKey:    r.Slot.String(),
		BusinessID: r.Slot.BusinessID,
		ServiceID:  r.Slot.ServiceID,
		StaffID:    r.Slot.StaffID,
		StartsAt:   r.Slot.StartsAt,
		HolderID:   r.HolderID,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ExpiresAt:  r.ExpiresAt,
	}
}

// CleanupResponse is the scheduler-facing result of a cleanup run.
type CleanupResponse struct {
	Success   bool `json:"success"`
	CleanedUp int  `json:"cleanedUp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
