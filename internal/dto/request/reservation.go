package request

import "time"

type CreateReservationRequest struct {
	BusinessID string    `json:"business_id" validate:"required,max=100,excludesall=0x7C"`
	ServiceID  string    `json:"service_id" validate:"required,max=100,excludesall=0x7C"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	StaffID    string    `json:"staff_id,omitempty" validate:"omitempty,max=100,excludesall=0x7C"`
}
