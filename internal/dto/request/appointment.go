package request

type CreateAppointmentRequest struct {
	ReservationID string  `json:"reservation_id" validate:"required,uuid4"`
	CustomerName  string  `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone *string `json:"customer_phone,omitempty" validate:"omitempty,min=9,max=20"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}
