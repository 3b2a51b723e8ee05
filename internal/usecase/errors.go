package usecase

import "errors"

var (
	ErrSlotUnavailable      = errors.New("slot unavailable")
	ErrReservationExpired   = errors.New("reservation expired")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationNotActive = errors.New("reservation not active")
	ErrStoreUnavailable     = errors.New("reservation store unavailable")

	ErrValidation      = errors.New("validation failed")
	ErrInvalidSlot     = errors.New("invalid slot")
	ErrForbidden       = errors.New("forbidden")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)
