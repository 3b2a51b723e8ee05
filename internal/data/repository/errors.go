package repository

import "errors"

var (
	// ErrSlotConflict: the slot already has an active hold or confirmed appointment.
	ErrSlotConflict = errors.New("slot conflict")
	// ErrStatusConflict: a conditional status update found the record missing
	// or not in the expected status.
	ErrStatusConflict = errors.New("status conflict")
	// ErrInvalidTransition: the requested status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrSessionNotFound: no unrevoked session carries the token.
	ErrSessionNotFound = errors.New("session not found or already revoked")
)
