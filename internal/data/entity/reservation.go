package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "ACTIVE"
	ReservationStatusExpired  ReservationStatus = "EXPIRED"
	ReservationStatusConsumed ReservationStatus = "CONSUMED"
	ReservationStatusReleased ReservationStatus = "RELEASED"
)

// IsTerminal reports whether no transition may leave s.
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationStatusActive
}

// CanTransition allows only ACTIVE -> {EXPIRED, CONSUMED, RELEASED}.
func CanTransition(from, to ReservationStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case ReservationStatusExpired, ReservationStatusConsumed, ReservationStatusReleased:
		return true
	}
	return false
}

// SlotKeySeparator joins the parts of a SlotKey. Slot ids must not contain it.
const SlotKeySeparator = "|"

// SlotKey identifies one bookable unit of business capacity.
type SlotKey struct {
	BusinessID string
	ServiceID  string
	StartsAt   time.Time
	StaffID    string
}

// String is the canonical form used as the uniqueness scope of an active hold:
// business|service|start[|staff], with the start in RFC3339 UTC.
func (k SlotKey) String() string {
	parts := []string{k.BusinessID, k.ServiceID, k.StartsAt.UTC().Format(time.RFC3339)}
	if k.StaffID != "" {
		parts = append(parts, k.StaffID)
	}
	return strings.Join(parts, SlotKeySeparator)
}

type SlotReservation struct {
	BaseNoDelete
	Slot      SlotKey           `db:"slot_key"`
	HolderID  string            `db:"holder_id"`
	Status    ReservationStatus `db:"status"`
	ExpiresAt time.Time         `db:"expires_at"`
}

// IsActiveAt reports whether the hold still blocks its slot at now.
// An ACTIVE row past its expiry is logically expired.
func (r *SlotReservation) IsActiveAt(now time.Time) bool {
	return r.Status == ReservationStatusActive && r.ExpiresAt.After(now)
}

// NewSlotReservation builds an ACTIVE hold created at now and valid for ttl.
// Timestamps are kept at millisecond precision, the resolution of the redis store.
func NewSlotReservation(slot SlotKey, holderID string, now time.Time, ttl time.Duration) *SlotReservation {
	now = now.UTC().Truncate(time.Millisecond)
	return &SlotReservation{
		BaseNoDelete: BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Slot:      slot,
		HolderID:  holderID,
		Status:    ReservationStatusActive,
		ExpiresAt: now.Add(ttl),
	}
}
