package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bearer token bound to a user. Role is not stored on the
// session row; it is read from the owning user on every lookup.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	Role      UserRole   `db:"role"`
}
