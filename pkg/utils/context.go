package utils

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Role   string
	Token  uuid.UUID
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != uuid.Nil
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFrom(ctx)
	return p.UserID, ok
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	return p.Role, ok
}
