package repository

import (
	"context"
	"errors"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error)
	Revoke(ctx context.Context, token uuid.UUID) error
}

type sessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSessionRepository(db database.PgxIface, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	_, err := database.QuerierFrom(ctx, r.db).Exec(ctx,
		`INSERT INTO sessions (id, user_id, token, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		r.log.Error("Failed to insert session", zap.Error(err), zap.Stringer("user_id", session.UserID))
		return fmt.Errorf("insert session for user %s: %w", session.UserID, err)
	}
	return nil
}

// FindValidSession returns nil for unknown, revoked and expired tokens, and
// for tokens whose owner has been deactivated.
func (r *sessionRepository) FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error) {
	rows, err := database.QuerierFrom(ctx, r.db).Query(ctx, `
		SELECT s.id, s.user_id, s.token, s.expires_at, s.revoked_at, s.created_at, u.role
		FROM sessions s
		JOIN users u ON u.id = s.user_id AND u.is_active
		WHERE s.token = $1 AND s.revoked_at IS NULL AND s.expires_at > NOW()
	`, token)
	if err != nil {
		r.log.Error("Session lookup failed", zap.Error(err))
		return nil, fmt.Errorf("query session: %w", err)
	}

	session, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[entity.Session])
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		r.log.Error("Session scan failed", zap.Error(err))
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return session, nil
}

// Revoke returns ErrSessionNotFound when token is unknown or already revoked.
func (r *sessionRepository) Revoke(ctx context.Context, token uuid.UUID) error {
	tag, err := database.QuerierFrom(ctx, r.db).Exec(ctx,
		`UPDATE sessions SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`, token)
	if err != nil {
		r.log.Error("Failed to revoke session", zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
