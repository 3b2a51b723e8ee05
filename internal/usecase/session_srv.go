package usecase

import (
	"context"
	"errors"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService manages the bearer sessions the API authenticates with.
// Sign-up and login live outside this service; sessions are issued by operators.
type SessionService interface {
	Issue(ctx context.Context, req *request.IssueSessionRequest) (*response.SessionResponse, error)
	Logout(ctx context.Context, token uuid.UUID) error
	Profile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
}

type sessionService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tx       Transactor
	clock    clock.Clock
	log      *zap.Logger
}

func NewSessionService(users repository.UserRepository, sessions repository.SessionRepository, tx Transactor, clk clock.Clock, log *zap.Logger) SessionService {
	return &sessionService{
		users:    users,
		sessions: sessions,
		tx:       tx,
		clock:    clk,
		log:      log.With(zap.String("service", "session")),
	}
}

func (s *sessionService) Issue(ctx context.Context, req *request.IssueSessionRequest) (*response.SessionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Issue session validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	now := s.clock.Now()
	var session *entity.Session
	var user *entity.User

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.users.FindByEmail(txCtx, req.Email)
		if err != nil {
			return err
		}

		if user == nil {
			user = &entity.User{
				BaseNoDelete: entity.BaseNoDelete{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				Username: req.Username,
				Email:    req.Email,
				Role:     entity.UserRole(req.Role),
				IsActive: true,
			}
			if err := s.users.Create(txCtx, user); err != nil {
				return err
			}
			s.log.Info("User provisioned",
				zap.String("user_id", user.ID.String()),
				zap.String("role", req.Role),
			)
		}

		session = &entity.Session{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			UserID:    user.ID,
			Token:     uuid.New(),
			ExpiresAt: now.Add(req.TTL),
		}
		return s.sessions.Create(txCtx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("issue session for %s: %w", req.Email, err)
	}

	s.log.Info("Session issued",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return &response.SessionResponse{
		Token:     session.Token.String(),
		UserID:    user.ID.String(),
		Role:      user.Role,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *sessionService) Logout(ctx context.Context, token uuid.UUID) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("logout: %w", err)
	}

	s.log.Info("Session revoked")
	return nil
}

func (s *sessionService) Profile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}
