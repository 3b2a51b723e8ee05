package usecase

import (
	"context"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeSessions struct {
	sessions map[uuid.UUID]*entity.Session
}

func (f *fakeSessions) Create(_ context.Context, s *entity.Session) error {
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	s := f.sessions[token]
	if s == nil || s.RevokedAt != nil {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSessions) Revoke(_ context.Context, token uuid.UUID) error {
	s := f.sessions[token]
	if s == nil || s.RevokedAt != nil {
		return repository.ErrSessionNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func TestSessionService(t *testing.T) {
	ctx := context.Background()
	users := &fakeUsers{users: map[uuid.UUID]*entity.User{}}
	sessions := &fakeSessions{sessions: map[uuid.UUID]*entity.Session{}}
	svc := NewSessionService(users, sessions, &fakeTransactor{}, clock.NewManual(t0), zap.NewNop())

	req := &request.IssueSessionRequest{
		Username: "dana",
		Email:    "dana@example.com",
		Role:     "admin",
		TTL:      time.Hour,
	}

	first, err := svc.Issue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, first.Role)
	assert.Equal(t, t0.Add(time.Hour), first.ExpiresAt)

	// Same email reuses the user.
	second, err := svc.Issue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Len(t, users.users, 1)

	profile, err := svc.Profile(ctx, uuid.MustParse(first.UserID))
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", profile.Email)

	_, err = svc.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	token := uuid.MustParse(first.Token)
	require.NoError(t, svc.Logout(ctx, token))
	assert.ErrorIs(t, svc.Logout(ctx, token), ErrSessionNotFound)

	_, err = svc.Issue(ctx, &request.IssueSessionRequest{Username: "x", Email: "nope", Role: "root"})
	assert.ErrorIs(t, err, ErrValidation)
}
