package adaptor

import (
	"context"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockReservationService struct {
	mock.Mock
}

func (m *mockReservationService) Reserve(ctx context.Context, slot entity.SlotKey, holderID string, now time.Time) (*entity.SlotReservation, error) {
	args := m.Called(ctx, slot, holderID, now)
	if r := args.Get(0); r != nil {
		return r.(*entity.SlotReservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReservationService) Consume(ctx context.Context, id uuid.UUID, now time.Time) (*entity.SlotReservation, error) {
	args := m.Called(ctx, id, now)
	if r := args.Get(0); r != nil {
		return r.(*entity.SlotReservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReservationService) Release(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*entity.SlotReservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReservationService) CleanupExpired(ctx context.Context, now time.Time, batchSize int) (int, error) {
	args := m.Called(ctx, now, batchSize)
	return args.Int(0), args.Error(1)
}

func (m *mockReservationService) Get(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*entity.SlotReservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReservationService) TTL() time.Duration {
	return 10 * time.Minute
}

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) CompleteBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateAppointmentRequest) (*response.AppointmentResponse, error) {
	args := m.Called(ctx, customerID, req)
	if r := args.Get(0); r != nil {
		return r.(*response.AppointmentResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingService) ListAppointments(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.AppointmentResponse], error) {
	args := m.Called(ctx, customerID, req)
	if r := args.Get(0); r != nil {
		return r.(*response.PaginatedResponse[response.AppointmentResponse]), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) Issue(ctx context.Context, req *request.IssueSessionRequest) (*response.SessionResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*response.SessionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionService) Logout(ctx context.Context, token uuid.UUID) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockSessionService) Profile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.(*response.UserResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
