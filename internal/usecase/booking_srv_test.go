package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/events"
	"appointment-booking/internal/metrics"
	"appointment-booking/pkg/clock"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTransactor has no rollback of its own: writes made by fn stay, like
// a store outside the database transaction. rollback stands in for one.
type fakeTransactor struct {
	calls        int
	commitErr    error
	beforeCommit func()
	rollback     func()
}

func (f *fakeTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	if f.beforeCommit != nil {
		f.beforeCommit()
	}
	if f.commitErr != nil {
		if f.rollback != nil {
			f.rollback()
		}
		return fmt.Errorf("commit tx: %w", f.commitErr)
	}
	return nil
}

type fakeAppointments struct {
	mu           sync.Mutex
	appointments []*entity.Appointment
	createErr    error
}

func (f *fakeAppointments) Create(_ context.Context, a *entity.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.appointments {
		if existing.Slot.String() == a.Slot.String() || existing.ReservationID == a.ReservationID {
			return repository.ErrSlotConflict
		}
	}
	f.appointments = append(f.appointments, a)
	return nil
}

func (f *fakeAppointments) FindByID(_ context.Context, id uuid.UUID) (*entity.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAppointments) FindByCustomerID(_ context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*entity.Appointment
	for _, a := range f.appointments {
		if a.CustomerID == customerID {
			matched = append(matched, a)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (f *fakeAppointments) CountByCustomerID(_ context.Context, customerID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.appointments {
		if a.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointments) IsSlotConfirmed(_ context.Context, slot entity.SlotKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.Slot.String() == slot.String() && a.Status == entity.AppointmentStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

type bookingFixture struct {
	store        *fakeReservationStore
	appointments *fakeAppointments
	tx           *fakeTransactor
	clock        *clock.Manual
	publisher    *recordingPublisher
	registry     *prometheus.Registry
	reservations ReservationService
	bookings     BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		store:        newFakeReservationStore(),
		appointments: &fakeAppointments{},
		tx:           &fakeTransactor{},
		clock:        clock.NewManual(t0),
		publisher:    &recordingPublisher{},
		registry:     prometheus.NewRegistry(),
	}
	m := metrics.New(f.registry)
	f.reservations = NewReservationService(f.store, f.appointments, f.clock, zap.NewNop(),
		WithReservationTTL(5*time.Minute),
		WithMetrics(m),
		WithPublisher(f.publisher),
	)
	f.bookings = NewBookingService(f.reservations, f.appointments, f.tx, f.clock, m, zap.NewNop())
	return f
}

func orphanedConsumes(t *testing.T, reg *prometheus.Registry, want int) {
	t.Helper()
	expected := fmt.Sprintf(`
# HELP reservation_orphaned_consumes_total Holds left CONSUMED after their booking transaction failed to commit.
# TYPE reservation_orphaned_consumes_total counter
reservation_orphaned_consumes_total %d
`, want)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "reservation_orphaned_consumes_total"))
}

func TestBookingService_CompleteBooking(t *testing.T) {
	ctx := context.Background()
	customer := uuid.New()

	t.Run("confirms appointment and consumes hold", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)

		f.clock.Advance(2 * time.Minute)
		resp, err := f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Noa Levi",
		})
		require.NoError(t, err)
		assert.Equal(t, hold.ID.String(), resp.ReservationID)
		assert.Equal(t, testSlot().String(), resp.SlotKey)
		assert.Equal(t, entity.AppointmentStatusConfirmed, resp.Status)
		assert.Equal(t, entity.ReservationStatusConsumed, f.store.status(hold.ID))
		assert.Equal(t, 1, f.tx.calls)
		assert.Equal(t, []events.EventType{events.ReservationCreated, events.ReservationConsumed}, f.publisher.published())

		// The slot stays taken once the hold is consumed.
		_, err = f.reservations.Reserve(ctx, testSlot(), uuid.NewString(), f.clock.Now())
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("consumed event waits for commit", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)

		var atCommit []events.EventType
		f.tx.beforeCommit = func() { atCommit = f.publisher.published() }

		_, err = f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Noa Levi",
		})
		require.NoError(t, err)
		assert.Equal(t, []events.EventType{events.ReservationCreated}, atCommit)
		assert.Contains(t, f.publisher.published(), events.ReservationConsumed)
	})

	t.Run("commit failure after non-transactional consume is counted", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)
		f.tx.commitErr = errStoreDown

		_, err = f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Noa Levi",
		})
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, entity.ReservationStatusConsumed, f.store.status(hold.ID))
		assert.NotContains(t, f.publisher.published(), events.ReservationConsumed)
		orphanedConsumes(t, f.registry, 1)
	})

	t.Run("commit failure with rolled back consume is not counted", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)
		f.tx.commitErr = errStoreDown
		f.tx.rollback = func() { f.store.put(hold) }

		_, err = f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Noa Levi",
		})
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Equal(t, entity.ReservationStatusActive, f.store.status(hold.ID))
		assert.NotContains(t, f.publisher.published(), events.ReservationConsumed)
		orphanedConsumes(t, f.registry, 0)
	})

	t.Run("other customer is forbidden", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)

		_, err = f.bookings.CompleteBooking(ctx, uuid.New(), &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Someone Else",
		})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, entity.ReservationStatusActive, f.store.status(hold.ID))
		assert.Empty(t, f.appointments.appointments)
	})

	t.Run("expired hold", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)

		f.clock.Advance(5 * time.Minute)
		_, err = f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Noa Levi",
		})
		assert.ErrorIs(t, err, ErrReservationExpired)
		assert.Empty(t, f.appointments.appointments)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		f := newBookingFixture()

		_, err := f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: uuid.NewString(),
			CustomerName:  "Noa Levi",
		})
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("second completion is rejected", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)

		req := &request.CreateAppointmentRequest{ReservationID: hold.ID.String(), CustomerName: "Noa Levi"}
		_, err = f.bookings.CompleteBooking(ctx, customer, req)
		require.NoError(t, err)

		_, err = f.bookings.CompleteBooking(ctx, customer, req)
		assert.ErrorIs(t, err, ErrReservationNotActive)
		assert.Len(t, f.appointments.appointments, 1)
	})

	t.Run("appointment store failure", func(t *testing.T) {
		f := newBookingFixture()
		hold, err := f.reservations.Reserve(ctx, testSlot(), customer.String(), f.clock.Now())
		require.NoError(t, err)
		f.appointments.createErr = errStoreDown

		_, err = f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Noa Levi",
		})
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Equal(t, entity.ReservationStatusActive, f.store.status(hold.ID))
	})

	t.Run("validation", func(t *testing.T) {
		f := newBookingFixture()

		_, err := f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: "not-a-uuid",
			CustomerName:  "N",
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Zero(t, f.tx.calls)
	})
}

func TestBookingService_ListAppointments(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	customer := uuid.New()

	for i := 0; i < 3; i++ {
		slot := testSlot()
		slot.StartsAt = slot.StartsAt.Add(time.Duration(i) * time.Hour)
		hold, err := f.reservations.Reserve(ctx, slot, customer.String(), f.clock.Now())
		require.NoError(t, err)
		_, err = f.bookings.CompleteBooking(ctx, customer, &request.CreateAppointmentRequest{
			ReservationID: hold.ID.String(),
			CustomerName:  "Noa Levi",
		})
		require.NoError(t, err)
	}

	page, err := f.bookings.ListAppointments(ctx, customer, &request.PaginatedRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	empty, err := f.bookings.ListAppointments(ctx, uuid.New(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.Zero(t, empty.Pagination.Total)
}
