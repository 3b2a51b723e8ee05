package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Postgres tests run only when TEST_DATABASE_URL points at a scratch database.
func newPostgresRepos(t *testing.T) (ReservationRepository, AppointmentRepository, database.PgxIface) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = database.Migrate(ctx, db, zap.NewNop())
	require.NoError(t, err)

	return NewReservationRepository(db, zap.NewNop()), NewAppointmentRepository(db, zap.NewNop()), db
}

// pgSlot returns a slot no other test run shares.
func pgSlot() entity.SlotKey {
	return entity.SlotKey{
		BusinessID: "biz-" + uuid.NewString(),
		ServiceID:  "haircut",
		StartsAt:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestReservationRepository_CreateConflictAndTakeover(t *testing.T) {
	store, _, _ := newPostgresRepos(t)
	ctx := context.Background()
	slot := pgSlot()
	t0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	first := entity.NewSlotReservation(slot, "user1", t0, 5*time.Minute)
	require.NoError(t, store.Create(ctx, first))

	second := entity.NewSlotReservation(slot, "user2", t0.Add(time.Minute), 5*time.Minute)
	assert.ErrorIs(t, store.Create(ctx, second), ErrSlotConflict)

	missing, err := store.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, missing, "losing insert must roll back")

	third := entity.NewSlotReservation(slot, "user2", t0.Add(6*time.Minute), 5*time.Minute)
	require.NoError(t, store.Create(ctx, third))

	active, err := store.FindActiveForSlot(ctx, slot, t0.Add(7*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, third.ID, active.ID)

	lapsed, err := store.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusActive, lapsed.Status)
}

func TestReservationRepository_ConcurrentCreate(t *testing.T) {
	store, _, _ := newPostgresRepos(t)
	ctx := context.Background()
	slot := pgSlot()
	now := time.Now().UTC()

	const callers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Create(ctx, entity.NewSlotReservation(slot, "user", now, time.Minute))
			if err != nil {
				assert.ErrorIs(t, err, ErrSlotConflict)
				return
			}
			mu.Lock()
			created++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestReservationRepository_UpdateStatus(t *testing.T) {
	store, _, _ := newPostgresRepos(t)
	ctx := context.Background()
	slot := pgSlot()
	now := time.Now().UTC()

	hold := entity.NewSlotReservation(slot, "user1", now, 5*time.Minute)
	require.NoError(t, store.Create(ctx, hold))

	require.NoError(t, store.UpdateStatus(ctx, hold.ID, entity.ReservationStatusActive, entity.ReservationStatusConsumed))
	assert.ErrorIs(t,
		store.UpdateStatus(ctx, hold.ID, entity.ReservationStatusActive, entity.ReservationStatusExpired),
		ErrStatusConflict)
	assert.ErrorIs(t,
		store.UpdateStatus(ctx, hold.ID, entity.ReservationStatusConsumed, entity.ReservationStatusActive),
		ErrInvalidTransition)

	got, err := store.FindByID(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusConsumed, got.Status)

	// The claim went with the hold.
	require.NoError(t, store.Create(ctx, entity.NewSlotReservation(slot, "user2", now, 5*time.Minute)))
}

func TestReservationRepository_ListExpired(t *testing.T) {
	store, _, _ := newPostgresRepos(t)
	ctx := context.Background()

	// Far in the past so rows from other tests expire later than these.
	t0 := time.Date(2001, 1, 1, 9, 0, 0, 0, time.UTC)
	hold := entity.NewSlotReservation(pgSlot(), "user1", t0, time.Minute)
	require.NoError(t, store.Create(ctx, hold))

	got, err := store.ListExpired(ctx, t0.Add(time.Minute), 1000)
	require.NoError(t, err)
	ids := make([]uuid.UUID, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, hold.ID)

	require.NoError(t, store.UpdateStatus(ctx, hold.ID, entity.ReservationStatusActive, entity.ReservationStatusExpired))
	got, err = store.ListExpired(ctx, t0.Add(time.Minute), 1000)
	require.NoError(t, err)
	for _, r := range got {
		assert.NotEqual(t, hold.ID, r.ID)
	}
}

func TestAppointmentRepository_ConfirmedSlotIsUnique(t *testing.T) {
	store, appointments, db := newPostgresRepos(t)
	ctx := context.Background()
	slot := pgSlot()
	now := time.Now().UTC()
	customer := uuid.New()

	hold := entity.NewSlotReservation(slot, customer.String(), now, 5*time.Minute)
	require.NoError(t, store.Create(ctx, hold))

	newAppointment := func(reservationID uuid.UUID) *entity.Appointment {
		return &entity.Appointment{
			BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			ReservationID: reservationID,
			Slot:          slot,
			CustomerID:    customer,
			CustomerName:  "Noa Levi",
			Status:        entity.AppointmentStatusConfirmed,
		}
	}

	err := database.WithTx(ctx, db, func(txCtx context.Context) error {
		if err := appointments.Create(txCtx, newAppointment(hold.ID)); err != nil {
			return err
		}
		return store.UpdateStatus(txCtx, hold.ID, entity.ReservationStatusActive, entity.ReservationStatusConsumed)
	})
	require.NoError(t, err)

	confirmed, err := appointments.IsSlotConfirmed(ctx, slot)
	require.NoError(t, err)
	assert.True(t, confirmed)

	assert.ErrorIs(t, appointments.Create(ctx, newAppointment(uuid.New())), ErrSlotConflict)

	list, err := appointments.FindByCustomerID(ctx, customer, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, slot.String(), list[0].Slot.String())

	count, err := appointments.CountByCustomerID(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
