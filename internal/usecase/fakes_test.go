package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/events"

	"github.com/google/uuid"
)

// fakeReservationStore mimics the store contract: a per-slot claim that can
// only be taken over after it lapses, and compare-and-set status updates.
type fakeReservationStore struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*entity.SlotReservation
	claims       map[string]uuid.UUID

	failList   error
	failCreate error
	failFind   error
	// beforeUpdate runs once, outside the lock, before the next UpdateStatus.
	beforeUpdate func(id uuid.UUID)
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{
		reservations: make(map[uuid.UUID]*entity.SlotReservation),
		claims:       make(map[string]uuid.UUID),
	}
}

func (f *fakeReservationStore) put(r *entity.SlotReservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *r
	f.reservations[r.ID] = &copied
	if r.Status == entity.ReservationStatusActive {
		f.claims[r.Slot.String()] = r.ID
	}
}

func (f *fakeReservationStore) status(id uuid.UUID) entity.ReservationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations[id].Status
}

func (f *fakeReservationStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations)
}

func (f *fakeReservationStore) Create(_ context.Context, r *entity.SlotReservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}

	key := r.Slot.String()
	if id, ok := f.claims[key]; ok {
		if current := f.reservations[id]; current.IsActiveAt(r.CreatedAt) {
			return repository.ErrSlotConflict
		}
	}

	copied := *r
	f.reservations[r.ID] = &copied
	f.claims[key] = r.ID
	return nil
}

func (f *fakeReservationStore) FindByID(_ context.Context, id uuid.UUID) (*entity.SlotReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind != nil {
		return nil, f.failFind
	}
	r, ok := f.reservations[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReservationStore) FindActiveForSlot(_ context.Context, slot entity.SlotKey, now time.Time) (*entity.SlotReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind != nil {
		return nil, f.failFind
	}
	for _, r := range f.reservations {
		if r.Slot.String() == slot.String() && r.IsActiveAt(now) {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationStore) ListExpired(_ context.Context, now time.Time, limit int) ([]*entity.SlotReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	var out []*entity.SlotReservation
	for _, r := range f.reservations {
		if len(out) == limit {
			break
		}
		if r.Status == entity.ReservationStatusActive && !r.ExpiresAt.After(now) {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to entity.ReservationStatus) error {
	if hook := f.takeHook(); hook != nil {
		hook(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !entity.CanTransition(from, to) {
		return repository.ErrInvalidTransition
	}
	r, ok := f.reservations[id]
	if !ok || r.Status != from {
		return repository.ErrStatusConflict
	}
	r.Status = to
	if f.claims[r.Slot.String()] == id {
		delete(f.claims, r.Slot.String())
	}
	return nil
}

func (f *fakeReservationStore) takeHook() func(uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hook := f.beforeUpdate
	f.beforeUpdate = nil
	return hook
}

type fakeBookings struct {
	confirmed map[string]bool
	err       error
}

func (f *fakeBookings) IsSlotConfirmed(_ context.Context, slot entity.SlotKey) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.confirmed[slot.String()], nil
}

var errStoreDown = errors.New("connection refused")

func (f *fakeReservationStore) onlyID() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.reservations {
		return id
	}
	return uuid.Nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EventType
}

func (p *recordingPublisher) Publish(eventType events.EventType, _ *entity.SlotReservation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) published() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.EventType(nil), p.events...)
}
