package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/clock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis layout:
//
//	reservation:{id}          hash with the reservation fields
//	reservation:slot:{slot}   id of the latest hold for the slot, expiring with it
//	reservation:active        sorted set of ACTIVE ids scored by expires_at (ms)
const (
	redisReservationPrefix = "reservation:"
	redisSlotPrefix        = "reservation:slot:"
	redisActiveSet         = "reservation:active"
)

// createScript inserts a hold unless the slot index points at a hold that is
// still ACTIVE and unexpired at ARGV[1].
var createScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if current then
	local state = redis.call('HMGET', ARGV[11] .. current, 'status', 'expires_at')
	if state[1] == 'ACTIVE' and tonumber(state[2]) > tonumber(ARGV[1]) then
		return 0
	end
end
redis.call('HSET', KEYS[1],
	'id', ARGV[2],
	'business_id', ARGV[3],
	'service_id', ARGV[4],
	'starts_at', ARGV[5],
	'staff_id', ARGV[6],
	'holder_id', ARGV[7],
	'slot_key', ARGV[10],
	'status', 'ACTIVE',
	'created_at', ARGV[1],
	'expires_at', ARGV[8],
	'updated_at', ARGV[1])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[9])
redis.call('ZADD', KEYS[3], ARGV[8], ARGV[2])
return 1
`)

// updateStatusScript is a compare-and-set on the status field. Leaving ACTIVE
// also drops the id from the active set and clears the slot index if it still
// points at this hold.
var updateStatusScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status or status ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[2], 'updated_at', ARGV[3])
if ARGV[2] ~= 'ACTIVE' then
	redis.call('ZREM', KEYS[2], ARGV[4])
	local slot = redis.call('HGET', KEYS[1], 'slot_key')
	if slot then
		local slotKey = ARGV[5] .. slot
		if redis.call('GET', slotKey) == ARGV[4] then
			redis.call('DEL', slotKey)
		end
	end
end
return 1
`)

type redisReservationRepository struct {
	client *redis.Client
	clock  clock.Clock
	log    *zap.Logger
}

// NewRedisReservationRepository stores holds in redis. Mutual exclusion per
// slot and status CAS are enforced by server-side scripts.
func NewRedisReservationRepository(client *redis.Client, clk clock.Clock, log *zap.Logger) ReservationRepository {
	return &redisReservationRepository{
		client: client,
		clock:  clk,
		log:    log.With(zap.String("repository", "redis_reservation")),
	}
}

func (r *redisReservationRepository) Create(ctx context.Context, reservation *entity.SlotReservation) error {
	slotKey := reservation.Slot.String()
	now := reservation.CreatedAt
	ttl := reservation.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("create reservation for slot %s: non-positive ttl %s", slotKey, ttl)
	}

	keys := []string{
		redisReservationPrefix + reservation.ID.String(),
		redisSlotPrefix + slotKey,
		redisActiveSet,
	}
	created, err := createScript.Run(ctx, r.client, keys,
		now.UnixMilli(),
		reservation.ID.String(),
		reservation.Slot.BusinessID,
		reservation.Slot.ServiceID,
		reservation.Slot.StartsAt.UTC().Format(time.RFC3339Nano),
		reservation.Slot.StaffID,
		reservation.HolderID,
		reservation.ExpiresAt.UnixMilli(),
		ttl.Milliseconds(),
		slotKey,
		redisReservationPrefix,
	).Int()
	if err != nil {
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("slot_key", slotKey),
			zap.String("holder_id", reservation.HolderID),
		)
		return fmt.Errorf("create reservation for slot %s: %w", slotKey, err)
	}
	if created == 0 {
		return ErrSlotConflict
	}
	return nil
}

func (r *redisReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SlotReservation, error) {
	fields, err := r.client.HGetAll(ctx, redisReservationPrefix+id.String()).Result()
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeReservation(fields)
}

func (r *redisReservationRepository) FindActiveForSlot(ctx context.Context, slot entity.SlotKey, now time.Time) (*entity.SlotReservation, error) {
	id, err := r.client.Get(ctx, redisSlotPrefix+slot.String()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active reservation for slot",
			zap.Error(err),
			zap.String("slot_key", slot.String()),
		)
		return nil, fmt.Errorf("find active reservation for slot %s: %w", slot.String(), err)
	}

	reservationID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("slot %s index holds invalid id %q: %w", slot.String(), id, err)
	}
	reservation, err := r.FindByID(ctx, reservationID)
	if err != nil || reservation == nil {
		return nil, err
	}
	if !reservation.IsActiveAt(now) {
		return nil, nil
	}
	return reservation, nil
}

func (r *redisReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.SlotReservation, error) {
	ids, err := r.client.ZRangeByScore(ctx, redisActiveSet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		r.log.Error("Failed to list expired reservations",
			zap.Error(err),
			zap.Time("now", now),
			zap.Int("limit", limit),
		)
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, redisReservationPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load expired reservations: %w", err)
	}

	reservations := make([]*entity.SlotReservation, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			r.log.Warn("Active index references missing reservation", zap.String("reservation_id", ids[i]))
			continue
		}
		reservation, err := decodeReservation(fields)
		if err != nil {
			return nil, err
		}
		if reservation.Status != entity.ReservationStatusActive || reservation.ExpiresAt.After(now) {
			continue
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

func (r *redisReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) error {
	if !entity.CanTransition(from, to) {
		return fmt.Errorf("reservation %s %s -> %s: %w", id.String(), from, to, ErrInvalidTransition)
	}

	updated, err := updateStatusScript.Run(ctx, r.client,
		[]string{redisReservationPrefix + id.String(), redisActiveSet},
		string(from),
		string(to),
		r.clock.Now().UnixMilli(),
		id.String(),
		redisSlotPrefix,
	).Int()
	if err != nil {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update reservation %s status to %s: %w", id.String(), string(to), err)
	}
	if updated == 0 {
		return ErrStatusConflict
	}
	return nil
}

func decodeReservation(fields map[string]string) (*entity.SlotReservation, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("decode reservation id %q: %w", fields["id"], err)
	}
	startsAt, err := time.Parse(time.RFC3339Nano, fields["starts_at"])
	if err != nil {
		return nil, fmt.Errorf("decode reservation %s starts_at: %w", id.String(), err)
	}
	createdAt, err := parseMillis(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode reservation %s created_at: %w", id.String(), err)
	}
	expiresAt, err := parseMillis(fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("decode reservation %s expires_at: %w", id.String(), err)
	}
	updatedAt, err := parseMillis(fields["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("decode reservation %s updated_at: %w", id.String(), err)
	}

	return &entity.SlotReservation{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        id,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		Slot: entity.SlotKey{
			BusinessID: fields["business_id"],
			ServiceID:  fields["service_id"],
			StartsAt:   startsAt.UTC(),
			StaffID:    fields["staff_id"],
		},
		HolderID:  fields["holder_id"],
		Status:    entity.ReservationStatus(fields["status"]),
		ExpiresAt: expiresAt,
	}, nil
}

func parseMillis(value string) (time.Time, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
