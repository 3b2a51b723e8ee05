package cmd

import (
	"fmt"

	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/events"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/database"
	"appointment-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stores holds the open connections behind the repositories.
type stores struct {
	db    database.PgxIface
	redis *redis.Client
	repo  *repository.Repository
}

func (s *stores) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	s.db.Close()
}

func openStores(config *utils.Config, logger *zap.Logger) (*stores, error) {
	db, err := database.InitDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("Database connected successfully")

	var rdb *redis.Client
	if config.Reservation.Store == utils.StoreRedis {
		rdb, err = database.InitRedis(config.Redis)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("Redis connected, reservations stored in redis", zap.String("addr", config.Redis.Addr))
	}

	return &stores{
		db:    db,
		redis: rdb,
		repo:  repository.NewRepository(db, rdb, clock.NewSystem(), logger),
	}, nil
}

// openPublisher connects to NATS when NATS_URL is set. Events are best effort,
// so a failed connection falls back to dropping them.
func openPublisher(config *utils.Config, logger *zap.Logger) events.Publisher {
	if config.NATS.URL == "" {
		return events.NewNopPublisher()
	}

	publisher, err := events.NewNATSPublisher(config.NATS.URL, logger)
	if err != nil {
		logger.Warn("NATS unavailable, reservation events disabled", zap.Error(err))
		return events.NewNopPublisher()
	}
	logger.Info("Publishing reservation events to NATS", zap.String("url", config.NATS.URL))
	return publisher
}
