package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Reservation ReservationConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NATSConfig struct {
	URL string
}

type ReservationConfig struct {
	TTL              time.Duration
	Store            string
	CleanupBatchSize int
	CleanupInterval  time.Duration
	CleanupTokenHash string
}

// LoadConfig reads path (an env-style file) and overlays the process environment.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "appointment-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RESERVATION_TTL", "10m")
	v.SetDefault("RESERVATION_STORE", StorePostgres)
	v.SetDefault("CLEANUP_BATCH_SIZE", 100)
	v.SetDefault("CLEANUP_INTERVAL", "0s")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: v.GetString("NATS_URL"),
		},
		Reservation: ReservationConfig{
			TTL:              v.GetDuration("RESERVATION_TTL"),
			Store:            v.GetString("RESERVATION_STORE"),
			CleanupBatchSize: v.GetInt("CLEANUP_BATCH_SIZE"),
			CleanupInterval:  v.GetDuration("CLEANUP_INTERVAL"),
			CleanupTokenHash: v.GetString("CLEANUP_TOKEN_HASH"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the reservation core cannot run with.
func (c *Config) Validate() error {
	if c.Reservation.TTL <= 0 {
		return fmt.Errorf("invalid RESERVATION_TTL %s: must be positive", c.Reservation.TTL)
	}
	if c.Reservation.CleanupBatchSize <= 0 {
		return fmt.Errorf("invalid CLEANUP_BATCH_SIZE %d: must be positive", c.Reservation.CleanupBatchSize)
	}
	if c.Reservation.CleanupInterval < 0 {
		return fmt.Errorf("invalid CLEANUP_INTERVAL %s: must not be negative", c.Reservation.CleanupInterval)
	}
	switch c.Reservation.Store {
	case StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("invalid RESERVATION_STORE %q: must be one of postgres, redis", c.Reservation.Store)
	}
	return nil
}
