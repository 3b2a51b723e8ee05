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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	_, err := database.QuerierFrom(ctx, ur.db).Exec(ctx,
		`INSERT INTO users (id, username, email, role, is_active, created_at, updated_at)
		 VALUES (@id, @username, @email, @role, @is_active, @created_at, @updated_at)`,
		pgx.NamedArgs{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"role":       user.Role,
			"is_active":  user.IsActive,
			"created_at": user.CreatedAt,
			"updated_at": user.UpdatedAt,
		})
	if err != nil {
		ur.log.Error("Failed to insert user", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("insert user %q: %w", user.Email, err)
	}
	return nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return ur.findOne(ctx, "id", id)
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return ur.findOne(ctx, "email", email)
}

// findOne looks a user up by a unique column. column is never caller input.
func (ur *userRepository) findOne(ctx context.Context, column string, value any) (*entity.User, error) {
	rows, err := database.QuerierFrom(ctx, ur.db).Query(ctx,
		`SELECT id, username, email, role, is_active, created_at, updated_at FROM users WHERE `+column+` = $1`,
		value)
	if err == nil {
		var user *entity.User
		user, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[entity.User])
		if err == nil {
			return user, nil
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	ur.log.Error("User lookup failed", zap.Error(err), zap.String("by", column), zap.Any("value", value))
	return nil, fmt.Errorf("find user by %s: %w", column, err)
}
