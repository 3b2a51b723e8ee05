package database

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationLockID int64 = 734211905

// Migrate applies the embedded SQL migrations in filename order inside a single
// transaction guarded by an advisory lock, so concurrent instances serialize.
func Migrate(ctx context.Context, db PgxIface, log *zap.Logger) ([]string, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var applied []string
	err = WithTx(ctx, db, func(txCtx context.Context) error {
		q := QuerierFrom(txCtx, db)

		if _, err := q.Exec(txCtx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}

		if _, err := q.Exec(txCtx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				name TEXT PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`); err != nil {
			return fmt.Errorf("ensure schema_migrations: %w", err)
		}

		for _, name := range names {
			var done bool
			if err := q.QueryRow(txCtx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&done); err != nil {
				return fmt.Errorf("check migration %s: %w", name, err)
			}
			if done {
				continue
			}

			sqlBytes, err := migrationFiles.ReadFile(path.Join("migrations", name))
			if err != nil {
				return fmt.Errorf("read migration %s: %w", name, err)
			}
			sql := strings.TrimSpace(string(sqlBytes))
			if sql == "" {
				continue
			}
			if _, err := q.Exec(txCtx, sql); err != nil {
				return fmt.Errorf("exec migration %s: %w", name, err)
			}
			if _, err := q.Exec(txCtx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
				return fmt.Errorf("record migration %s: %w", name, err)
			}

			log.Info("Migration applied", zap.String("name", name))
			applied = append(applied, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}
