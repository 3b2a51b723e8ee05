package cmd

import (
	"context"
	"fmt"
	"time"

	"appointment-booking/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.InitDB(config.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			applied, err := database.Migrate(ctx, db, logger)
			if err != nil {
				return err
			}

			logger.Info("Migrations complete", zap.Strings("applied", applied))
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", len(applied))
			return nil
		},
	}
}
