package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/clock"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCleanupCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Mark lapsed reservations EXPIRED once and exit (for cron)",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if batchSize <= 0 {
				batchSize = config.Reservation.CleanupBatchSize
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStores(config, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			publisher := openPublisher(config, logger)
			defer publisher.Close()

			clk := clock.NewSystem()
			reservations := usecase.NewReservationService(st.repo.Reservation, st.repo.Appointment, clk, logger,
				usecase.WithReservationTTL(config.Reservation.TTL),
				usecase.WithPublisher(publisher),
			)

			cleaned, err := reservations.CleanupExpired(ctx, clk.Now(), batchSize)
			if err != nil {
				return fmt.Errorf("cleanup after %d reclaimed: %w", cleaned, err)
			}

			logger.Info("Cleanup finished", zap.Int("cleaned_up", cleaned), zap.Int("batch_size", batchSize))
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned up %d reservations\n", cleaned)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "reservations per batch (default CLEANUP_BATCH_SIZE)")
	return cmd
}
