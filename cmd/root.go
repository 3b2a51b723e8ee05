package cmd

import (
	"fmt"
	"log"
	"os"

	"appointment-booking/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "appointment-booking",
		Short:         "Slot reservation service for the appointment booking app",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to the env-style config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCleanupCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newIssueSessionCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads the config and builds the logger every command shares.
func loadRuntime() (*utils.Config, *zap.Logger, error) {
	config, err := utils.LoadConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using zap production logger.", err)
		logger, _ = zap.NewProduction()
	}

	return config, logger, nil
}
