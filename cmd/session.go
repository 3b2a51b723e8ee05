package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/database"

	"github.com/spf13/cobra"
)

func newIssueSessionCmd() *cobra.Command {
	req := request.IssueSessionRequest{}

	cmd := &cobra.Command{
		Use:   "issue-session",
		Short: "Issue a bearer session, creating the user on first use",
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

			repo := repository.NewRepository(db, nil, clock.NewSystem(), logger)

			sessions := usecase.NewSessionService(repo.User, repo.Session, database.Transactor{DB: db}, clock.NewSystem(), logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			session, err := sessions.Issue(ctx, &req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(session)
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "user name (used when the user is created)")
	cmd.Flags().StringVar(&req.Email, "email", "", "user email")
	cmd.Flags().StringVar(&req.Role, "role", "customer", "customer, business_owner or admin")
	cmd.Flags().DurationVar(&req.TTL, "ttl", 24*time.Hour, "session lifetime")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
