package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/farmtrack/nightcheck/internal/domain/models"
	"github.com/farmtrack/nightcheck/internal/server/middleware"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var userID, farmID, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(userID) == "" || strings.TrimSpace(farmID) == "" {
				return errors.New("--user and --farm are required")
			}
			if role != models.RoleAdmin && role != models.RoleWorker {
				return fmt.Errorf("--role must be %q or %q", models.RoleAdmin, models.RoleWorker)
			}

			token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), middleware.Identity{
				UserID: strings.TrimSpace(userID),
				FarmID: strings.TrimSpace(farmID),
				Role:   role,
			}, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (sub claim)")
	cmd.Flags().StringVar(&farmID, "farm", "", "Farm id")
	cmd.Flags().StringVar(&role, "role", models.RoleWorker, "Role: admin or worker")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
