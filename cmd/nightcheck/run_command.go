package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
	"github.com/farmtrack/nightcheck/internal/repository/mongodb"
	"github.com/farmtrack/nightcheck/internal/service/barncheck"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var farmID, userID, date string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one barn-return check now",
		Long:  "Evaluates a farm's roster against the day's return logs and stores an alert when animals are missing. Without --farm, records that carry no farm are checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.CheckRequest{FarmID: strings.TrimSpace(farmID), UserID: strings.TrimSpace(userID)}
			if date != "" {
				day, err := models.ParseDate(date)
				if err != nil {
					return err
				}
				req.Date = day
			}

			return ctx.withRepository(cmd.Context(), func(repo *mongodb.Repository, log *zap.Logger) error {
				svc := barncheck.NewService(barncheck.Stores{
					Animals:       repo,
					ReturnLogs:    repo,
					Notifications: repo,
					Users:         repo,
				}, nil, log.Named("svc.barncheck"))

				result, err := svc.Check(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("barn check: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				printResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&farmID, "farm", "", "Farm id to check")
	cmd.Flags().StringVar(&userID, "user", "", "User id to address the alert to (default: farm admin)")
	cmd.Flags().StringVar(&date, "date", "", "Day to check as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")

	return cmd
}

func printResult(cmd *cobra.Command, result *models.CheckResult) {
	out := cmd.OutOrStdout()
	farm := result.FarmID
	if farm == "" {
		farm = "(no farm)"
	}
	if len(result.MissingAnimals) == 0 {
		fmt.Fprintf(out, "%s %s: all animals accounted for\n", farm, result.Date)
		return
	}
	fmt.Fprintf(out, "%s %s: %d missing, %d alert(s) stored\n", farm, result.Date, len(result.MissingAnimals), result.AlertsGenerated)
	rows := make([][]string, 0, len(result.MissingAnimals))
	for _, name := range result.MissingAnimals {
		rows = append(rows, []string{name})
	}
	fmt.Fprintln(out, renderTable([]string{"Missing animal"}, rows))
}
