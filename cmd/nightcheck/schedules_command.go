package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/config"
	"github.com/farmtrack/nightcheck/internal/domain/models"
	"github.com/farmtrack/nightcheck/internal/repository/mongodb"
	"github.com/farmtrack/nightcheck/internal/scheduler"
)

func newSchedulesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List the night-check jobs the server would install",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withRepository(cmd.Context(), func(repo *mongodb.Repository, log *zap.Logger) error {
				jobs := plannedJobs(cmd, cfg.NightCheck, repo, log)
				if jsonOutput {
					return writeJSON(cmd, jobs)
				}
				printJobs(cmd, jobs)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the jobs as JSON")
	return cmd
}

// plannedJobs loads the stored schedules into an idle scheduler and reports
// what it installed, including the global fallback.
func plannedJobs(cmd *cobra.Command, cfg config.NightCheckConfig, store scheduler.SettingsStore, log *zap.Logger) []scheduler.JobInfo {
	sched := scheduler.NewScheduler(cfg, store, noopChecker{}, log.Named("scheduler"))
	sched.Start(cmd.Context())
	defer sched.Stop(cmd.Context())
	return sched.Jobs()
}

func printJobs(cmd *cobra.Command, jobs []scheduler.JobInfo) {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		farm := job.FarmID
		if farm == scheduler.GlobalJobKey {
			farm = "(global)"
		}
		next := "-"
		if !job.Next.IsZero() {
			next = job.Next.Format("2006-01-02 15:04 MST")
		}
		rows = append(rows, []string{farm, job.Spec, next})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Farm", "Spec", "Next"}, rows))
}

type noopChecker struct{}

func (noopChecker) Check(_ context.Context, req models.CheckRequest) (*models.CheckResult, error) {
	return &models.CheckResult{FarmID: req.FarmID}, nil
}
