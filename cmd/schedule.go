package cmd

import (
	"context"

	"github.com/relloyd/tableload/actions"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	"github.com/spf13/cobra"
)

var scheduleCfg runOptions

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run every job that has a schedule until interrupted",
	Long: `Start a scheduler for all jobs in the jobs file with a "schedule" in standard
five field cron format. A job that is still running when its next slot arrives
skips that slot, so a target table only ever has one writer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScheduleCommand()
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().SortFlags = false
	addRunFlags(scheduleCmd, &scheduleCfg, false)
}

func runScheduleCommand() error {
	home, err := config.HomeDir()
	if err != nil {
		return err
	}
	conns, jobs, err := registries(home)
	if err != nil {
		return err
	}
	log := logger.NewLogger(constants.AppName, logLevel, stackDumpOnPanic)
	log.Debug("Connections available to scheduled jobs: ", conns.Names())
	ctx, cancel := actions.WithInterrupt(context.Background(), log)
	defer cancel()
	return actions.RunSchedule(ctx, &actions.ScheduleConfig{
		Log:  log,
		Jobs: jobs,
		RunJob: func(ctx context.Context, title string) *actions.JobResult {
			o := scheduleCfg
			o.jobTitle = title
			return runJob(ctx, home, func() (*config.ConnectionRegistry, *config.QueryRegistry, error) {
				return conns, jobs, nil
			}, o)
		},
	})
}

func stderrLogger() logger.Logger {
	return logger.NewLogger(constants.AppName, logLevel, stackDumpOnPanic)
}
