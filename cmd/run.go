package cmd

import (
	"context"

	"github.com/relloyd/tableload/actions"
	"github.com/relloyd/tableload/config"
	"github.com/spf13/cobra"
)

var runCfg runOptions

var runCmd = &cobra.Command{
	Use:   "run <job>",
	Short: "Run a job: fetch its dataset, replace the target table and send the execution report",
	Long: `Run a job from the jobs file. The target table is dropped and reloaded in chunks
sized to suit the SQL Server parameter limit. Chunks that fail with communication
errors are retried. The execution report is always sent and carries the log file.
The command exits non-zero when the job fails.`,
	Args: getJobArgsFunc(&runCfg.jobTitle),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobCommand(runCfg.jobTitle)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	addRunFlags(runCmd, &runCfg, true)
}

func runJobCommand(title string) error {
	runCfg.jobTitle = title
	home, err := config.HomeDir()
	if err != nil {
		return err
	}
	ctx, cancel := actions.WithInterrupt(context.Background(), stderrLogger())
	defer cancel()
	res := runJob(ctx, home, func() (*config.ConnectionRegistry, *config.QueryRegistry, error) {
		return registries(home)
	}, runCfg)
	if res.Failed() {
		return res.Err
	}
	return nil
}
