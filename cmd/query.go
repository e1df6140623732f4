package cmd

import (
	"context"

	"github.com/relloyd/tableload/actions"
	"github.com/relloyd/tableload/components"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	jobTitle    string
	output      string
	outputDir   string
	maxFileRows int
	printHeader bool
	dryRun      bool
}

var queryCfg queryOptions

var queryCmd = &cobra.Command{
	Use:   "query <job>",
	Short: "Fetch the dataset of a job without loading it",
	Long: `Execute the query of a job against its source connection and print the result.
Results are returned as CSV lines by default, or as JSON or YAML records.
Supply an output directory to write CSV files instead. Use a dry-run to print the
query text only.`,
	Args:    getJobArgsFunc(&queryCfg.jobTitle),
	PreRunE: getOutputFormatValidator(&queryCfg.output, actions.OutputFormatCsv, actions.OutputFormatJson, actions.OutputFormatYaml),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQueryCommand()
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().SortFlags = false
	switches.addFlag(queryCmd, &queryCfg.output, "output", actions.OutputFormatCsv, false, ": \"csv | json | yaml\"")
	switches.addFlag(queryCmd, &queryCfg.outputDir, "output-dir", "", false, "")
	switches.addFlag(queryCmd, &queryCfg.maxFileRows, "csv-rows", "0", false, "")
	switches.addFlag(queryCmd, &queryCfg.printHeader, "print-header", "false", false, "")
	switches.addFlag(queryCmd, &queryCfg.dryRun, "dry-run", "false", false, "")
}

func runQueryCommand() error {
	home, err := config.HomeDir()
	if err != nil {
		return err
	}
	conns, jobs, err := registries(home)
	if err != nil {
		return err
	}
	log := logger.NewLogger(constants.AppName, logLevel, stackDumpOnPanic)
	ctx, cancel := actions.WithInterrupt(context.Background(), log)
	defer cancel()
	return actions.RunQuery(ctx, &actions.QueryConfig{
		Log:         log,
		JobTitle:    queryCfg.jobTitle,
		Queries:     jobs,
		Connections: rdbms.NewProvider(log, conns),
		Fetcher:     components.NewDatasetFetcher(log),
		Output:      queryCfg.output,
		OutputDir:   queryCfg.outputDir,
		MaxFileRows: queryCfg.maxFileRows,
		PrintHeader: queryCfg.printHeader,
		DryRun:      queryCfg.dryRun,
	})
}
