package cmd

import (
	"os"

	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2026-01-02T03:04+0000"
	osArch           = "linux"
	stackDumpOnPanic bool
	logLevel         string
)

var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "Copy the result of a named SQL or MDX query into a SQL Server table",
	Long: `tableload runs named jobs from the jobs file. Each job fetches a dataset from a
relational database or an OLAP cube, replaces a SQL Server table with it and
e-mails an execution report with the log attached.

Connections are saved with "tableload config connections add" and jobs are
defined in the jobs file, e.g.:

FatoFechamento:
  connection: CUBO
  sqlFile: queries/fato_fechamento.mdx
  target:
    connection: SPSVSQL39
    table: FatoFechamento_v2
  schedule: "0 6 * * *"
  recipients: [bi@example.com]`,
	SilenceUsage: true,
}

func init() {
	cobra.EnableCommandSorting = false
	addPersistentFlags(rootCmd.PersistentFlags())
}

func addPersistentFlags(fs *pflag.FlagSet) {
	sw := switches.getCliFlag("log-level", constants.DefaultLogLevel)
	fs.StringVarP(&logLevel, sw.name, sw.shortHand, sw.val, sw.desc)
	fs.BoolVar(&stackDumpOnPanic, "stack-dump", false, "Print a stack dump if there is a panic")
	_ = fs.MarkHidden("stack-dump")
	if twelveFactorMode {
		stackDumpOnPanic = helper.GetTrueFalseStringAsBool(os.Getenv(envVarStackDump))
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if err := execute12FactorMode(twelveFactorActions); err != nil {
			// execute12FactorMode prints the error.
			os.Exit(1)
		}
		return
	}
	if err := rootCmd.Execute(); err != nil {
		// Execute() prints the error.
		os.Exit(1)
	}
}
