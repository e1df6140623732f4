package cmd

import (
	"github.com/relloyd/tableload/actions"
	"github.com/relloyd/tableload/config"
	"github.com/spf13/cobra"
)

var jobsListOutput string

var configJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the jobs file",
	Long:  `Jobs are edited by hand in the jobs file. These commands validate and print them.`,
}

var configJobsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Validate and print all jobs",
	Long: `Load the jobs file, check that every job refers to known connections and has a
query, then print a summary of each job.`,
	PreRunE: getOutputFormatValidator(&jobsListOutput, actions.OutputFormatText, actions.OutputFormatYaml, actions.OutputFormatJson),
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := config.HomeDir()
		if err != nil {
			return err
		}
		_, jobs, err := registries(home)
		if err != nil {
			return err
		}
		return actions.RunJobsList(jobs, jobsListOutput, nil)
	},
}

func init() {
	configCmd.AddCommand(configJobsCmd)
	configJobsCmd.AddCommand(configJobsListCmd)
	switches.addFlag(configJobsListCmd, &jobsListOutput, "output", "", false, ": \"yaml | json\" (default plain text)")
}
