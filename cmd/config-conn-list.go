package cmd

import (
	"github.com/relloyd/tableload/actions"
	"github.com/spf13/cobra"
)

var connListCfg = actions.ConnectionConfig{}

var configConnListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print all connections",
	Long:    `List saved connections by printing them all to STDOUT. Passwords are redacted.`,
	PreRunE: getOutputFormatValidator(&connListCfg.Output, actions.OutputFormatText, actions.OutputFormatYaml, actions.OutputFormatJson),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := getConnectionsFile()
		if err != nil {
			return err
		}
		connListCfg.ConfigFile = f
		return actions.RunConnectionList(&connListCfg)
	},
}

func initConnList() {
	configConnCmd.AddCommand(configConnListCmd)
	switches.addFlag(configConnListCmd, &connListCfg.Output, "output", "", false, ": \"yaml | json\" (default plain text)")
}
