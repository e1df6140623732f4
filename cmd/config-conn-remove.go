package cmd

import (
	"github.com/relloyd/tableload/actions"
	"github.com/spf13/cobra"
)

var connRemoveCfg = actions.ConnectionConfig{}

var configConnRemoveCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm", "del", "delete"},
	Short:   "Remove a connection",
	Long:    "Remove a connection from the connections file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := getConnectionsFile()
		if err != nil {
			return err
		}
		connRemoveCfg.ConfigFile = f
		return actions.RunConnectionRemove(&connRemoveCfg)
	},
}

func initConnRemove() {
	configConnCmd.AddCommand(configConnRemoveCmd)
	switches.addFlag(configConnRemoveCmd, &connRemoveCfg.Spec.LogicalName, "connection-name", "", true, "")
}
