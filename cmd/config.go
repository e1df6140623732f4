package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/relloyd/tableload/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure connections and list jobs",
	Long: fmt.Sprintf(`Configure connections and list jobs where:

- Connections are stored encrypted in file %q
- Jobs are read from file %q

The directory can be changed by setting TL_HOME.`,
		filepath.Join("~", config.MainDir, config.ConnectionsConfigFileFullName),
		filepath.Join("~", config.MainDir, config.JobsConfigFileFullName)),
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// getConnectionsFile opens the connections store. It cannot be changed in twelveFactorMode.
func getConnectionsFile() (*config.File, error) {
	if twelveFactorMode {
		return nil, fmt.Errorf("connections cannot be configured when %v is set (supply them using %v instead)",
			envVarTwelveFactorMode, "TL_<CONNECTION NAME>_DSN")
	}
	home, err := config.HomeDir()
	if err != nil {
		return nil, err
	}
	return config.OpenConnectionsFile(home)
}
