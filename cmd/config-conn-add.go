package cmd

import (
	"github.com/relloyd/tableload/actions"
	"github.com/relloyd/tableload/constants"
	"github.com/spf13/cobra"
)

var configConnAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a connection",
	Long:  `Add a logical connection to a relational database, an Azure SQL database or an OLAP cube.`,
}

type connAddOptions struct {
	cfg actions.ConnectionConfig
}

func newConnAddCommand(kind string, short string, long string, flags func(c *cobra.Command, o *connAddOptions)) *cobra.Command {
	o := &connAddOptions{}
	c := &cobra.Command{
		Use:   kind,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := getConnectionsFile()
			if err != nil {
				return err
			}
			o.cfg.ConfigFile = f
			o.cfg.Spec.Kind = kind
			return actions.RunConnectionAdd(&o.cfg)
		},
	}
	c.Flags().SortFlags = false
	switches.addFlag(c, &o.cfg.Spec.LogicalName, "connection-name", "", true, "")
	switches.addFlag(c, &o.cfg.Force, "force-connection", "false", false, "")
	flags(c, o)
	return c
}

func initConnAdd() {
	configConnCmd.AddCommand(configConnAddCmd)
	configConnAddCmd.AddCommand(newConnAddCommand(constants.ConnectionKindRelational,
		"Add a relational database connection",
		`Add a relational connection using a server and database, e.g. a SQL Server
reached with the native driver or an ODBC driver, or a DSN for other databases:

sqlserver://<user>:<pass>@<host>[:<port>]/<instance>?database=<dbname>
snowflake://<user>:<pass>@<account>/<dbname>/<schema>
netezza://<user>:<pass>@<host>:5480/<dbname>`,
		func(c *cobra.Command, o *connAddOptions) {
			addServerFlags(c, o)
			switches.addFlag(c, &o.cfg.Spec.Dsn, "dsn", "", false, "")
		}))
	configConnAddCmd.AddCommand(newConnAddCommand(constants.ConnectionKindCloudRelational,
		"Add an Azure SQL database connection",
		`Add an Azure SQL database connection. Use auth-mode interactive for Azure AD
sign in, otherwise supply a user name and password.`,
		addServerFlags))
	configConnAddCmd.AddCommand(newConnAddCommand(constants.ConnectionKindCube,
		"Add an OLAP cube connection",
		`Add a cube connection that is queried with MDX over XMLA. The Data Source must be
the HTTP(S) msmdpump.dll endpoint of the cube server.`,
		func(c *cobra.Command, o *connAddOptions) {
			switches.addFlag(c, &o.cfg.Spec.ConnString, "conn-string", "", true, "")
		}))
}

func addServerFlags(c *cobra.Command, o *connAddOptions) {
	switches.addFlag(c, &o.cfg.Spec.Server, "server", "", false, "")
	switches.addFlag(c, &o.cfg.Spec.Database, "database", "", false, "")
	switches.addFlag(c, &o.cfg.Spec.Driver, "driver", "", false, "")
	switches.addFlag(c, &o.cfg.Spec.AuthMode, "auth-mode", "", false, "")
	switches.addFlag(c, &o.cfg.Spec.Trusted, "trusted", "false", false, "")
	switches.addFlag(c, &o.cfg.Spec.Username, "username", "", false, "")
	switches.addFlag(c, &o.cfg.Spec.Password, "password", "", false, "")
}
