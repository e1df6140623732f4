package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/relloyd/tableload/helper"
	"github.com/spf13/cobra"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug | trace\""},
	"target-table": cliFlag{name: "target-table", shortHand: "t",
		desc: "Override the job's destination table using [<schema>.]<table> (default schema dbo)"},
	"target-connection": cliFlag{name: "target-connection", shortHand: "T",
		desc: "Override the job's destination connection name"},
	"recipients": cliFlag{name: "recipients", shortHand: "r",
		desc: "Override the job's notification recipients using a CSV of e-mail addresses"},
	"notify": cliFlag{name: "notify", shortHand: "n",
		desc: "How to send the execution report: \"mail | log\" where log only writes it to the execution log"},
	"mail-from": cliFlag{name: "mail-from", shortHand: "",
		desc: "Sender address for the execution report"},
	"smtp-host": cliFlag{name: "smtp-host", shortHand: "",
		desc: "SMTP relay host. Leave blank to hand messages to the local sendmail binary"},
	"smtp-port": cliFlag{name: "smtp-port", shortHand: "",
		desc: "SMTP relay port"},
	"smtp-user": cliFlag{name: "smtp-user", shortHand: "",
		desc: "SMTP relay user name"},
	"smtp-password": cliFlag{name: "smtp-password", shortHand: "",
		desc: "SMTP relay password"},
	"sendmail-path": cliFlag{name: "sendmail-path", shortHand: "",
		desc: "Path to the sendmail binary used when there is no SMTP relay"},
	"log-archive": cliFlag{name: "log-archive", shortHand: "A",
		desc: "Copy the execution log to S3 after the run. Use format: s3://<bucket>[/<prefix>]\n" +
			"(set AWS environment variables for access)"},
	"log-archive-region": cliFlag{name: "log-archive-region", shortHand: "R",
		desc: "AWS S3 bucket region for the execution log archive"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Output format"},
	"output-dir": cliFlag{name: "output-dir", shortHand: "D",
		desc: "Write CSV files to this directory instead of STDOUT"},
	"csv-rows": cliFlag{name: "csv-rows", shortHand: "",
		desc: "Max number of rows to store in a single CSV file (0 for unlimited)"},
	"print-header": cliFlag{name: "print-header", shortHand: "H",
		desc: "Print column names as the first CSV line"},
	"dry-run": cliFlag{name: "dry-run", shortHand: "d",
		desc: "Print the query text without executing it"},
	"connection-name": cliFlag{name: "connection-name", shortHand: "c",
		desc: "The logical connection name used in the jobs file"},
	"force-connection": cliFlag{name: "force-connection", shortHand: "f",
		desc: "Overwrite an existing connection"},
	"server": cliFlag{name: "server", shortHand: "s",
		desc: "Database server host, optionally with \\<instance> or ,<port>"},
	"database": cliFlag{name: "database", shortHand: "b",
		desc: "Database name"},
	"driver": cliFlag{name: "driver", shortHand: "",
		desc: "Driver name. Use an ODBC driver name, e.g. \"ODBC Driver 17 for SQL Server\", to connect via the ODBC plugin"},
	"auth-mode": cliFlag{name: "auth-mode", shortHand: "",
		desc: "Authentication mode: \"trusted | credentials | interactive\""},
	"trusted": cliFlag{name: "trusted", shortHand: "",
		desc: "Use integrated (Windows) authentication"},
	"username": cliFlag{name: "username", shortHand: "u",
		desc: "Database user name"},
	"password": cliFlag{name: "password", shortHand: "p",
		desc: "Database password"},
	"conn-string": cliFlag{name: "conn-string", shortHand: "",
		desc: "Cube connection string of the form \"Data Source=https://<host>/olap/msmdpump.dll;Catalog=<cube db>[;User ID=..;Password=..]\""},
	"dsn": cliFlag{name: "dsn", shortHand: "",
		desc: "Relational source DSN, e.g. snowflake://<user>:<pass>@<account>/<db>/<schema> or netezza://<user>:<pass>@<host>:5480/<db>"},
}

// addFlag registers the switch called name against c, storing its value in targetVar.
// In twelveFactorMode nothing is registered with cobra; targetVar is set from the environment instead.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue)
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		}
	case *bool:
		if twelveFactorMode {
			*p = sw.val != "" && helper.GetTrueFalseStringAsBool(sw.val)
		} else {
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, strings.ToLower(sw.val) == "true", desc)
		}
	case *int:
		defaultInt := 0
		if sw.val != "" {
			var err error
			if defaultInt, err = strconv.Atoi(sw.val); err != nil {
				fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
				os.Exit(1)
			}
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode {
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment when running in twelveFactorMode.
// If a value cannot be found then use the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string) cliFlag {
	s, ok := (*f)[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	s.val = defaultValue
	if twelveFactorMode {
		s.val = helper.ReadValueFromEnvWithDefault(helper.FlagNameToEnvVar(name), defaultValue)
	}
	return s
}

// getJobArgsFunc returns a func that cobra uses to validate that we have exactly one job title.
func getJobArgsFunc(title *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
			return errors.New("requires one <job> title from the jobs file")
		}
		*title = strings.TrimSpace(args[0])
		return nil
	}
}

// getOutputFormatValidator returns a PreRunE that checks the value of the output flag.
func getOutputFormatValidator(format *string, allowed ...string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for _, a := range allowed {
			if *format == a {
				return nil
			}
		}
		return fmt.Errorf("unsupported output format %q, use one of: %v", *format, strings.Join(allowed, ", "))
	}
}
