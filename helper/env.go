package helper

import (
	"fmt"
	"os"
	"strings"

	"github.com/relloyd/tableload/constants"
)

// ReadValueFromEnvWithDefault will read the value of name from the environment.
// If it's not set then it will return the supplied defaultValue.
func ReadValueFromEnvWithDefault(name string, defaultValue string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultValue
}

// FlagNameToEnvVar forms a sanitised environment variable name using constants.EnvVarPrefix
// e.g. "target-table" becomes TL_TARGET_TABLE.
func FlagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// GetDsnEnvVarName returns the variable that holds a DSN for the given connection in 12factor mode.
func GetDsnEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	return fmt.Sprintf("%v_%v_DSN", constants.EnvVarPrefix, n)
}
