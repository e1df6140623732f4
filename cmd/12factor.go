package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	c "github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/helper"
	"github.com/relloyd/tableload/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can do the job of processing all environment variables that would contain equivalent of the CLI flag
// structures used by the actions.
func init() {
	loadDotEnv(c.DotEnvFileName)
	setupTwelveFactorMode()
}

// loadDotEnv sets variables from the file if it exists. Variables already in the environment win.
func loadDotEnv(fileName string) {
	if _, err := os.Stat(fileName); err != nil {
		return
	}
	if err := godotenv.Load(fileName); err != nil {
		fmt.Fprintf(os.Stderr, "unable to load %v: %v\n", fileName, err)
	}
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	// Explicitly turn off this mode when unset since tests may have turned it on while others require it off.
	twelveFactorMode = os.Getenv(envVarTwelveFactorMode) != ""
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND"
	envVarJob              = c.EnvVarPrefix + "_" + "JOB"
	envVarLogLevel         = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump        = c.EnvVarPrefix + "_" + "STACK_DUMP"
	envVarSmtpPassword     = c.EnvVarPrefix + "_" + "SMTP_PASSWORD"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	twelveFactorVars = map[string]string{
		envVarCommand:      "",
		envVarJob:          "",
		envVarLogLevel:     "",
		envVarStackDump:    "",
		envVarSmtpPassword: "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		envVarSmtpPassword: "",
	}
)

type twelveFactorAction struct {
	setupFunc  func(job string)
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	"run": {
		setupFunc:  func(job string) { runCfg.jobTitle = job },
		runnerFunc: func() error { return runJobCommand(runCfg.jobTitle) },
	},
	"query": {
		setupFunc:  func(job string) { queryCfg.jobTitle = job },
		runnerFunc: runQueryCommand,
	},
	"schedule": {
		setupFunc:  func(job string) {},
		runnerFunc: runScheduleCommand,
	},
}

func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	// Fetch logLevel from env as this is not read by cobra in this mode.
	logLevel = helper.ReadValueFromEnvWithDefault(envVarLogLevel, c.DefaultLogLevel)
	log := logger.NewLogger(c.AppName, logLevel, stackDumpOnPanic)
	log.Info("tableload is running in 12 Factor mode...")
	for k := range twelveFactorVars { // for each env variable that we need...
		twelveFactorVars[k] = os.Getenv(k)
		if _, sensitive := twelveFactorVarsSensitive[k]; sensitive {
			log.Debug(k, "=", "<obfuscated>")
		} else {
			log.Debug(k, "=", twelveFactorVars[k])
		}
	}
	a, ok := acts[strings.ToLower(twelveFactorVars[envVarCommand])]
	if !ok {
		err = fmt.Errorf("invalid command %q in %v, use one of: %v", twelveFactorVars[envVarCommand], envVarCommand, strings.Join(twelveFactorCommands(acts), ", "))
		log.Error(err.Error())
		return
	}
	a.setupFunc(twelveFactorVars[envVarJob])
	if err = a.runnerFunc(); err != nil {
		log.Error("Error: ", err)
	}
	return err
}

func twelveFactorCommands(acts map[string]twelveFactorAction) []string {
	s := make([]string, 0, len(acts))
	for k := range acts {
		s = append(s, k)
	}
	sort.Strings(s)
	return s
}

// envConnectionNames returns the connection names found in TL_<NAME>_DSN variables.
func envConnectionNames() []string {
	var names []string
	prefix := c.EnvVarPrefix + "_"
	for _, kv := range os.Environ() {
		k, _ := helper.Split(kv, "=")
		if strings.HasPrefix(k, prefix) && strings.HasSuffix(k, "_DSN") && len(k) > len(prefix)+len("_DSN") {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(k, prefix), "_DSN"))
		}
	}
	sort.Strings(names)
	return names
}
