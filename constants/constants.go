package constants

import "time"

// Loader

const (
	SqlServerParamLimit            = 2100 // max parameters SQL Server accepts in one statement.
	SqlServerMaxRowsPerInsert      = 1000 // max row constructors in one INSERT ... VALUES.
	LoadChunkRowsDefault           = 100  // used when the dataset has no columns to size chunks by.
	LoadRetriesPerChunk            = 3
	LoadRetryPause                 = 5 * time.Second
	ConnectMaxAttempts             = 3
	ConnectRetryDelay              = 10 * time.Second
	ConnectionMaxLifetime          = 300 * time.Second
	StatementTimeoutSeconds        = 600
	SqlStateCommunicationLinkError = "08S01"
	StatsCaptureFrequencySeconds   = 5
	DefaultSchemaSqlServer         = "dbo"
)

// Formats

const (
	TimeFormatYearSeconds      = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatYearSecondsTZ    = "20060102T150405-0700"
)

// Environment and plugins

const (
	AppName             = "tableload"
	EnvVarPrefix        = "TL" // prefixed for environment variables in twelveFactorMode
	EnvVarHome          = EnvVarPrefix + "_HOME"
	EnvVarConfigKey     = EnvVarPrefix + "_CONFIG_KEY"
	EnvVarPluginDir     = EnvVarPrefix + "_PLUGIN_DIR"
	PluginOdbc          = "tl-odbc-plugin.so"
	DotEnvFileName      = ".env"
	LogDirName          = "logs"
	DefaultLogLevel     = "info"
	NotifySenderDefault = "tableload@localhost"
)

// Connection kinds and drivers

const (
	ConnectionKindRelational      = "relational"
	ConnectionKindCube            = "cube"
	ConnectionKindCloudRelational = "cloud-relational"
	QueryKindRelational           = "relational"
	QueryKindCube                 = "cube"
	DriverSqlServer               = "sqlserver"
	DriverAzureSql                = "azuresql"
	DriverSnowflake               = "snowflake"
	DriverNetezza                 = "netezza"
	DriverOdbc                    = "odbc"
	AuthModeTrusted               = "trusted"
	AuthModeCredentials           = "credentials"
	AuthModeInteractive           = "interactive"
)
