package shared

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/helper"
)

// ConnectionKind is the closed set of connection kinds a ConnectionSpec may declare.
type ConnectionKind int

const (
	KindUnknown ConnectionKind = iota
	KindRelational
	KindCube
	KindCloudRelational
)

// ParseConnectionKind converts the kind found in config into a ConnectionKind.
func ParseConnectionKind(s string) (ConnectionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case constants.ConnectionKindRelational, "sql":
		return KindRelational, nil
	case constants.ConnectionKindCube, "olap":
		return KindCube, nil
	case constants.ConnectionKindCloudRelational, "azure_sql", "azure-sql":
		return KindCloudRelational, nil
	}
	return KindUnknown, fmt.Errorf("unknown connection kind %q", s)
}

func (k ConnectionKind) String() string {
	switch k {
	case KindRelational:
		return constants.ConnectionKindRelational
	case KindCube:
		return constants.ConnectionKindCube
	case KindCloudRelational:
		return constants.ConnectionKindCloudRelational
	}
	return "unknown"
}

// QueryKind returns the query dialect used against connections of kind k.
func (k ConnectionKind) QueryKind() QueryKind {
	switch k {
	case KindCube:
		return QueryKindCube
	case KindRelational, KindCloudRelational:
		return QueryKindRelational
	}
	return QueryKindUnknown
}

// QueryKind is the wire-level dialect of a query: relational SQL or cube MDX.
type QueryKind int

const (
	QueryKindUnknown QueryKind = iota
	QueryKindRelational
	QueryKindCube
)

// ParseQueryKind accepts the two dialects plus the connection kind aliases used in config.
func ParseQueryKind(s string) (QueryKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case constants.QueryKindRelational, "sql", constants.ConnectionKindCloudRelational, "azure_sql":
		return QueryKindRelational, nil
	case constants.QueryKindCube, "mdx", "olap":
		return QueryKindCube, nil
	}
	return QueryKindUnknown, fmt.Errorf("unknown query kind %q", s)
}

func (q QueryKind) String() string {
	switch q {
	case QueryKindRelational:
		return constants.QueryKindRelational
	case QueryKindCube:
		return constants.QueryKindCube
	}
	return "unknown"
}

// ConnectionSpec holds the parameters of a logical connection.
// Specs are loaded once from config and never modified.
type ConnectionSpec struct {
	LogicalName string `json:"logicalName" yaml:"logicalName" mapstructure:"logicalName" errorTxt:"connection name" mandatory:"yes"`
	Kind        string `json:"kind" yaml:"kind" mapstructure:"kind" errorTxt:"connection kind" mandatory:"yes"`
	Server      string `json:"server,omitempty" yaml:"server,omitempty" mapstructure:"server"`
	Database    string `json:"database,omitempty" yaml:"database,omitempty" mapstructure:"database"`
	Driver      string `json:"driver,omitempty" yaml:"driver,omitempty" mapstructure:"driver"`
	AuthMode    string `json:"authMode,omitempty" yaml:"authMode,omitempty" mapstructure:"authMode"`
	Trusted     bool   `json:"trusted,omitempty" yaml:"trusted,omitempty" mapstructure:"trusted"`
	Username    string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`
	Password    string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	ConnString  string `json:"connString,omitempty" yaml:"connString,omitempty" mapstructure:"connString"`
	Dsn         string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// GetKind parses the Kind string.
func (c ConnectionSpec) GetKind() (ConnectionKind, error) {
	return ParseConnectionKind(c.Kind)
}

// IsTrusted is true when integrated authentication should be used.
func (c ConnectionSpec) IsTrusted() bool {
	return c.Trusted || strings.EqualFold(c.AuthMode, constants.AuthModeTrusted)
}

// UsesDsn is true for relational sources described by a DSN e.g. snowflake or netezza.
func (c ConnectionSpec) UsesDsn() bool {
	return c.Dsn != ""
}

// UsesOdbcDriver is true when Driver names an ODBC driver rather than a native Go driver.
func (c ConnectionSpec) UsesOdbcDriver() bool {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	return strings.HasPrefix(d, "odbc") || strings.Contains(d, "odbc driver")
}

// Validate checks the fields each kind requires.
func (c ConnectionSpec) Validate() error {
	if err := helper.ValidateStructIsPopulated(c); err != nil {
		return err
	}
	if strings.Contains(c.LogicalName, ".") {
		return fmt.Errorf("connection name %q cannot contain period characters", c.LogicalName)
	}
	k, err := c.GetKind()
	if err != nil {
		return err
	}
	switch k {
	case KindCube:
		if c.ConnString == "" {
			return errors.New("cube connections require a connection string")
		}
	case KindRelational:
		if c.UsesDsn() {
			return nil
		}
		if c.Server == "" || c.Database == "" {
			return errors.New("relational connections require a server and database, or a DSN")
		}
	case KindCloudRelational:
		if c.Server == "" || c.Database == "" {
			return errors.New("cloud-relational connections require a server and database")
		}
		switch strings.ToLower(c.AuthMode) {
		case "", constants.AuthModeInteractive, constants.AuthModeTrusted:
		case constants.AuthModeCredentials:
			if c.Username == "" {
				return errors.New("auth mode credentials requires a user name")
			}
		default:
			return fmt.Errorf("unsupported auth mode %q", c.AuthMode)
		}
	}
	return nil
}

// String redacts passwords and pretty-prints the contents of ConnectionSpec.
func (c ConnectionSpec) String() string {
	x := []string{fmt.Sprintf("  kind = %v", c.Kind)}
	add := func(k, v string) {
		if v != "" {
			x = append(x, fmt.Sprintf("  %v = %v", k, v))
		}
	}
	add("server", c.Server)
	add("database", c.Database)
	add("driver", c.Driver)
	add("authMode", c.AuthMode)
	if c.Trusted {
		add("trusted", "true")
	}
	add("username", c.Username)
	if c.Password != "" {
		add("password", "xxxxx")
	}
	add("connString", RedactConnString(c.ConnString))
	if c.Dsn != "" {
		add("dsn", DsnConnectionDetails{Dsn: c.Dsn}.String())
	}
	return strings.Join(x, "\n")
}

// RedactConnString hides the value of any password key in a "k=v;k=v" connection string.
func RedactConnString(s string) string {
	if s == "" {
		return s
	}
	parts := strings.Split(s, ";")
	for i, p := range parts {
		k, _ := helper.Split(p, "=")
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "password", "pwd":
			parts[i] = k + "=xxxxx"
		}
	}
	return strings.Join(parts, ";")
}
