package shared

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/relloyd/tableload/constants"
)

// BuildOdbcConnectionString builds the driver connection string for relational specs:
//
//	DRIVER={ODBC Driver 17 for SQL Server};SERVER=host;DATABASE=db;timeout=600;Encrypt=yes;TrustServerCertificate=yes[;Trusted_Connection=yes]
//
// Explicit credentials are added as UID and PWD when the connection is not trusted.
func BuildOdbcConnectionString(c ConnectionSpec, timeoutSeconds int) string {
	parts := []string{
		fmt.Sprintf("DRIVER={%v}", strings.Trim(c.Driver, "{}")),
		fmt.Sprintf("SERVER=%v", c.Server),
		fmt.Sprintf("DATABASE=%v", c.Database),
		fmt.Sprintf("timeout=%v", timeoutSeconds),
		"Encrypt=yes",
		"TrustServerCertificate=yes",
	}
	if c.IsTrusted() {
		parts = append(parts, "Trusted_Connection=yes")
	} else if c.Username != "" {
		parts = append(parts, fmt.Sprintf("UID=%v", c.Username), fmt.Sprintf("PWD={%v}", c.Password))
	}
	return strings.Join(parts, ";")
}

// BuildSqlServerUrl builds the URL that github.com/microsoft/go-mssqldb accepts for the same settings as
// BuildOdbcConnectionString. Without credentials the driver uses integrated authentication.
func BuildSqlServerUrl(c ConnectionSpec, timeoutSeconds int) string {
	q := url.Values{}
	q.Set("database", c.Database)
	q.Set("encrypt", "true")
	q.Set("TrustServerCertificate", "true")
	q.Set("connection timeout", strconv.Itoa(timeoutSeconds))
	q.Set("app name", constants.AppName)
	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     c.Server,
		RawQuery: q.Encode(),
	}
	if !c.IsTrusted() && c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

// BuildAzureSqlUrl builds the URL for the azuresql driver (github.com/microsoft/go-mssqldb/azuread).
// Interactive specs authenticate in a browser; credential specs use Azure AD user and password.
func BuildAzureSqlUrl(c ConnectionSpec, timeoutSeconds int) string {
	q := url.Values{}
	q.Set("database", c.Database)
	q.Set("encrypt", "true")
	q.Set("TrustServerCertificate", "true")
	q.Set("connection timeout", strconv.Itoa(timeoutSeconds))
	q.Set("app name", constants.AppName)
	switch strings.ToLower(c.AuthMode) {
	case constants.AuthModeCredentials:
		q.Set("fedauth", "ActiveDirectoryPassword")
		q.Set("user id", c.Username)
		q.Set("password", c.Password)
	case constants.AuthModeTrusted:
		q.Set("fedauth", "ActiveDirectoryDefault")
	default:
		q.Set("fedauth", "ActiveDirectoryInteractive")
		if c.Username != "" {
			q.Set("user id", c.Username)
		}
	}
	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     c.Server,
		RawQuery: q.Encode(),
	}
	return u.String()
}
