package shared

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
	"github.com/xo/dburl"
)

// DsnConnectionDetails is a simple struct to hold a DSN only.
type DsnConnectionDetails struct {
	Dsn            string `errorTxt:"data source name i.e. connect string" mandatory:"yes"`
	OriginalScheme string
}

// String returns the DSN with redacted password.
func (d DsnConnectionDetails) String() string {
	if strings.HasPrefix(d.Dsn, constants.DriverNetezza+"://") {
		return NetezzaConnectionDetails{Dsn: d.Dsn}.String()
	}
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return "<unparsable DSN>"
	}
	return u.Redacted()
}

// Parse validates the DSN and returns a copy with the original scheme e.g. snowflake or odbc+sqlserver saved.
func (d DsnConnectionDetails) Parse() (DsnConnectionDetails, error) {
	if d.Dsn == "" { // if the Dsn is invalid...
		return d, errors.New("DSN not found")
	}
	if strings.HasPrefix(d.Dsn, constants.DriverNetezza+"://") {
		d.OriginalScheme = constants.DriverNetezza
		return d, NetezzaConnectionDetails{Dsn: d.Dsn}.Parse()
	}
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return d, errors.Wrap(err, "DSN could not be parsed")
	}
	d.OriginalScheme = u.OriginalScheme
	return d, nil
}

// GetDriverAndDataSource returns the Go driver name and data source string that sql.Open needs.
func (d DsnConnectionDetails) GetDriverAndDataSource() (string, string, error) {
	if strings.HasPrefix(d.Dsn, constants.DriverNetezza+"://") {
		ds, err := NetezzaConnectionDetails{Dsn: d.Dsn}.GetNzgoConnectionString()
		return "nzgo", ds, err
	}
	if strings.HasPrefix(d.Dsn, constants.DriverSnowflake+"://") { // gosnowflake wants the DSN without its scheme.
		return constants.DriverSnowflake, strings.TrimPrefix(d.Dsn, constants.DriverSnowflake+"://"), nil
	}
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return "", "", fmt.Errorf("error parsing DSN %q: %w", d, err)
	}
	return u.Driver, u.DSN, nil
}
