package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/helper"
)

var netezzaDsnRegexp = regexp.MustCompile(`^netezza://.+?/.+?@//.+:[0-9]+/.+$`)

// NetezzaConnectionDetails holds a DSN of the form netezza://user/password@//host:port/database[?params].
type NetezzaConnectionDetails struct {
	Dsn string
}

func (d NetezzaConnectionDetails) String() string {
	userPwd, theRest := helper.SplitRight(strings.TrimPrefix(d.Dsn, constants.DriverNetezza+"://"), `@`)
	user, _ := helper.SplitRight(userPwd, `/`)
	return fmt.Sprintf("%v://%v/xxxxx@%v", constants.DriverNetezza, user, theRest)
}

func (d NetezzaConnectionDetails) Parse() error {
	if !netezzaDsnRegexp.MatchString(d.Dsn) {
		return errors.New("unsupported Netezza DSN format")
	}
	return nil
}

// GetNzgoConnectionString will parse the connection string and convert it to the format required by nzgo library
// which is space separated key=value.
// https://pkg.go.dev/github.com/IBM/nzgo
func (d NetezzaConnectionDetails) GetNzgoConnectionString() (string, error) {
	if err := d.Parse(); err != nil {
		return "", err
	}
	dsn := strings.TrimPrefix(d.Dsn, constants.DriverNetezza+"://")
	userPwd, theRest := helper.SplitRight(dsn, `@`)
	user, pass := helper.SplitRight(userPwd, `/`)
	hostPort, dbNameParams := helper.SplitRight(theRest, `/`)
	host, port := helper.SplitRight(hostPort, `:`)
	host = strings.TrimLeft(host, "/")
	dbName, params := helper.Split(dbNameParams, `?`)
	params = strings.Replace(params, "&", " ", -1) // use space as the separator.
	return strings.TrimSpace(fmt.Sprintf("host=%v port=%v dbname=%v user=%v password=%v %v",
		host, port, dbName, user, pass, params)), nil
}
