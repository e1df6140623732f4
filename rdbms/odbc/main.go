package main

import (
	"database/sql"

	_ "github.com/alexbrainman/odbc"
	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms/shared"
)

// This plugin exports public symbol Exports with top-level functions bound to it.
// All functions that bind to this variable must live in here, not other files despite them
// belonging to the same main package. Code that loads the plugin is unable to successfully
// interface type check when functions live in other files.
//
// Build with: go build -buildmode=plugin -o tl-odbc-plugin.so ./rdbms/odbc

type exports struct{}

var Exports exports

// NewOdbcConnection opens an ODBC connection string such as
// DRIVER={ODBC Driver 17 for SQL Server};SERVER=host;DATABASE=db;Trusted_Connection=yes
func (v exports) NewOdbcConnection(log logger.Logger, connString string) (shared.Connector, error) {
	log.Info("Opening ODBC connection: ", shared.RedactConnString(connString))
	db, err := sql.Open(constants.DriverOdbc, connString)
	if err != nil {
		return nil, errors.Wrap(err, "error opening ODBC connection")
	}
	db.SetConnMaxLifetime(constants.ConnectionMaxLifetime)
	return shared.NewHpConnection(db, shared.NewOdbcDmlGenerator(), constants.DriverOdbc), nil
}

func main() {}
