package rdbms

import (
	"context"
	"database/sql"

	_ "github.com/IBM/nzgo/v12"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/azuread"
	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms/shared"
)

// OpenFunc opens a database connection for the supplied spec without validating it.
type OpenFunc func(ctx context.Context, log logger.Logger, c shared.ConnectionSpec) (shared.Connector, error)

// OpenDbConnection opens a database connection using the supplied ConnectionSpec.
// The pool is configured but not pinged; Provider.Resolve does that.
func OpenDbConnection(ctx context.Context, log logger.Logger, c shared.ConnectionSpec) (db shared.Connector, err error) {
	log.Debug("opening connection kind ", c.Kind, " with logicalName ", c.LogicalName) // don't log password details!
	kind, err := c.GetKind()
	if err != nil {
		return nil, &UnsupportedConnectionKindError{Name: c.LogicalName, Kind: c.Kind}
	}
	switch kind {
	case shared.KindRelational:
		switch {
		case c.UsesDsn():
			db, err = newConnectionWithDsn(log, shared.DsnConnectionDetails{Dsn: c.Dsn})
		case c.UsesOdbcDriver():
			db, err = NewOdbcConnection(log, shared.BuildOdbcConnectionString(c, constants.StatementTimeoutSeconds))
		default:
			db, err = newSqlServerConnection(log, c)
		}
	case shared.KindCloudRelational:
		db, err = newAzureSqlConnection(log, c)
	default:
		err = &UnsupportedConnectionKindError{Name: c.LogicalName, Kind: c.Kind}
	}
	return
}

func newSqlServerConnection(log logger.Logger, c shared.ConnectionSpec) (shared.Connector, error) {
	log.Info("Opening SQL Server connection to ", c.Server, "/", c.Database)
	db, err := sql.Open(constants.DriverSqlServer, shared.BuildSqlServerUrl(c, constants.StatementTimeoutSeconds))
	if err != nil {
		return nil, errors.Wrapf(err, "error opening connection %q", c.LogicalName)
	}
	db.SetConnMaxLifetime(constants.ConnectionMaxLifetime)
	return shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), constants.DriverSqlServer), nil
}

func newAzureSqlConnection(log logger.Logger, c shared.ConnectionSpec) (shared.Connector, error) {
	log.Info("Opening Azure SQL connection to ", c.Server, "/", c.Database, " using auth mode ", c.AuthMode)
	db, err := sql.Open(azuread.DriverName, shared.BuildAzureSqlUrl(c, constants.StatementTimeoutSeconds))
	if err != nil {
		return nil, errors.Wrapf(err, "error opening connection %q", c.LogicalName)
	}
	db.SetConnMaxLifetime(constants.ConnectionMaxLifetime)
	return shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), constants.DriverAzureSql), nil
}

// newConnectionWithDsn opens snowflake, netezza or any other DSN that xo/dburl understands.
func newConnectionWithDsn(log logger.Logger, d shared.DsnConnectionDetails) (shared.Connector, error) {
	log.Info("Opening database connection: ", d)
	d, err := d.Parse()
	if err != nil {
		return nil, err
	}
	if d.OriginalScheme == constants.DriverSnowflake {
		if _, err := SnowflakeParseDSN(d.Dsn); err != nil {
			return nil, errors.Wrap(err, "invalid snowflake DSN")
		}
	}
	driver, dataSource, err := d.GetDriverAndDataSource()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dataSource)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %v connection", driver)
	}
	db.SetConnMaxLifetime(constants.ConnectionMaxLifetime)
	var dml shared.DmlGenerator = shared.NewAnsiDmlGenerator()
	if driver == constants.DriverSqlServer {
		dml = shared.NewSqlServerDmlGenerator()
	}
	return shared.NewHpConnection(db, dml, d.OriginalScheme), nil
}
