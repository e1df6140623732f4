package rdbms

import (
	"fmt"
	"reflect"

	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	pluginloader "github.com/relloyd/tableload/plugin-loader"
	"github.com/relloyd/tableload/rdbms/shared"
)

// NewOdbcConnection opens connString via the ODBC plugin so the main binary does not need cgo.
func NewOdbcConnection(log logger.Logger, connString string) (shared.Connector, error) {
	exports, err := pluginloader.LoadPluginExports(constants.PluginOdbc)
	if err != nil {
		return nil, err
	}
	i, ok := exports.(shared.OdbcConnector)
	if !ok {
		r := reflect.TypeOf(exports)
		return nil, fmt.Errorf("plugin %v does not implement the required interface: OdbcConnector: %v", constants.PluginOdbc, r.String())
	}
	return i.NewOdbcConnection(log, connString)
}
