package shared

import (
	"fmt"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/tableload/logger"
)

// DmlGeneratorTxtBatch generates text-batched DML, i.e. multi-row statements with one placeholder per value.
// The placeholder style and identifier quoting depend on the driver.
type DmlGeneratorTxtBatch struct {
	placeholder func(idx int) string // idx is 1-based
	quote       func(name string) string
}

// NewSqlServerDmlGenerator suits github.com/microsoft/go-mssqldb which binds @p1, @p2, ...
func NewSqlServerDmlGenerator() *DmlGeneratorTxtBatch {
	return &DmlGeneratorTxtBatch{
		placeholder: func(idx int) string { return fmt.Sprintf("@p%v", idx) },
		quote:       quoteSqlServer,
	}
}

// NewOdbcDmlGenerator suits SQL Server reached through ODBC, which binds positional '?' markers.
func NewOdbcDmlGenerator() *DmlGeneratorTxtBatch {
	return &DmlGeneratorTxtBatch{
		placeholder: func(int) string { return "?" },
		quote:       quoteSqlServer,
	}
}

// NewAnsiDmlGenerator suits other relational sources e.g. snowflake and netezza.
func NewAnsiDmlGenerator() *DmlGeneratorTxtBatch {
	return &DmlGeneratorTxtBatch{
		placeholder: func(int) string { return "?" },
		quote: func(name string) string {
			return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
		},
	}
}

func (d *DmlGeneratorTxtBatch) QuoteIdentifier(name string) string {
	return d.quote(name)
}

func quoteSqlServer(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

type SqlStatementGeneratorConfig struct {
	Log             logger.Logger
	OutputSchema    string
	SchemaSeparator string
	OutputTable     string
	TargetCols      *om.OrderedMap // ordered map of: key = dataset column name; value = target table column name
}

type sqlCoreCfg struct {
	sqlStmt                string
	sqlStmtTemplate        string
	sqlValues              []interface{} // slice to hold data values for all rows in batch
	batchSize              int
	rowsInBatch            int
	previousNumRowsInBatch int
}
