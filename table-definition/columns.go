package tabledefinition

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/stream"
)

// TableColumn is the SQL Server definition of one destination column.
type TableColumn struct {
	ColName  string
	DataType string // e.g. nvarchar(50)
	Nullable bool
}

// TableColumns is the SQL Server definition of the destination table.
type TableColumns struct {
	Owner     string
	TableName string
	Columns   []TableColumn
}

// QuoteFunc quotes an identifier for the destination e.g. [name].
type QuoteFunc func(name string) string

var timeType = reflect.TypeOf(time.Time{})

// ConvertColumnsToSqlServer maps each dataset column to a SQL Server column definition.
// Columns whose DatabaseType the mapper does not know, or which have none (cube results),
// are typed from the Go ScanType instead.
func ConvertColumnsToSqlServer(log logger.Logger, mapper Mapper, schema string, table string, cols []stream.Column) (TableColumns, error) {
	tabCols := TableColumns{Owner: schema, TableName: table}
	if table == "" {
		return tabCols, fmt.Errorf("missing table name for CREATE TABLE DDL")
	}
	if len(cols) == 0 {
		return tabCols, fmt.Errorf("no column metadata found to build CREATE TABLE DDL for %q", table)
	}
	for _, col := range cols { // for each column...
		dataType, err := mapColumn(mapper, col.Type)
		if err != nil {
			log.Debug("column ", col.Name, ": ", err, "; using the scan type ", col.Type.ScanType, " instead")
			dataType = mapScanType(col.Type.ScanType)
		}
		nullable := !col.Type.HasNullable || col.Type.Nullable // prefer nullable over not null!
		log.Debug("column = ", col.Name,
			"; type = ", col.Type.DatabaseType,
			"; len = ", col.Type.Length,
			"; precision = ", col.Type.Precision,
			"; scale = ", col.Type.Scale,
			"; nullable = ", nullable,
			"; target type = ", dataType,
		)
		tabCols.Columns = append(tabCols.Columns, TableColumn{ColName: col.Name, DataType: dataType, Nullable: nullable})
	}
	return tabCols, nil
}

func mapColumn(mapper Mapper, ft stream.FieldType) (string, error) {
	if ft.DatabaseType == "" {
		return "", fmt.Errorf("no database type")
	}
	tgt, err := mapper.Map(ft.DatabaseType)
	if err != nil {
		return "", err
	}
	detail, err := mapper.Sanitise(ft.DatabaseType, ft.Length, ft.Precision, ft.Scale)
	if err != nil {
		return "", err
	}
	return columnType(tgt, detail), nil
}

// mapScanType picks a SQL Server type wide enough for any value of Go type t.
func mapScanType(t reflect.Type) string {
	if t == nil {
		return "nvarchar(max)"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType {
		return "datetime2"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "bit"
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return "smallint"
	case reflect.Int32, reflect.Uint16:
		return "int"
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return "bigint"
	case reflect.Uint, reflect.Uint64:
		return "decimal(20,0)"
	case reflect.Float32, reflect.Float64:
		return "float(53)"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "varbinary(max)"
		}
	}
	return "nvarchar(max)"
}

// BuildCreateTableIfMissing returns SQL Server DDL that creates the table only when it does not exist yet.
func BuildCreateTableIfMissing(tabCols TableColumns, quote QuoteFunc) (string, error) {
	if len(tabCols.Columns) == 0 {
		return "", fmt.Errorf("no columns found for table %q", tabCols.TableName)
	}
	fields := make([]string, 0, len(tabCols.Columns))
	for _, col := range tabCols.Columns {
		null := "NULL"
		if !col.Nullable {
			null = "NOT NULL"
		}
		fields = append(fields, fmt.Sprintf("%v %v %v", quote(col.ColName), col.DataType, null))
	}
	name := QualifiedName(tabCols.Owner, tabCols.TableName, quote)
	return fmt.Sprintf("IF OBJECT_ID(N'%v', N'U') IS NULL CREATE TABLE %v ( %v )",
		strings.ReplaceAll(name, "'", "''"), name, strings.Join(fields, ", ")), nil
}

// BuildDropTableIfExists returns DDL to drop the table if it exists.
func BuildDropTableIfExists(schema string, table string, quote QuoteFunc) string {
	return "DROP TABLE IF EXISTS " + QualifiedName(schema, table, quote)
}

// QualifiedName returns the quoted [schema.]table.
func QualifiedName(schema string, table string, quote QuoteFunc) string {
	if schema == "" {
		return quote(table)
	}
	return quote(schema) + "." + quote(table)
}
