package tabledefinition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relloyd/tableload/constants"
)

// Mapper converts a source database column type into a SQL Server column type.
type Mapper interface {
	Map(inputDataType string) (string, error)
	Sanitise(inputDataType string, dataLen, dataPrecision, dataScale int64) (string, error)
}

// GetMapper returns the Mapper for the driver that produced the source column metadata.
func GetMapper(driver string) (Mapper, error) {
	switch strings.ToLower(driver) {
	case constants.DriverSqlServer, constants.DriverAzureSql, constants.DriverOdbc, "":
		return NewSqlServerDataTypeMapper(), nil
	case constants.DriverSnowflake:
		return NewSnowflakeToSqlServerDataTypeMapper(), nil
	case constants.DriverNetezza:
		return NewNetezzaToSqlServerDataTypeMapper(), nil
	default:
		return nil, fmt.Errorf("no data type mapping for driver %q", driver)
	}
}

// NewSqlServerDataTypeMapper returns a Mapper for SQL Server sources, whether reached natively or via ODBC.
func NewSqlServerDataTypeMapper() Mapper {
	return newDataTypeMapper(SqlServerToSqlServerDataTypeMapping)
}

func NewSnowflakeToSqlServerDataTypeMapper() Mapper {
	return newDataTypeMapper(SnowflakeToSqlServerDataTypeMapping)
}

func NewNetezzaToSqlServerDataTypeMapper() Mapper {
	return newDataTypeMapper(NetezzaToSqlServerDataTypeMapping)
}

// sanitiserFuncT converts data length, precision and scale into a string ready for use in CREATE TABLE DDL.
type sanitiserFuncT func(dataLen, dataPrecision, dataScale int64) string

// dataTypeMap implements Mapper.
type dataTypeMap struct {
	mapTypes      map[string]string
	mapSanitisers map[string]sanitiserFuncT
}

// Map will convert inputDataType to lower case and use it to return the output from map mapTypes.
func (o dataTypeMap) Map(inputDataType string) (string, error) {
	v, ok := o.mapTypes[strings.ToLower(inputDataType)]
	if !ok {
		return "", fmt.Errorf("unsupported data type %q during conversion", inputDataType)
	}
	return v, nil
}

func (o dataTypeMap) Sanitise(inputDataType string, dataLen, dataPrecision, dataScale int64) (string, error) {
	fn, ok := o.mapSanitisers[strings.ToLower(inputDataType)]
	if !ok {
		return "", fmt.Errorf("unsupported data type %q during conversion of DDL detail", inputDataType)
	}
	return fn(dataLen, dataPrecision, dataScale), nil
}

type dataTypeLink struct {
	SourceDataType string
	TargetDataType string
	SanitiserFunc  sanitiserFuncT
}

func newDataTypeMapper(types []dataTypeLink) dataTypeMap {
	dtm := dataTypeMap{
		mapTypes:      make(map[string]string),
		mapSanitisers: make(map[string]sanitiserFuncT),
	}
	for _, row := range types { // for each data type link...
		dtm.mapTypes[row.SourceDataType] = row.TargetDataType
		dtm.mapSanitisers[row.SourceDataType] = row.SanitiserFunc
	}
	return dtm
}

// SqlServerToSqlServerDataTypeMapping keys are the names reported by go-mssqldb DatabaseTypeName()
// plus the ODBC SQL type names.
var SqlServerToSqlServerDataTypeMapping = []dataTypeLink{
	{SourceDataType: "bigint", TargetDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "binary", TargetDataType: "binary", SanitiserFunc: sanitiseBinaryLen},
	{SourceDataType: "bit", TargetDataType: "bit", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "char", TargetDataType: "char", SanitiserFunc: sanitiseCharLen},
	{SourceDataType: "date", TargetDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetime", TargetDataType: "datetime", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetime2", TargetDataType: "datetime2", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetimeoffset", TargetDataType: "datetimeoffset", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "decimal", TargetDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "double", TargetDataType: "float", SanitiserFunc: sanitiseDouble},
	{SourceDataType: "double precision", TargetDataType: "float", SanitiserFunc: sanitiseDouble},
	{SourceDataType: "float", TargetDataType: "float", SanitiserFunc: sanitiseDouble},
	{SourceDataType: "image", TargetDataType: "varbinary", SanitiserFunc: sanitiseMax},
	{SourceDataType: "int", TargetDataType: "int", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "integer", TargetDataType: "int", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "money", TargetDataType: "money", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "nchar", TargetDataType: "nchar", SanitiserFunc: sanitiseNCharLen},
	{SourceDataType: "ntext", TargetDataType: "nvarchar", SanitiserFunc: sanitiseMax},
	{SourceDataType: "numeric", TargetDataType: "numeric", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "nvarchar", TargetDataType: "nvarchar", SanitiserFunc: sanitiseNCharLen},
	{SourceDataType: "real", TargetDataType: "real", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smalldatetime", TargetDataType: "smalldatetime", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smallint", TargetDataType: "smallint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smallmoney", TargetDataType: "smallmoney", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "text", TargetDataType: "varchar", SanitiserFunc: sanitiseMax},
	{SourceDataType: "time", TargetDataType: "time", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "tinyint", TargetDataType: "tinyint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "uniqueidentifier", TargetDataType: "uniqueidentifier", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "varbinary", TargetDataType: "varbinary", SanitiserFunc: sanitiseBinaryLen},
	{SourceDataType: "varchar", TargetDataType: "varchar", SanitiserFunc: sanitiseCharLen},
	{SourceDataType: "wchar", TargetDataType: "nchar", SanitiserFunc: sanitiseNCharLen},       // ODBC
	{SourceDataType: "wvarchar", TargetDataType: "nvarchar", SanitiserFunc: sanitiseNCharLen}, // ODBC
	{SourceDataType: "xml", TargetDataType: "xml", SanitiserFunc: sanitiseBlank},
}

// SnowflakeToSqlServerDataTypeMapping keys are the names reported by gosnowflake DatabaseTypeName().
var SnowflakeToSqlServerDataTypeMapping = []dataTypeLink{
	{SourceDataType: "array", TargetDataType: "nvarchar", SanitiserFunc: sanitiseMax},
	{SourceDataType: "binary", TargetDataType: "varbinary", SanitiserFunc: sanitiseBinaryLen},
	{SourceDataType: "boolean", TargetDataType: "bit", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "date", TargetDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "fixed", TargetDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "object", TargetDataType: "nvarchar", SanitiserFunc: sanitiseMax},
	{SourceDataType: "real", TargetDataType: "float", SanitiserFunc: sanitiseDouble},
	{SourceDataType: "text", TargetDataType: "nvarchar", SanitiserFunc: sanitiseNCharLen},
	{SourceDataType: "time", TargetDataType: "time", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp_ltz", TargetDataType: "datetimeoffset", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp_ntz", TargetDataType: "datetime2", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp_tz", TargetDataType: "datetimeoffset", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "variant", TargetDataType: "nvarchar", SanitiserFunc: sanitiseMax},
}

// NetezzaToSqlServerDataTypeMapping keys are the names reported by nzgo DatabaseTypeName().
var NetezzaToSqlServerDataTypeMapping = []dataTypeLink{
	{SourceDataType: "bool", TargetDataType: "bit", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "boolean", TargetDataType: "bit", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "bpchar", TargetDataType: "char", SanitiserFunc: sanitiseCharLen},
	{SourceDataType: "byteint", TargetDataType: "smallint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "char", TargetDataType: "char", SanitiserFunc: sanitiseCharLen},
	{SourceDataType: "date", TargetDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "float4", TargetDataType: "real", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "float8", TargetDataType: "float", SanitiserFunc: sanitiseDouble},
	{SourceDataType: "int1", TargetDataType: "smallint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int2", TargetDataType: "smallint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int4", TargetDataType: "int", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int8", TargetDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval", TargetDataType: "varchar", SanitiserFunc: sanitiseInterval},
	{SourceDataType: "nchar", TargetDataType: "nchar", SanitiserFunc: sanitiseNCharLen},
	{SourceDataType: "numeric", TargetDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "nvarchar", TargetDataType: "nvarchar", SanitiserFunc: sanitiseNCharLen},
	{SourceDataType: "text", TargetDataType: "varchar", SanitiserFunc: sanitiseMax},
	{SourceDataType: "time", TargetDataType: "time", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp", TargetDataType: "datetime2", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timetz", TargetDataType: "varchar", SanitiserFunc: sanitiseInterval},
	{SourceDataType: "varbinary", TargetDataType: "varbinary", SanitiserFunc: sanitiseBinaryLen},
	{SourceDataType: "varchar", TargetDataType: "varchar", SanitiserFunc: sanitiseCharLen},
}

// SANITISER FUNCTIONS.

// SQL Server limits for the non-max forms of the variable length types.
const (
	maxCharLen      = 8000
	maxNCharLen     = 4000
	maxPrecision    = 38
	defaultInterval = 64
)

func sanitiseBlank(dataLen, dataPrecision, dataScale int64) string {
	return ""
}

func sanitiseMax(dataLen, dataPrecision, dataScale int64) string {
	return "(max)"
}

func sanitiseDouble(dataLen, dataPrecision, dataScale int64) string {
	return "(53)"
}

func sanitiseInterval(dataLen, dataPrecision, dataScale int64) string {
	return "(" + strconv.Itoa(defaultInterval) + ")"
}

func sanitiseCharLen(dataLen, dataPrecision, dataScale int64) string {
	return lengthOrMax(dataLen, maxCharLen)
}

func sanitiseNCharLen(dataLen, dataPrecision, dataScale int64) string {
	return lengthOrMax(dataLen, maxNCharLen)
}

func sanitiseBinaryLen(dataLen, dataPrecision, dataScale int64) string {
	return lengthOrMax(dataLen, maxCharLen)
}

// sanitisePrecisionScale returns "(p,s)" or "" when the driver did not report a usable precision.
func sanitisePrecisionScale(dataLen, dataPrecision, dataScale int64) string {
	if dataPrecision <= 0 || dataPrecision > maxPrecision {
		return ""
	}
	if dataScale < 0 || dataScale > dataPrecision {
		dataScale = 0
	}
	return "(" + strconv.FormatInt(dataPrecision, 10) + "," + strconv.FormatInt(dataScale, 10) + ")"
}

// varyingForms maps the fixed width SQL Server types to the variable width types that accept (max).
var varyingForms = map[string]string{
	"binary": "varbinary",
	"char":   "varchar",
	"nchar":  "nvarchar",
}

// columnType joins a target type and its DDL detail, switching a fixed width type to its variable
// width form when the length is unknown. SQL Server only accepts (max) on the variable width types.
func columnType(targetType, detail string) string {
	if v, ok := varyingForms[targetType]; ok && detail == "(max)" {
		targetType = v
	}
	return targetType + detail
}

// lengthOrMax returns "(n)" for a length SQL Server accepts or "(max)" when the length is unknown
// or beyond the limit, e.g. go-mssqldb reports nvarchar(max) as 1073741822.
func lengthOrMax(dataLen int64, limit int64) string {
	if dataLen <= 0 || dataLen > limit {
		return "(max)"
	}
	return "(" + strconv.FormatInt(dataLen, 10) + ")"
}
