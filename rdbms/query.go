package rdbms

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms/shared"
	"github.com/relloyd/tableload/stream"
)

// SqlQuery executes sqltext and reads every row into a Dataset.
// Column metadata comes from sql.ColumnTypes.
func SqlQuery(ctx context.Context, log logger.Logger, db shared.Connector, sqltext string) (*stream.Dataset, error) {
	rows, err := db.QueryContext(ctx, sqltext)
	if err != nil {
		return nil, errors.Wrap(err, "error during database query")
	}
	defer func() {
		_ = rows.Close()
	}()
	log.Debug("fetching column types...")
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, "error fetching column types")
	}
	columns := make([]stream.Column, len(colTypes))
	binary := make([]bool, len(colTypes))
	for idx, ct := range colTypes { // for each column...
		columns[idx] = stream.Column{Name: ct.Name(), Type: getFieldType(ct)}
		binary[idx] = isBinaryType(ct.DatabaseTypeName())
		log.Debug("column ", ct.Name(), " database type = ", ct.DatabaseTypeName(), "; scan type = ", ct.ScanType())
	}
	// Scan the values dynamically.
	lenColTypes := len(colTypes)
	scanPtrs := make([]interface{}, lenColTypes)
	scanVals := make([]interface{}, lenColTypes)
	for idx := 0; idx < lenColTypes; idx++ {
		scanPtrs[idx] = &scanVals[idx]
	}
	data := make([][]interface{}, 0)
	for rows.Next() {
		if err := rows.Scan(scanPtrs...); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		row := make([]interface{}, lenColTypes)
		for idx, v := range scanVals { // for each value...
			// Drivers return DECIMAL and some character types as []byte, which would be bound as varbinary on insert.
			if b, ok := v.([]byte); ok && !binary[idx] {
				v = string(b)
			} else if ok {
				v = append([]byte(nil), b...) // the driver may reuse its buffer.
			}
			row[idx] = v
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading rows")
	}
	return stream.NewDataset(columns, data)
}

func getFieldType(ct *sql.ColumnType) stream.FieldType {
	ft := stream.FieldType{
		DatabaseType: ct.DatabaseTypeName(),
		ScanType:     ct.ScanType(),
	}
	ft.Nullable, ft.HasNullable = ct.Nullable()
	ft.Length, ft.HasLength = ct.Length()
	ft.Precision, ft.Scale, ft.HasPrecisionScale = ct.DecimalSize()
	return ft
}

func isBinaryType(databaseType string) bool {
	switch strings.ToLower(databaseType) {
	case "binary", "varbinary", "image", "blob", "bytea":
		return true
	}
	return false
}
