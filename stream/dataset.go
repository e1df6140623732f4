package stream

import (
	"fmt"
	"reflect"
	"time"
)

// FieldType is metadata about a column, which in the case of SQL input will be the ColumnTypes data.
type FieldType struct {
	DatabaseType string

	HasNullable       bool
	HasLength         bool
	HasPrecisionScale bool

	Nullable  bool
	Length    int64
	Precision int64
	Scale     int64

	ScanType reflect.Type // Go type of the values, used when there is no DatabaseType e.g. cube results.
}

// Column is a named, typed column of a Dataset.
type Column struct {
	Name string
	Type FieldType
}

// Dataset is the in-memory tabular result of a query.
// It is not mutated after creation: Chunks() and Row() hand out slices of the same backing rows
// and callers must treat them as read-only.
type Dataset struct {
	columns []Column
	rows    [][]interface{}
}

// NewDataset returns a Dataset over the supplied columns and rows.
// Every row must have one value per column.
func NewDataset(columns []Column, rows [][]interface{}) (*Dataset, error) {
	for i, r := range rows { // for each row...
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %v has %v values but the dataset has %v columns", i, len(r), len(columns))
		}
	}
	return &Dataset{columns: columns, rows: rows}, nil
}

// NewEmptyDataset returns a Dataset with columns and zero rows.
func NewEmptyDataset(columns []Column) *Dataset {
	return &Dataset{columns: columns}
}

// Columns returns a copy of the column descriptors.
func (d *Dataset) Columns() []Column {
	if d == nil {
		return nil
	}
	c := make([]Column, len(d.columns))
	copy(c, d.columns)
	return c
}

func (d *Dataset) ColumnNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

func (d *Dataset) NumColumns() int {
	if d == nil {
		return 0
	}
	return len(d.columns)
}

func (d *Dataset) NumRows() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// IsEmpty is true when there are zero rows, regardless of the number of columns.
func (d *Dataset) IsEmpty() bool {
	return d.NumRows() == 0
}

// Row returns row i.
func (d *Dataset) Row(i int) []interface{} {
	return d.rows[i]
}

// ApproxSizeBytes estimates the memory held by the values of the dataset.
func (d *Dataset) ApproxSizeBytes() int64 {
	if d == nil {
		return 0
	}
	var n int64
	for _, r := range d.rows {
		for _, v := range r {
			n += 16 // interface header
			switch x := v.(type) {
			case string:
				n += int64(len(x))
			case []byte:
				n += int64(len(x))
			case time.Time:
				n += 24
			case nil:
			default:
				n += 8
			}
		}
	}
	return n
}

// Chunk is a contiguous, read-only slice of a Dataset's rows.
type Chunk struct {
	Index    int // zero based position of the chunk
	FirstRow int // zero based index of the first row in the Dataset
	rows     [][]interface{}
}

func (c Chunk) Rows() [][]interface{} {
	return c.rows
}

func (c Chunk) NumRows() int {
	return len(c.rows)
}

// String describes the chunk for logging e.g. "chunk 3 (rows 630-839)".
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %v (rows %v-%v)", c.Index, c.FirstRow, c.FirstRow+len(c.rows)-1)
}

// Chunks splits the rows into ceil(rows/chunkRows) contiguous chunks that cover every row once, in order.
// The chunks share the dataset's backing array but are capped so an append can never write into a neighbour.
func (d *Dataset) Chunks(chunkRows int) ([]Chunk, error) {
	if chunkRows < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %v", chunkRows)
	}
	n := d.NumRows()
	numChunks := (n + chunkRows - 1) / chunkRows
	chunks := make([]Chunk, 0, numChunks)
	for i := 0; i < numChunks; i++ { // for each chunk...
		lo := i * chunkRows
		hi := lo + chunkRows
		if hi > n {
			hi = n
		}
		chunks = append(chunks, Chunk{Index: i, FirstRow: lo, rows: d.rows[lo:hi:hi]})
	}
	return chunks, nil
}
