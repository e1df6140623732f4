package components

import (
	"fmt"
	"strings"
)

// QueryExecutionError is returned when the data source rejects or fails to run a query.
type QueryExecutionError struct {
	Kind string // relational or cube
	Err  error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("%v query execution failed: %v", e.Kind, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// PartialLoadFailureError is returned when chunks could not be written after both retry rounds.
// The destination table must be treated as incompletely loaded.
type PartialLoadFailureError struct {
	Table        string
	ChunkIndexes []int
	Err          error // the final error of each failed chunk
}

func (e *PartialLoadFailureError) Error() string {
	idx := make([]string, len(e.ChunkIndexes))
	for i, v := range e.ChunkIndexes {
		idx[i] = fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("partial load of table %v: chunk(s) %v failed after retries: %v", e.Table, strings.Join(idx, ", "), e.Err)
}

func (e *PartialLoadFailureError) Unwrap() error {
	return e.Err
}
