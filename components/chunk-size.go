package components

import (
	c "github.com/relloyd/tableload/constants"
)

// ChunkRows returns the number of rows per chunk so that rows * numColumns stays within
// the SQL Server parameter limit. A dataset without columns uses the default chunk size.
func ChunkRows(numColumns int) int {
	if numColumns <= 0 {
		return c.LoadChunkRowsDefault
	}
	n := c.SqlServerParamLimit / numColumns
	if n < 1 { // more columns than parameters; each row needs its own statement.
		n = 1
	}
	return n
}

// rowsPerInsert caps the rows of one INSERT at the SQL Server row constructor limit.
func rowsPerInsert(chunkRows int) int {
	if chunkRows > c.SqlServerMaxRowsPerInsert {
		return c.SqlServerMaxRowsPerInsert
	}
	return chunkRows
}
