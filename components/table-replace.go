package components

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	c "github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/helper"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms/shared"
	s "github.com/relloyd/tableload/stats"
	"github.com/relloyd/tableload/stream"
	tabledefinition "github.com/relloyd/tableload/table-definition"
)

// LoadStatus is the overall result of a TableReplace load.
type LoadStatus int

const (
	LoadSuccess LoadStatus = iota + 1
	LoadPartialSuccessAfterRetry
	LoadFailure
)

func (l LoadStatus) String() string {
	switch l {
	case LoadSuccess:
		return "success"
	case LoadPartialSuccessAfterRetry:
		return "partial-success-after-retry"
	case LoadFailure:
		return "failure"
	}
	return "unknown"
}

// LoadOutcome describes a completed load attempt.
type LoadOutcome struct {
	Status       LoadStatus
	FailedChunks []int // indexes of chunks that were never written
	Elapsed      time.Duration
	Chunks       int
	ChunkRows    int
	RowsWritten  int64
}

type TableReplaceConfig struct {
	Log             logger.Logger
	Name            string
	OutputDb        shared.Connector // SQL Server destination
	OutputSchema    string
	OutputTable     string
	Mapper          tabledefinition.Mapper // maps source column types to SQL Server types for create-on-first-write
	RetriesPerChunk int                    // attempts per chunk in round 1
	RetryPause      time.Duration          // pause between round 1 attempts
	Sleep           func(time.Duration)
	Watcher         *s.LoadWatcher // optional progress logging
}

// TableReplace replaces the contents of a destination table with a Dataset.
// The table is dropped then written in chunks, each chunk in its own transaction, with two rounds
// of retries for chunks that fail with transient communication errors.
// Loads must not run concurrently against the same table.
type TableReplace struct {
	log             logger.Logger
	name            string
	outputDb        shared.Connector
	schema          string
	table           string
	mapper          tabledefinition.Mapper
	retriesPerChunk int
	retryPause      time.Duration
	sleep           func(time.Duration)
	watcher         *s.LoadWatcher
	rowsWritten     int64
}

// chunkWriter holds the statements shared by every chunk transaction of one load.
type chunkWriter struct {
	createDDL     string
	insert        shared.SqlStmtTxtBatcher
	rowsPerInsert int
}

func NewTableReplace(cfg *TableReplaceConfig) (*TableReplace, error) {
	if cfg.OutputDb == nil {
		return nil, fmt.Errorf("%v: missing db connection", cfg.Name)
	}
	if cfg.OutputTable == "" {
		return nil, fmt.Errorf("%v: missing output table name", cfg.Name)
	}
	t := &TableReplace{
		log:             cfg.Log,
		name:            cfg.Name,
		outputDb:        cfg.OutputDb,
		schema:          cfg.OutputSchema,
		table:           cfg.OutputTable,
		mapper:          cfg.Mapper,
		retriesPerChunk: cfg.RetriesPerChunk,
		retryPause:      cfg.RetryPause,
		sleep:           cfg.Sleep,
		watcher:         cfg.Watcher,
	}
	if t.mapper == nil {
		t.mapper = tabledefinition.NewSqlServerDataTypeMapper()
	}
	if t.retriesPerChunk < 1 {
		t.retriesPerChunk = c.LoadRetriesPerChunk
	}
	if t.retryPause == 0 {
		t.retryPause = c.LoadRetryPause
	}
	if t.sleep == nil {
		t.sleep = time.Sleep
	}
	return t, nil
}

// Load drops the destination table and writes every row of ds into a freshly created table.
// An empty dataset is a no-op that leaves the destination untouched.
// A non-transient error aborts the load at once. Chunks that still fail after both retry rounds
// cause a PartialLoadFailureError.
func (t *TableReplace) Load(ctx context.Context, ds *stream.Dataset) (LoadOutcome, error) {
	start := time.Now()
	atomic.StoreInt64(&t.rowsWritten, 0)
	outcome := LoadOutcome{Status: LoadFailure}
	finish := func(err error) (LoadOutcome, error) {
		outcome.Elapsed = time.Since(start)
		outcome.RowsWritten = atomic.LoadInt64(&t.rowsWritten)
		return outcome, err
	}
	if ds.IsEmpty() {
		t.log.Info(t.name, ": dataset has no rows; table ", t.qualifiedName(), " left untouched")
		outcome.Status = LoadSuccess
		return finish(nil)
	}
	// Size and prepare the chunks.
	outcome.ChunkRows = ChunkRows(ds.NumColumns())
	chunks, err := ds.Chunks(outcome.ChunkRows)
	if err != nil {
		return finish(err)
	}
	outcome.Chunks = len(chunks)
	w, err := t.newChunkWriter(ds, outcome.ChunkRows)
	if err != nil {
		return finish(err)
	}
	t.log.Info(t.name, ": loading ", ds.NumRows(), " rows x ", ds.NumColumns(), " columns into ", t.qualifiedName(),
		" using ", len(chunks), " chunk(s) of up to ", outcome.ChunkRows, " rows")
	// Drop the destination in its own transaction.
	if err := t.dropTable(ctx); err != nil {
		return finish(err)
	}
	if t.watcher != nil {
		t.watcher.Start(&t.rowsWritten)
		defer t.watcher.Stop()
	}
	// Round 1.
	var round1Failures []int
	for _, chunk := range chunks { // for each chunk...
		err := t.writeChunkWithRetry(ctx, w, chunk)
		if err == nil {
			continue
		}
		if !shared.IsTransientCommunicationError(err) { // if this is fatal...
			t.log.Error(t.name, ": ", chunk, " failed with a non-transient error; aborting the load: ", err)
			outcome.FailedChunks = []int{chunk.Index}
			return finish(errors.Wrapf(err, "%v failed", chunk))
		}
		t.log.Error(t.name, ": ", chunk, " failed after ", t.retriesPerChunk, " attempt(s); it will be retried in round 2")
		round1Failures = append(round1Failures, chunk.Index)
	}
	if len(round1Failures) == 0 {
		outcome.Status = LoadSuccess
		t.log.Info(t.name, ": loaded ", atomic.LoadInt64(&t.rowsWritten), " rows into ", t.qualifiedName(), " in ", time.Since(start))
		return finish(nil)
	}
	// Round 2.
	t.log.Warn(t.name, ": round 2 retrying ", len(round1Failures), " chunk(s): ", round1Failures)
	var finalErrs *multierror.Error
	for _, idx := range round1Failures { // for each chunk that failed round 1...
		chunk := chunks[idx]
		t.log.Info(t.name, ": round 2 writing ", chunk)
		err := t.writeChunk(ctx, w, chunk)
		if err == nil {
			t.log.Info(t.name, ": round 2 wrote ", chunk)
			continue
		}
		if !shared.IsTransientCommunicationError(err) {
			t.log.Error(t.name, ": round 2 ", chunk, " failed with a non-transient error; aborting the load: ", err)
			outcome.FailedChunks = []int{chunk.Index}
			return finish(errors.Wrapf(err, "%v failed", chunk))
		}
		t.log.Error(t.name, ": round 2 ", chunk, " failed: ", err)
		outcome.FailedChunks = append(outcome.FailedChunks, chunk.Index)
		finalErrs = multierror.Append(finalErrs, errors.Wrapf(err, "%v", chunk))
	}
	if len(outcome.FailedChunks) > 0 {
		t.log.Error(t.name, ": table ", t.qualifiedName(), " is incompletely loaded; failed chunk(s): ", outcome.FailedChunks)
		return finish(&PartialLoadFailureError{
			Table:        t.qualifiedName(),
			ChunkIndexes: outcome.FailedChunks,
			Err:          finalErrs.ErrorOrNil(),
		})
	}
	outcome.Status = LoadPartialSuccessAfterRetry
	t.log.Info(t.name, ": loaded ", atomic.LoadInt64(&t.rowsWritten), " rows into ", t.qualifiedName(),
		" in ", time.Since(start), " after round 2 retries")
	return finish(nil)
}

func (t *TableReplace) qualifiedName() string {
	return tabledefinition.QualifiedName(t.schema, t.table, t.outputDb.GetDmlGenerator().QuoteIdentifier)
}

func (t *TableReplace) newChunkWriter(ds *stream.Dataset, chunkRows int) (*chunkWriter, error) {
	quote := t.outputDb.GetDmlGenerator().QuoteIdentifier
	tabCols, err := tabledefinition.ConvertColumnsToSqlServer(t.log, t.mapper, t.schema, t.table, ds.Columns())
	if err != nil {
		return nil, err
	}
	ddl, err := tabledefinition.BuildCreateTableIfMissing(tabCols, quote)
	if err != nil {
		return nil, err
	}
	targetCols := helper.StringSliceToOrderedMap(ds.ColumnNames())
	if targetCols.Len() != ds.NumColumns() {
		return nil, fmt.Errorf("dataset has duplicate column names: %v", ds.ColumnNames())
	}
	insert, err := t.outputDb.GetDmlGenerator().NewInsertGenerator(&shared.SqlStatementGeneratorConfig{
		Log:          t.log,
		OutputSchema: t.schema,
		OutputTable:  t.table,
		TargetCols:   targetCols,
	})
	if err != nil {
		return nil, err
	}
	t.log.Debug(t.name, ": create-if-missing DDL: ", ddl)
	return &chunkWriter{createDDL: ddl, insert: insert, rowsPerInsert: rowsPerInsert(chunkRows)}, nil
}

func (t *TableReplace) dropTable(ctx context.Context) error {
	ddl := tabledefinition.BuildDropTableIfExists(t.schema, t.table, t.outputDb.GetDmlGenerator().QuoteIdentifier)
	t.log.Info(t.name, ": ", ddl)
	tx, err := t.outputDb.BeginTx(ctx)
	if err != nil {
		return errors.Wrap(shared.ClassifyError(err), "unable to begin transaction to drop the destination table")
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		t.rollback(tx)
		return errors.Wrapf(shared.ClassifyError(err), "unable to drop table %v", t.qualifiedName())
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(shared.ClassifyError(err), "unable to commit drop of table %v", t.qualifiedName())
	}
	return nil
}

// writeChunkWithRetry makes up to retriesPerChunk attempts while the failures are transient.
func (t *TableReplace) writeChunkWithRetry(ctx context.Context, w *chunkWriter, chunk stream.Chunk) error {
	var err error
	for attempt := 1; attempt <= t.retriesPerChunk; attempt++ { // for each attempt...
		if attempt > 1 {
			t.log.Info(t.name, ": retrying ", chunk, " (attempt ", attempt, " of ", t.retriesPerChunk, ")")
		} else {
			t.log.Debug(t.name, ": writing ", chunk)
		}
		err = t.writeChunk(ctx, w, chunk)
		if err == nil || !shared.IsTransientCommunicationError(err) {
			return err
		}
		t.log.Warn(t.name, ": transient failure writing ", chunk, " (attempt ", attempt, " of ", t.retriesPerChunk, "): ", err)
		if attempt < t.retriesPerChunk {
			t.sleep(t.retryPause)
		}
	}
	return err
}

// writeChunk writes all rows of the chunk in one transaction, creating the table first if it is missing.
func (t *TableReplace) writeChunk(ctx context.Context, w *chunkWriter, chunk stream.Chunk) error {
	tx, err := t.outputDb.BeginTx(ctx)
	if err != nil {
		return shared.ClassifyError(errors.Wrap(err, "unable to begin transaction"))
	}
	if _, err := tx.ExecContext(ctx, w.createDDL); err != nil {
		t.rollback(tx)
		return shared.ClassifyError(errors.Wrap(err, "unable to create table"))
	}
	rows := chunk.Rows()
	for lo := 0; lo < len(rows); lo += w.rowsPerInsert { // for each INSERT batch...
		hi := lo + w.rowsPerInsert
		if hi > len(rows) {
			hi = len(rows)
		}
		w.insert.InitBatch(hi - lo)
		for _, row := range rows[lo:hi] {
			if _, err := w.insert.AddValuesToBatch(row); err != nil {
				t.rollback(tx)
				return errors.Wrap(err, "unable to build INSERT batch")
			}
		}
		if _, err := tx.ExecContext(ctx, w.insert.GetStatement(), w.insert.GetValues()...); err != nil {
			t.rollback(tx)
			return shared.ClassifyError(errors.Wrap(err, "unable to insert rows"))
		}
	}
	if err := tx.Commit(); err != nil {
		return shared.ClassifyError(errors.Wrap(err, "unable to commit"))
	}
	atomic.AddInt64(&t.rowsWritten, int64(len(rows)))
	return nil
}

func (t *TableReplace) rollback(tx shared.Transacter) {
	if err := tx.Rollback(); err != nil {
		t.log.Warn(t.name, ": rollback failed: ", err)
	}
}
