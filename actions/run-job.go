package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/components"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/notify"
	"github.com/relloyd/tableload/rdbms"
	"github.com/relloyd/tableload/rdbms/shared"
	"github.com/relloyd/tableload/stats"
	tabledefinition "github.com/relloyd/tableload/table-definition"
)

type JobState int

const (
	JobFetching JobState = iota + 1
	JobLoading
	JobNotifying
	JobDone
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobFetching:
		return "FETCHING"
	case JobLoading:
		return "LOADING"
	case JobNotifying:
		return "NOTIFYING"
	case JobDone:
		return "DONE"
	case JobFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// NoDataReturnedError means the job produced nothing to load: the job is unknown or its query returned zero rows.
type NoDataReturnedError struct {
	Job    string
	Reason string
}

func (e *NoDataReturnedError) Error() string {
	return fmt.Sprintf("no data returned for job %q: %v", e.Job, e.Reason)
}

type JobConfig struct {
	Log              RunLogger
	JobTitle         string
	Queries          QueryLookup
	Connections      ConnectionResolver
	Fetcher          DatasetFetcher
	NewLoader        LoaderFactory
	Notifier         notify.Notifier
	Archiver         LogArchiver
	TargetConnection string   // overrides the job's target connection
	TargetTable      string   // overrides the job's target table
	Recipients       []string // overrides the job's recipients
}

// JobResult records how far a run got. Err is nil only when State is JobDone.
type JobResult struct {
	Job      string
	State    JobState
	History  []JobState
	Err      error
	Rows     int
	Target   string
	Outcome  components.LoadOutcome
	Started  time.Time
	Finished time.Time
	LogURL   string
}

func (r *JobResult) enter(s JobState) {
	r.State = s
	r.History = append(r.History, s)
}

// Failed is true when the run ended in JobFailed.
func (r *JobResult) Failed() bool {
	return r.State == JobFailed
}

// RunJob fetches the job's dataset, replaces the target table with it and always sends one notification.
// The returned result is in a terminal state.
func RunJob(ctx context.Context, cfg *JobConfig) *JobResult {
	res := &JobResult{Job: cfg.JobTitle, Started: time.Now()}
	if cfg.NewLoader == nil {
		cfg.NewLoader = newTableReplace
	}
	res.Err = fetchAndLoad(ctx, cfg, res)
	if res.Err != nil {
		cfg.Log.Error("Job ", cfg.JobTitle, " failed in state ", res.State, ": ", res.Err)
	}
	return finishRun(ctx, cfg, res)
}

// ReportFailure sends the one notification for a run that failed before its job could start,
// e.g. when the registries could not be loaded. Queries and Connections may be nil.
func ReportFailure(ctx context.Context, cfg *JobConfig, err error) *JobResult {
	res := &JobResult{Job: cfg.JobTitle, Started: time.Now(), Err: err}
	cfg.Log.Error("Job ", cfg.JobTitle, " could not start: ", err)
	return finishRun(ctx, cfg, res)
}

// finishRun notifies then records the terminal state, which is entered exactly once.
func finishRun(ctx context.Context, cfg *JobConfig, res *JobResult) *JobResult {
	res.enter(JobNotifying)
	res.Finished = time.Now()
	sendNotification(ctx, cfg, res)
	if res.Err != nil {
		res.enter(JobFailed)
	} else {
		res.enter(JobDone)
	}
	return res
}

func fetchAndLoad(ctx context.Context, cfg *JobConfig, res *JobResult) error {
	log := cfg.Log
	res.enter(JobFetching)
	def, ok := cfg.Queries.Lookup(cfg.JobTitle)
	if !ok {
		return &NoDataReturnedError{Job: cfg.JobTitle, Reason: "job not found in the query registry"}
	}
	log.Info("Starting job ", def.Title, " using connection ", def.ConnectionName)
	src, err := cfg.Connections.Resolve(ctx, def.ConnectionName)
	if err != nil {
		return err
	}
	defer closeHandle(cfg, src)
	ds, err := cfg.Fetcher.Fetch(ctx, src, def.QueryText, def.Kind)
	if err != nil {
		return err
	}
	if ds.IsEmpty() {
		return &NoDataReturnedError{Job: cfg.JobTitle, Reason: "the query returned no rows"}
	}
	res.Rows = ds.NumRows()
	// Load.
	res.enter(JobLoading)
	tgtConn := firstNonEmpty(cfg.TargetConnection, def.Target.Connection)
	tgtTable := firstNonEmpty(cfg.TargetTable, def.Target.Table)
	if tgtConn == "" || tgtTable == "" {
		return fmt.Errorf("job %q has no target connection and table", cfg.JobTitle)
	}
	st := rdbms.NewSchemaTable("", tgtTable)
	if err := st.Validate(); err != nil {
		return err
	}
	schema := st.GetSchema()
	if schema == "" {
		schema = constants.DefaultSchemaSqlServer
	}
	res.Target = tgtConn + ":" + schema + "." + st.GetTable()
	tgt := src
	if tgtConn != def.ConnectionName || src.Db == nil {
		if tgt, err = cfg.Connections.Resolve(ctx, tgtConn); err != nil {
			return err
		}
		defer closeHandle(cfg, tgt)
	}
	if tgt.Db == nil {
		return fmt.Errorf("target connection %q of kind %v cannot be written to", tgtConn, tgt.Kind)
	}
	loader, err := cfg.NewLoader(&components.TableReplaceConfig{
		Log:          log,
		Name:         cfg.JobTitle,
		OutputDb:     tgt.Db,
		OutputSchema: schema,
		OutputTable:  st.GetTable(),
		Mapper:       sourceMapper(cfg, src),
		Watcher:      stats.NewLoadWatcher(log, schema+"."+st.GetTable()),
	})
	if err != nil {
		return err
	}
	res.Outcome, err = loader.Load(ctx, ds)
	return err
}

func newTableReplace(cfg *components.TableReplaceConfig) (TableLoader, error) {
	return components.NewTableReplace(cfg)
}

// sourceMapper picks the type mapping for the driver that described the dataset's columns.
func sourceMapper(cfg *JobConfig, src *rdbms.ConnectionHandle) tabledefinition.Mapper {
	driver := ""
	if src.Db != nil {
		driver = src.Db.GetType()
	}
	m, err := tabledefinition.GetMapper(driver)
	if err != nil {
		cfg.Log.Warn("Using SQL Server type mapping for source driver ", driver, ": ", err)
		return tabledefinition.NewSqlServerDataTypeMapper()
	}
	return m
}

func closeHandle(cfg *JobConfig, h *rdbms.ConnectionHandle) {
	if err := h.Close(); err != nil {
		cfg.Log.Warn("Error closing connection ", h.Spec.LogicalName, ": ", err)
	}
}

// sendNotification reports the result. Failures here are logged and never change the job result.
func sendNotification(ctx context.Context, cfg *JobConfig, res *JobResult) {
	log := cfg.Log
	recipients := cfg.Recipients
	if len(recipients) == 0 && cfg.Queries != nil {
		if def, ok := cfg.Queries.Lookup(cfg.JobTitle); ok {
			recipients = def.Recipients
		}
	}
	status := JobDone
	if res.Err != nil {
		status = JobFailed
	}
	log.Info("Sending notification for job ", cfg.JobTitle, " with status ", status)
	msg := notify.Message{
		Recipients: recipients,
		Subject:    fmt.Sprintf("Execution report for job %q - %v", cfg.JobTitle, status),
		Body:       reportBody(res),
	}
	b, err := cfg.Log.ReadBack()
	if err != nil {
		log.Warn("Unable to attach the execution log: ", err)
	} else {
		msg.Attachments = []notify.Attachment{{Name: logAttachmentName(cfg), Content: b}}
	}
	if err := cfg.Notifier.Notify(ctx, msg); err != nil {
		log.Error("Notification for job ", cfg.JobTitle, " was not sent: ", err)
	}
	if cfg.Archiver != nil && cfg.Log.FilePath() != "" {
		url, err := cfg.Archiver.Archive(ctx, cfg.Log.FilePath())
		if err != nil {
			log.Error("Unable to archive the execution log: ", err)
		} else {
			res.LogURL = url
			log.Info("Execution log archived to ", url)
		}
	}
}

func logAttachmentName(cfg *JobConfig) string {
	if p := cfg.Log.FilePath(); p != "" {
		return p[strings.LastIndexAny(p, `/\`)+1:]
	}
	return cfg.JobTitle + ".log"
}

func reportBody(res *JobResult) string {
	var sb strings.Builder
	if res.Err == nil {
		fmt.Fprintf(&sb, "Job %q completed successfully.\n\n", res.Job)
	} else {
		fmt.Fprintf(&sb, "Job %q failed.\n\n", res.Job)
	}
	fmt.Fprintf(&sb, "- Rows fetched: %v\n", res.Rows)
	if res.Target != "" {
		fmt.Fprintf(&sb, "- Target table: %v\n", res.Target)
	}
	if res.Outcome.Status != 0 {
		fmt.Fprintf(&sb, "- Load status: %v\n", res.Outcome.Status)
		fmt.Fprintf(&sb, "- Rows written: %v in %v chunk(s) of up to %v rows\n", res.Outcome.RowsWritten, res.Outcome.Chunks, res.Outcome.ChunkRows)
	}
	fmt.Fprintf(&sb, "- Elapsed: %v\n", res.Finished.Sub(res.Started).Round(time.Millisecond))
	if res.Err != nil {
		fmt.Fprintf(&sb, "\nError (%v):\n%v\n", classify(res.Err), res.Err)
		var partial *components.PartialLoadFailureError
		if errors.As(res.Err, &partial) {
			fmt.Fprintf(&sb, "\nThe table %v is incompletely loaded. Failed chunk(s): %v\n", partial.Table, partial.ChunkIndexes)
		}
	}
	sb.WriteString("\nThe execution log is attached.\n")
	return sb.String()
}

// classify names the failure class for the report.
func classify(err error) string {
	var (
		noData      *NoDataReturnedError
		queryErr    *components.QueryExecutionError
		partial     *components.PartialLoadFailureError
		unknown     *rdbms.UnknownConnectionError
		unsupported *rdbms.UnsupportedConnectionKindError
		unavailable *rdbms.ConnectionUnavailableError
	)
	switch {
	case errors.As(err, &noData):
		return "no data returned"
	case errors.As(err, &queryErr):
		return "query execution error"
	case errors.As(err, &partial):
		return "partial load failure"
	case errors.As(err, &unknown):
		return "unknown connection"
	case errors.As(err, &unsupported):
		return "unsupported connection kind"
	case errors.As(err, &unavailable):
		return "connection unavailable"
	case shared.IsTransientCommunicationError(err):
		return "transient communication failure"
	}
	return "error"
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
