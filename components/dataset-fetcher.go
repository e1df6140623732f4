package components

import (
	"context"
	"fmt"
	"time"

	"github.com/relloyd/tableload/cube"
	"github.com/relloyd/tableload/helper"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms"
	"github.com/relloyd/tableload/rdbms/shared"
	"github.com/relloyd/tableload/stream"
)

// CubeQuerier executes a cube statement and returns the whole result.
type CubeQuerier interface {
	Query(ctx context.Context, mdx string) (*stream.Dataset, error)
}

type CubeClientFactory func(log logger.Logger, connString string) (CubeQuerier, error)

type RelationalQueryFunc func(ctx context.Context, log logger.Logger, db shared.Connector, sqltext string) (*stream.Dataset, error)

// DatasetFetcher runs a read-only query against a resolved connection and materialises the result.
type DatasetFetcher struct {
	Log             logger.Logger
	NewCubeClient   CubeClientFactory
	RelationalQuery RelationalQueryFunc
}

func NewDatasetFetcher(log logger.Logger) *DatasetFetcher {
	return &DatasetFetcher{
		Log: log,
		NewCubeClient: func(log logger.Logger, connString string) (CubeQuerier, error) {
			return cube.NewClient(log, connString)
		},
		RelationalQuery: rdbms.SqlQuery,
	}
}

// Fetch executes queryText using the dialect given by kind.
// Zero rows is returned as an empty Dataset and no error.
// Failures to execute the query are returned as *QueryExecutionError.
func (f *DatasetFetcher) Fetch(ctx context.Context, h *rdbms.ConnectionHandle, queryText string, kind shared.QueryKind) (*stream.Dataset, error) {
	if h == nil {
		return nil, &QueryExecutionError{Kind: kind.String(), Err: fmt.Errorf("missing connection handle")}
	}
	if h.Kind.QueryKind() != kind {
		return nil, &QueryExecutionError{
			Kind: kind.String(),
			Err:  fmt.Errorf("connection %v of kind %v cannot run %v queries", h.Spec.LogicalName, h.Kind, kind),
		}
	}
	start := time.Now()
	var (
		ds  *stream.Dataset
		err error
	)
	switch kind {
	case shared.QueryKindRelational:
		f.Log.Info("Fetching relational query results from ", h.Spec.LogicalName, "...")
		f.Log.Debug("SQL: ", queryText)
		ds, err = f.RelationalQuery(ctx, f.Log, h.Db, queryText)
	case shared.QueryKindCube:
		f.Log.Info("Fetching cube query results from ", h.Spec.LogicalName, "...")
		f.Log.Debug("MDX: ", queryText)
		var c CubeQuerier
		c, err = f.NewCubeClient(f.Log, h.CubeConnString)
		if err == nil {
			ds, err = c.Query(ctx, queryText)
		}
	default:
		err = fmt.Errorf("unsupported query kind %v", kind)
	}
	if err != nil {
		f.Log.Error("Query against ", h.Spec.LogicalName, " failed: ", err)
		return nil, &QueryExecutionError{Kind: kind.String(), Err: err}
	}
	f.Log.Info("Fetched ", ds.NumRows(), " rows x ", ds.NumColumns(), " columns (approx ",
		helper.BytesToMegabytes(ds.ApproxSizeBytes()), " MB) in ", time.Since(start))
	return ds, nil
}
