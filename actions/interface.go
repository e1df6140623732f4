package actions

import (
	"context"

	"github.com/relloyd/tableload/components"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms"
	"github.com/relloyd/tableload/rdbms/shared"
	"github.com/relloyd/tableload/stream"
)

// RunLogger is a logger that keeps the execution log on disk so it can be attached to the notification.
type RunLogger interface {
	logger.Logger
	ReadBack() ([]byte, error)
	FilePath() string
}

type QueryLookup interface {
	Lookup(title string) (config.QueryDefinition, bool)
}

type ConnectionResolver interface {
	Resolve(ctx context.Context, name string) (*rdbms.ConnectionHandle, error)
}

type DatasetFetcher interface {
	Fetch(ctx context.Context, h *rdbms.ConnectionHandle, queryText string, kind shared.QueryKind) (*stream.Dataset, error)
}

type TableLoader interface {
	Load(ctx context.Context, ds *stream.Dataset) (components.LoadOutcome, error)
}

// LoaderFactory builds the loader for one destination table.
type LoaderFactory func(cfg *components.TableReplaceConfig) (TableLoader, error)

type LogArchiver interface {
	Archive(ctx context.Context, path string) (string, error)
}
