package rdbms

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms/shared"
)

// ConnectionLookup finds connection specs by logical name.
type ConnectionLookup interface {
	Lookup(name string) (shared.ConnectionSpec, bool)
}

// ConnectionHandle is a resolved connection: a live database pool for relational kinds
// or the connection string for cubes.
type ConnectionHandle struct {
	Spec           shared.ConnectionSpec
	Kind           shared.ConnectionKind
	Db             shared.Connector
	CubeConnString string
}

// Close releases the pool, if any.
func (h *ConnectionHandle) Close() error {
	if h == nil || h.Db == nil {
		return nil
	}
	return h.Db.Close()
}

// Provider resolves logical connection names into handles, retrying transient connection failures.
type Provider struct {
	Log         logger.Logger
	Connections ConnectionLookup
	MaxAttempts int
	RetryDelay  time.Duration
	Open        OpenFunc
	Sleep       func(time.Duration)
}

// NewProvider returns a Provider with the default retry budget.
func NewProvider(log logger.Logger, connections ConnectionLookup) *Provider {
	return &Provider{
		Log:         log,
		Connections: connections,
		MaxAttempts: constants.ConnectMaxAttempts,
		RetryDelay:  constants.ConnectRetryDelay,
		Open:        OpenDbConnection,
		Sleep:       time.Sleep,
	}
}

// Resolve looks up name and returns a validated handle.
// Unknown names fail with UnknownConnectionError before any connection attempt.
// Transient failures are retried MaxAttempts times in total, after which ConnectionUnavailableError is returned.
// Any other failure is returned at once.
func (p *Provider) Resolve(ctx context.Context, name string) (*ConnectionHandle, error) {
	spec, ok := p.Connections.Lookup(name)
	if !ok {
		p.Log.Error("connection ", name, " not found in the connection registry")
		return nil, &UnknownConnectionError{Name: name}
	}
	kind, err := spec.GetKind()
	if err != nil {
		return nil, &UnsupportedConnectionKindError{Name: name, Kind: spec.Kind}
	}
	switch kind {
	case shared.KindCube:
		p.Log.Info("Using cube connection ", name)
		return &ConnectionHandle{Spec: spec, Kind: kind, CubeConnString: spec.ConnString}, nil
	case shared.KindRelational, shared.KindCloudRelational:
		db, err := p.connectWithRetry(ctx, spec)
		if err != nil {
			return nil, err
		}
		return &ConnectionHandle{Spec: spec, Kind: kind, Db: db}, nil
	default:
		return nil, &UnsupportedConnectionKindError{Name: name, Kind: spec.Kind}
	}
}

func (p *Provider) connectWithRetry(ctx context.Context, spec shared.ConnectionSpec) (shared.Connector, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ { // for each attempt...
		p.Log.Info("Connecting to ", spec.LogicalName, " (attempt ", attempt, " of ", attempts, ")")
		db, err := p.connectOnce(ctx, spec)
		if err == nil {
			p.Log.Info("Successful connection to ", spec.LogicalName)
			return db, nil
		}
		if !shared.IsTransientCommunicationError(err) { // if this is fatal...
			p.Log.Error("connection to ", spec.LogicalName, " failed: ", err)
			return nil, err
		}
		lastErr = err
		p.Log.Warn("transient failure connecting to ", spec.LogicalName, ": ", err)
		if attempt < attempts {
			p.Log.Info("Retrying in ", p.RetryDelay)
			p.Sleep(p.RetryDelay)
		}
	}
	p.Log.Error("connection to ", spec.LogicalName, " unavailable after ", attempts, " attempt(s)")
	return nil, &ConnectionUnavailableError{Name: spec.LogicalName, Attempts: attempts, Err: lastErr}
}

func (p *Provider) connectOnce(ctx context.Context, spec shared.ConnectionSpec) (shared.Connector, error) {
	db, err := p.Open(ctx, p.Log, spec)
	if err != nil {
		return nil, shared.ClassifyError(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, shared.ClassifyError(errors.Wrapf(err, "error validating connection %q", spec.LogicalName))
	}
	return db, nil
}
