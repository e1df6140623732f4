package shared

import (
	"database/sql/driver"
	"io"
	"net"
	"regexp"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
)

// TransientCommunicationError marks a network-level failure during connect or write that may succeed if retried.
type TransientCommunicationError struct {
	Err error
}

func (e *TransientCommunicationError) Error() string {
	return "transient communication failure: " + e.Err.Error()
}

func (e *TransientCommunicationError) Unwrap() error {
	return e.Err
}

// ODBC reports link failures with SQLSTATE 08S01, e.g. "{08S01} [Microsoft][ODBC Driver 17 for SQL Server]Communication link failure".
var transientMessageRegexp = regexp.MustCompile(`(?i)` + constants.SqlStateCommunicationLinkError +
	`|communication link failure|connection reset by peer|broken pipe|forcibly closed by the remote host`)

// SQL Server error numbers raised when the session or the database drops out from under a statement.
var transientSqlServerErrors = map[int32]bool{
	64:    true, // the specified network name is no longer available
	233:   true, // no process is on the other end of the pipe
	10053: true,
	10054: true,
	10060: true,
	40197: true, // Azure SQL service error processing the request
	40501: true, // Azure SQL service busy
	40613: true, // Azure SQL database not currently available
}

// IsTransientCommunicationError returns true if err belongs to the transient communication class.
// Everything else, e.g. syntax errors, constraint violations and login failures, is not retryable.
func IsTransientCommunicationError(err error) bool {
	if err == nil {
		return false
	}
	var t *TransientCommunicationError
	if errors.As(err, &t) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return transientSqlServerErrors[sqlErr.Number]
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return transientMessageRegexp.MatchString(err.Error())
}

// ClassifyError wraps transient errors in TransientCommunicationError and returns others unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var t *TransientCommunicationError
	if errors.As(err, &t) {
		return err
	}
	if IsTransientCommunicationError(err) {
		return &TransientCommunicationError{Err: err}
	}
	return err
}
