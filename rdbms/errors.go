package rdbms

import (
	"fmt"
)

// UnknownConnectionError is returned when a logical connection name is not in the registry.
type UnknownConnectionError struct {
	Name string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("unknown connection %q", e.Name)
}

// UnsupportedConnectionKindError is returned for a kind that has no handler.
type UnsupportedConnectionKindError struct {
	Name string
	Kind string
}

func (e *UnsupportedConnectionKindError) Error() string {
	return fmt.Sprintf("connection %q has unsupported kind %q", e.Name, e.Kind)
}

// ConnectionUnavailableError is returned once every connection attempt has failed with a transient error.
type ConnectionUnavailableError struct {
	Name     string
	Attempts int
	Err      error // the last transient error
}

func (e *ConnectionUnavailableError) Error() string {
	return fmt.Sprintf("connection %q unavailable after %v attempt(s): %v", e.Name, e.Attempts, e.Err)
}

func (e *ConnectionUnavailableError) Unwrap() error {
	return e.Err
}
