// Package ierrors implements the error taxonomy of the indexing engine:
// configuration, connectivity and query errors are fatal to a pass and are
// wrapped here so callers can tell them apart with errors.As. Malformed
// input data is deliberately not part of this taxonomy — the analyzer
// swallows it and leaves the corresponding token_info field absent.
package ierrors

import "github.com/pkg/errors"

// ConfigError wraps a fatal startup misconfiguration (missing tokenizer
// data, unknown tokenizer name, ...).
type ConfigError struct{ cause error }

func (e *ConfigError) Error() string { return "configuration error: " + e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

// NewConfig wraps cause as a ConfigError, attaching msg as context.
func NewConfig(cause error, msg string) error {
	return &ConfigError{cause: errors.Wrap(cause, msg)}
}

// ConnectivityError wraps a failure to open or a loss of a database
// connection mid-pass.
type ConnectivityError struct{ cause error }

func (e *ConnectivityError) Error() string { return "connectivity error: " + e.cause.Error() }
func (e *ConnectivityError) Unwrap() error { return e.cause }

func NewConnectivity(cause error, msg string) error {
	return &ConnectivityError{cause: errors.Wrap(cause, msg)}
}

// QueryError wraps a server-side SQL error. Never retried: indexed_status
// is the persistent work cursor, so a failed row is simply retried on the
// next run.
type QueryError struct {
	cause error
	SQL   string
}

func (e *QueryError) Error() string { return "query error: " + e.cause.Error() }
func (e *QueryError) Unwrap() error { return e.cause }

func NewQuery(cause error, sql string) error {
	return &QueryError{cause: cause, SQL: sql}
}
