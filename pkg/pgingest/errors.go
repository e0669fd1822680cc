package pgingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := ingester.Ingest(ctx, config)
//	if errors.Is(report.AsError(), pgingest.ErrEmptySource) {
//	    // Nothing was loaded, the table was left alone
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidIdentifier indicates a table or column name cannot be used as a SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrSourceUnavailable indicates the source could not be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedSource indicates the source is not valid delimited text.
	ErrMalformedSource = errors.New("malformed source")

	// ErrSchemaMismatch indicates the source header lacks columns required by the schema.
	ErrSchemaMismatch = errors.New("source header does not match schema")

	// ErrEmptySource indicates the source produced zero data rows.
	ErrEmptySource = errors.New("source contains no data rows")

	// ErrSchemaCoercion indicates a value could not be converted to its field type.
	ErrSchemaCoercion = errors.New("schema coercion failed")

	// ErrSinkWrite indicates the sink rejected a DDL statement or a batch append.
	ErrSinkWrite = errors.New("sink write failed")
)

// CoercionError describes a single value that could not be converted to
// the type its schema field declares.
type CoercionError struct {
	Column string
	Row    int64 // 1-based data row, header excluded
	Value  string
	Type   FieldType
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q, row %d: cannot convert %q to %s: %v", e.Column, e.Row, e.Value, e.Type, e.Err)
}

// Unwrap exposes both ErrSchemaCoercion and the underlying parse error.
func (e *CoercionError) Unwrap() []error {
	return []error{ErrSchemaCoercion, e.Err}
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSourceUnavailable),
		errors.Is(err, ErrMalformedSource),
		errors.Is(err, ErrSchemaMismatch):
		return ExitSourceError
	case errors.Is(err, ErrEmptySource):
		return ExitEmptySource
	case errors.Is(err, ErrSchemaCoercion):
		return ExitCoercionFailed
	case errors.Is(err, ErrSinkWrite):
		return ExitSinkWriteFailed
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError recognizes the messages cobra produces for bad invocations.
func isUsageError(msg string) bool {
	for _, pattern := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"required flag",
		"invalid argument",
		"flag needs an argument",
		"if any flags in the group",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return strings.Contains(msg, "accepts ") && strings.Contains(msg, "arg(s)")
}
