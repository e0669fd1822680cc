package pgingest

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0   // All chunks appended
	ExitGeneralError    = 1   // Unknown or unclassified error
	ExitUsageError      = 2   // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3   // Internal panic (unexpected crash)
	ExitConfigError     = 10  // Invalid configuration, parameters or identifiers
	ExitConnectionError = 11  // Failed to connect to database
	ExitSourceError     = 12  // Source could not be opened or header mismatch
	ExitEmptySource     = 20  // Source had no data rows; table untouched
	ExitSinkWriteFailed = 21  // DDL or append rejected by the database
	ExitCoercionFailed  = 22  // A value did not fit its schema type
	ExitInterrupted     = 130 // Cancelled by SIGINT/SIGTERM
)

const (
	// DefaultChunkSize is the number of data rows read and appended per batch.
	DefaultChunkSize = 50000

	// DefaultTimeout bounds an entire run, connect through last append.
	DefaultTimeout = 30 * time.Minute

	// DefaultDelimiter is the field separator for CSV sources.
	DefaultDelimiter = ','

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1; longer names are truncated by the server.
	MaxIdentifierLength = 63

	// MaxErrorPreviewLength caps how much of an offending value is echoed in messages.
	MaxErrorPreviewLength = 200
)
