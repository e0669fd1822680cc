package pgingest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ingester runs one complete import of a source into a table.
type Ingester interface {
	// Ingest loads config.Source into config.TableName.
	//
	// Failures before the first chunk is read (configuration, connection,
	// opening the source) are returned as errors. Once chunks are flowing,
	// every terminal outcome is described by the returned Report and the
	// error is nil.
	Ingest(ctx context.Context, config IngestConfig) (*Report, error)
}

// Connector establishes connection pools. Implementations cover plain
// credentials and the cloud IAM flavours.
type Connector interface {
	// Connect establishes a connection pool to the database.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// DBConnection is the slice of pgx the loader needs: plain statements for
// DDL and the COPY protocol for appends.
type DBConnection interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow always returns a non-nil Row; errors surface from Scan.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// CopyFrom bulk-loads rows via COPY ... FROM STDIN. The call succeeds or
	// fails as a single statement.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	Scan(dest ...any) error
}

// TableManager owns the two write phases against the sink table.
type TableManager interface {
	// Exists reports whether the table is present.
	Exists(ctx context.Context, conn DBConnection, table string) (bool, error)

	// DefineSchema replaces the table with an empty one whose columns follow
	// schema order. Drop and create happen atomically.
	DefineSchema(ctx context.Context, conn DBConnection, table string, schema Schema) error

	// AppendBatch writes every row of batch in one statement and returns the
	// number of rows the server accepted.
	AppendBatch(ctx context.Context, conn DBConnection, table string, batch *Batch) (int64, error)
}

// BatchReader is a forward-only cursor over coerced record batches.
type BatchReader interface {
	// Next returns the next batch, or io.EOF once the source is exhausted.
	Next(ctx context.Context) (*Batch, error)

	// Close releases the underlying stream. Safe to call more than once.
	Close() error
}

// BatchSource opens readers over a source location.
type BatchSource interface {
	Open(ctx context.Context, config SourceConfig) (BatchReader, error)
}

// ProgressObserver receives lifecycle events from a running import.
// Calls arrive from the ingesting goroutine, in order.
type ProgressObserver interface {
	Started(source, table string)
	TableInitialized(table string, rows int64)
	ChunkAppended(index int, rows, totalRows int64)
	Finished(report *Report)
}

// Logger provides a pluggable logging interface.
// Implementations must be safe for concurrent use by multiple goroutines.
type Logger interface {
	// Verbose is only emitted when verbose mode is enabled.
	Verbose(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// ErrorClassifier determines whether an error is transient (retryable) or fatal.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait before the next attempt.
	// attempt is zero-indexed (0 = first retry, 1 = second retry, etc.)
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum number of retry attempts (0 = no retries, -1 = unlimited)
	MaxAttempts() int
}
