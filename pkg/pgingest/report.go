package pgingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State tracks where an import is in its lifecycle.
//
//	NotStarted -> TableInitialized -> Appending -> Done
//	NotStarted -> EmptySource
//	any        -> Failed
type State int

const (
	StateNotStarted State = iota
	StateTableInitialized
	StateAppending
	StateDone
	StateEmptySource
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateTableInitialized:
		return "TABLE_INITIALIZED"
	case StateAppending:
		return "APPENDING"
	case StateDone:
		return "DONE"
	case StateEmptySource:
		return "EMPTY_SOURCE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateEmptySource || s == StateFailed
}

// Step names the operation that was running when an import failed.
type Step string

const (
	StepNone         Step = ""
	StepDefineSchema Step = "define-schema"
	StepAppend       Step = "append"
	StepRead         Step = "read"
)

// Report is the outcome of one import.
type Report struct {
	RunID  uuid.UUID
	Source string
	Table  string

	// State is always terminal once Ingest returns.
	State State

	// FailedFrom is the state the import was in when it failed.
	FailedFrom State

	// FailedStep and FailedChunk locate the failure; FailedChunk is -1 when unset.
	FailedStep  Step
	FailedChunk int

	// ChunksWritten and RowsWritten count committed appends only.
	ChunksWritten int
	RowsWritten   int64

	Duration time.Duration
	Err      error
}

// NewReport returns a report in StateNotStarted with a fresh run id.
func NewReport(source, table string) *Report {
	return &Report{
		RunID:       uuid.New(),
		Source:      source,
		Table:       table,
		State:       StateNotStarted,
		FailedChunk: -1,
	}
}

// Fail moves the report to StateFailed, remembering where it happened.
func (r *Report) Fail(step Step, chunk int, err error) {
	r.FailedFrom = r.State
	r.State = StateFailed
	r.FailedStep = step
	r.FailedChunk = chunk
	r.Err = err
}

// Succeeded is true only for StateDone.
func (r *Report) Succeeded() bool {
	return r.State == StateDone
}

// Summary is the single line shown to the operator at the end of a run.
func (r *Report) Summary() string {
	switch r.State {
	case StateDone:
		return fmt.Sprintf("Finished successfully! Data ingested into table %q: %d rows in %d chunks (%s).",
			r.Table, r.RowsWritten, r.ChunksWritten, r.Duration.Round(time.Millisecond))
	case StateEmptySource:
		return fmt.Sprintf("Error: The source CSV appears to be empty (%s); table %q was not modified.", r.Source, r.Table)
	case StateFailed:
		return fmt.Sprintf("An error occurred during %s of chunk %d: %v (%d rows in %d chunks already committed to %q and not rolled back)",
			r.FailedStep, r.FailedChunk, r.Err, r.RowsWritten, r.ChunksWritten, r.Table)
	default:
		return fmt.Sprintf("Import of %q into %q did not finish (state %s)", r.Source, r.Table, r.State)
	}
}

// AsError converts a non-successful report into an error that maps onto
// the matching exit code. Returns nil for StateDone.
func (r *Report) AsError() error {
	switch r.State {
	case StateDone:
		return nil
	case StateEmptySource:
		return fmt.Errorf("%s: %w", r.Source, ErrEmptySource)
	case StateFailed:
		return fmt.Errorf("%s of chunk %d: %w", r.FailedStep, r.FailedChunk, r.Err)
	default:
		return fmt.Errorf("import ended in state %s", r.State)
	}
}
