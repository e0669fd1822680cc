package pgingest_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func TestNewReport(t *testing.T) {
	r := pgingest.NewReport("trips.csv", "trips")

	assert.NotEqual(t, uuid.Nil, r.RunID)
	assert.Equal(t, pgingest.StateNotStarted, r.State)
	assert.Equal(t, -1, r.FailedChunk)
	assert.False(t, r.Succeeded())
	assert.NotEqual(t, r.RunID, pgingest.NewReport("trips.csv", "trips").RunID)
}

func TestReport_SummaryIsOneLinePerOutcome(t *testing.T) {
	done := pgingest.NewReport("trips.csv", "trips")
	done.State = pgingest.StateDone
	done.RowsWritten = 100001
	done.ChunksWritten = 3

	empty := pgingest.NewReport("trips.csv", "trips")
	empty.State = pgingest.StateEmptySource

	failed := pgingest.NewReport("trips.csv", "trips")
	failed.State = pgingest.StateAppending
	failed.RowsWritten = 50000
	failed.ChunksWritten = 1
	failed.Fail(pgingest.StepAppend, 1, fmt.Errorf("copy: %w", pgingest.ErrSinkWrite))

	summaries := map[string]string{
		"done":   done.Summary(),
		"empty":  empty.Summary(),
		"failed": failed.Summary(),
	}
	for name, s := range summaries {
		assert.NotContains(t, s, "\n", name)
	}

	assert.True(t, strings.HasPrefix(summaries["done"], "Finished successfully!"))
	assert.Contains(t, summaries["done"], "100001 rows in 3 chunks")
	assert.Contains(t, summaries["empty"], "empty")
	assert.Contains(t, summaries["empty"], "not modified")
	assert.Contains(t, summaries["failed"], "append of chunk 1")
	assert.Contains(t, summaries["failed"], "sink write failed")
	assert.Contains(t, summaries["failed"], "50000 rows in 1 chunks already committed")
}

func TestReport_Fail(t *testing.T) {
	r := pgingest.NewReport("s", "t")
	r.State = pgingest.StateTableInitialized
	cause := errors.New("boom")

	r.Fail(pgingest.StepAppend, 0, cause)

	assert.Equal(t, pgingest.StateFailed, r.State)
	assert.Equal(t, pgingest.StateTableInitialized, r.FailedFrom)
	assert.Equal(t, pgingest.StepAppend, r.FailedStep)
	assert.Equal(t, 0, r.FailedChunk)
	assert.True(t, r.State.IsTerminal())
}

func TestReport_AsError(t *testing.T) {
	done := pgingest.NewReport("s", "t")
	done.State = pgingest.StateDone
	assert.NoError(t, done.AsError())

	empty := pgingest.NewReport("s", "t")
	empty.State = pgingest.StateEmptySource
	assert.ErrorIs(t, empty.AsError(), pgingest.ErrEmptySource)
	assert.Equal(t, pgingest.ExitEmptySource, pgingest.ExitCodeForError(empty.AsError()))

	failed := pgingest.NewReport("s", "t")
	failed.Fail(pgingest.StepDefineSchema, 0, fmt.Errorf("create: %w", pgingest.ErrSinkWrite))
	err := failed.AsError()
	require.Error(t, err)
	assert.ErrorIs(t, err, pgingest.ErrSinkWrite)
	assert.Equal(t, pgingest.ExitSinkWriteFailed, pgingest.ExitCodeForError(err))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "NOT_STARTED", pgingest.StateNotStarted.String())
	assert.Equal(t, "TABLE_INITIALIZED", pgingest.StateTableInitialized.String())
	assert.Equal(t, "APPENDING", pgingest.StateAppending.String())
	assert.Equal(t, "DONE", pgingest.StateDone.String())
	assert.Equal(t, "EMPTY_SOURCE", pgingest.StateEmptySource.String())
	assert.Equal(t, "FAILED", pgingest.StateFailed.String())
	assert.False(t, pgingest.StateAppending.IsTerminal())
}
