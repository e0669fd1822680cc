package main

import (
	"testing"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func TestRun_PanicExitCode(t *testing.T) {
	t.Setenv(crashEnv, "1")

	if code := run(); code != pgingest.ExitPanic {
		t.Fatalf("run() = %d, want %d", code, pgingest.ExitPanic)
	}
}
