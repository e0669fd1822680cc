package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/pgingest/internal/cli"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// crashEnv makes the binary panic on startup so the crash exit code can be
// checked from scripts.
const crashEnv = "PGINGEST_TEST_PANIC"

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "pgingest crashed: %v\n\n%s", r, debug.Stack())
			code = pgingest.ExitPanic
		}
	}()

	if os.Getenv(crashEnv) == "1" {
		panic(crashEnv + " is set")
	}

	return pgingest.ExitCodeForError(cli.Execute())
}
