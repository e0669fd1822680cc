package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode selects how a run reports progress.
type Mode int

const (
	// ModePlain prints one status line per event. Used for CI, pipes and logs.
	ModePlain Mode = iota
	// ModeAnimated redraws a live progress view on the terminal.
	ModeAnimated
)

// NonInteractiveEnvVar forces plain output when set to "1".
const NonInteractiveEnvVar = "PGINGEST_NON_INTERACTIVE"

// DetectMode picks ModePlain when any of these hold:
//   - PGINGEST_NON_INTERACTIVE=1
//   - CI is set
//   - NO_COLOR is set
//   - stdout is not a terminal
//
// The progress view never reads keys, so stdin is not consulted.
func DetectMode() Mode {
	if os.Getenv(NonInteractiveEnvVar) == "1" {
		return ModePlain
	}
	if os.Getenv("CI") != "" || os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ModePlain
	}
	return ModeAnimated
}
