package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestResolveVersionInfo_LdflagsOverride(t *testing.T) {
	origV, origC, origD := version, commit, date
	defer func() { version, commit, date = origV, origC, origD }()

	version, commit, date = "1.2.3", "abc123", "2026-01-01"
	v, c, d := resolveVersionInfo()
	if v != "1.2.3" || c != "abc123" || d != "2026-01-01" {
		t.Errorf("expected ldflags values, got %q %q %q", v, c, d)
	}
}

func TestResolveVersionInfo_DevFallback(t *testing.T) {
	origV, origC, origD := version, commit, date
	defer func() { version, commit, date = origV, origC, origD }()

	version, commit, date = "dev", "unknown", "unknown"
	v, _, _ := resolveVersionInfo()
	if v == "" {
		t.Error("version should not be empty")
	}
}

func TestPrintVersionInfo(t *testing.T) {
	origV := version
	defer func() { version = origV }()
	version = "1.2.3"

	var buf bytes.Buffer
	printVersionInfo(&buf)

	if !strings.HasPrefix(buf.String(), "pgingest 1.2.3 (") {
		t.Errorf("unexpected version line %q", buf.String())
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("version output should be a single line, got %q", buf.String())
	}
}
