package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vvka-141/pgingest/internal/tui"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func runSchemaWith(t *testing.T, flags schemaFlagValues) (string, error) {
	t.Helper()
	t.Setenv(tui.NonInteractiveEnvVar, "1")

	saved := schemaFlags
	t.Cleanup(func() { schemaFlags = saved })
	schemaFlags = flags

	var out bytes.Buffer
	schemaCmd.SetOut(&out)
	t.Cleanup(func() { schemaCmd.SetOut(nil) })

	err := runSchema(schemaCmd, nil)
	return out.String(), err
}

func TestSchemaCmd_DefaultSchema(t *testing.T) {
	out, err := runSchemaWith(t, schemaFlagValues{configDir: t.TempDir()})
	if err != nil {
		t.Fatalf("runSchema() error = %v", err)
	}

	for _, want := range []string{
		"built-in taxi trips",
		"18 columns",
		"tpep_pickup_datetime",
		`DROP TABLE IF EXISTS "yellow_taxi_data";`,
		`CREATE TABLE "yellow_taxi_data" (`,
		`"passenger_count" BIGINT`,
		`"tpep_dropoff_datetime" TIMESTAMP`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSchemaCmd_SchemaFileAndQualifiedTable(t *testing.T) {
	dir := t.TempDir()
	schemaFile := filepath.Join(dir, "events.yaml")
	content := "columns:\n  - {name: id, type: int64}\n  - {name: at, type: datetime64[ns]}\n"
	if err := os.WriteFile(schemaFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runSchemaWith(t, schemaFlagValues{
		tableName:  "staging.events",
		schemaFile: schemaFile,
		configDir:  dir,
	})
	if err != nil {
		t.Fatalf("runSchema() error = %v", err)
	}

	if !strings.Contains(out, `CREATE TABLE "staging"."events" (`) {
		t.Errorf("expected qualified table in DDL:\n%s", out)
	}
	if !strings.Contains(out, `"at" TIMESTAMP`) {
		t.Errorf("expected timestamp column:\n%s", out)
	}
	if !strings.Contains(out, "2 columns") {
		t.Errorf("expected column count:\n%s", out)
	}
}

func TestSchemaCmd_TableFromProjectConfig(t *testing.T) {
	dir := t.TempDir()
	writeProjectConfig(t, dir, "table: green_taxi\n")

	out, err := runSchemaWith(t, schemaFlagValues{configDir: dir})
	if err != nil {
		t.Fatalf("runSchema() error = %v", err)
	}
	if !strings.Contains(out, `CREATE TABLE "green_taxi" (`) {
		t.Errorf("expected table from pgingest.yaml:\n%s", out)
	}
}

func TestSchemaCmd_InvalidTableName(t *testing.T) {
	_, err := runSchemaWith(t, schemaFlagValues{tableName: "a.b.c", configDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for three-part table name")
	}
	if code := pgingest.ExitCodeForError(err); code != pgingest.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, pgingest.ExitConfigError)
	}
}

func TestResolveSchema_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeProjectConfig(t, dir, "schema:\n  columns:\n    - {name: only, type: text}\n")
	projectCfg, err := loadProjectConfig(dir)
	if err != nil {
		t.Fatal(err)
	}

	s, origin, err := resolveSchema("", projectCfg)
	if err != nil {
		t.Fatal(err)
	}
	if origin != "pgingest.yaml" || len(s.Fields) != 1 {
		t.Errorf("expected pgingest.yaml schema, got %d fields from %s", len(s.Fields), origin)
	}

	schemaFile := filepath.Join(dir, "s.yaml")
	if err := os.WriteFile(schemaFile, []byte("columns:\n  - {name: a, type: text}\n  - {name: b, type: float}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, origin, err = resolveSchema(schemaFile, projectCfg)
	if err != nil {
		t.Fatal(err)
	}
	if origin != schemaFile || len(s.Fields) != 2 {
		t.Errorf("expected schema file to win, got %d fields from %s", len(s.Fields), origin)
	}

	s, _, err = resolveSchema("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Fields) != 18 {
		t.Errorf("expected built-in schema, got %d fields", len(s.Fields))
	}
}

func TestResolveSchema_InvalidType(t *testing.T) {
	dir := t.TempDir()
	schemaFile := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(schemaFile, []byte("columns:\n  - {name: a, type: money}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := resolveSchema(schemaFile, nil)
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if code := pgingest.ExitCodeForError(err); code != pgingest.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, pgingest.ExitConfigError)
	}
}
