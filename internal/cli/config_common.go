package cli

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/internal/schema"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// loadEnvFile populates the process environment from a .env file. An explicit
// path must exist; the implicit ./.env is optional.
func loadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w: %w", path, pgingest.ErrInvalidConfig, err)
	}
	return nil
}

// loadProjectConfig reads pgingest.yaml from dir.
// Returns nil config if pgingest.yaml does not exist (not an error).
func loadProjectConfig(dir string) (*config.ProjectConfig, error) {
	projectCfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, pgingest.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring pgingest.yaml if flag wasn't set.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, err := time.ParseDuration(projectCfg.Timeout)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout in %s: %w: %w", config.ConfigFileName, pgingest.ErrInvalidConfig, err)
		}
		return parsed, nil
	}
	return flagTimeout, nil
}

// resolveSchema picks the column schema: --schema-file, then the schema
// block of pgingest.yaml, then the built-in taxi trip schema. The second
// return value names where the schema came from.
func resolveSchema(schemaFile string, projectCfg *config.ProjectConfig) (pgingest.Schema, string, error) {
	switch {
	case schemaFile != "":
		sc, err := config.LoadSchema(schemaFile)
		if errors.Is(err, config.ErrConfigNotFound) {
			return pgingest.Schema{}, "", fmt.Errorf("schema file %s does not exist: %w", schemaFile, pgingest.ErrInvalidConfig)
		}
		if err != nil {
			return pgingest.Schema{}, "", fmt.Errorf("failed to read schema file: %w: %w", pgingest.ErrInvalidConfig, err)
		}
		s, err := schema.FromConfig(sc)
		if err != nil {
			return pgingest.Schema{}, "", fmt.Errorf("%s: %w", schemaFile, err)
		}
		return s, schemaFile, nil

	case projectCfg != nil && projectCfg.Schema != nil:
		s, err := schema.FromConfig(projectCfg.Schema)
		if err != nil {
			return pgingest.Schema{}, "", fmt.Errorf("%s: %w", config.ConfigFileName, err)
		}
		return s, config.ConfigFileName, nil
	}

	return schema.TaxiTrips(), "built-in taxi trips", nil
}

// parseDelimiter accepts a single character, or "tab" / `\t` for tabs.
// The empty string selects the default comma.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q: %w", s, pgingest.ErrInvalidConfig)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
