package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/internal/schema"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter pgingest.yaml",
	Long: `Init writes pgingest.yaml into dir (default: current directory) with
local connection defaults, the target table and the built-in taxi trips
schema spelled out so it can be edited.

An existing pgingest.yaml is never overwritten.

Examples:
  pgingest init
  pgingest init ./ny_taxi --url https://example.com/yellow_tripdata_2021-01.csv.gz
  pgingest init . -t staging.trips`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeDirectories,
	RunE:              runInit,
}

type initFlagValues struct {
	tableName string
	url       string
}

var initFlags initFlagValues

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initFlags.tableName, "table_name", "t", defaultTableName,
		"Target table written to pgingest.yaml")
	initCmd.Flags().StringVar(&initFlags.url, "url", "",
		"Source URL or path written to pgingest.yaml")
}

// starterConfig is the content of a fresh pgingest.yaml.
func starterConfig(table, url string) *config.ProjectConfig {
	username := os.Getenv("USER")
	if username == "" {
		username = "postgres"
	}

	return &config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Host:     "localhost",
			Port:     5432,
			Username: username,
			Database: "postgres",
			SSLMode:  "prefer",
		},
		Table: table,
		Source: config.SourceConfig{
			URL:         url,
			ChunkSize:   pgingest.DefaultChunkSize,
			Delimiter:   string(pgingest.DefaultDelimiter),
			Compression: string(pgingest.CompressionAuto),
		},
		Schema:  schema.ToConfig(schema.TaxiTrips()),
		Timeout: pgingest.DefaultTimeout.String(),
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if _, err := pgingest.ParseTableName(initFlags.tableName); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path, err := config.Write(dir, starterConfig(initFlags.tableName, initFlags.url))
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists in %s; edit it or remove it first: %w", config.ConfigFileName, dir, pgingest.ErrInvalidConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n\n", path)
	fmt.Fprintln(out, "Next steps:")
	if dir != "." {
		fmt.Fprintf(out, "  cd %s\n", dir)
	}
	if initFlags.url == "" {
		fmt.Fprintln(out, "  # set source.url in pgingest.yaml, or pass --url")
	}
	fmt.Fprintln(out, "  pgingest schema")
	fmt.Fprintln(out, "  pgingest load")
	return nil
}
