package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/internal/db"
	"github.com/vvka-141/pgingest/internal/db/manager"
	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/internal/services"
	"github.com/vvka-141/pgingest/internal/source"
	"github.com/vvka-141/pgingest/internal/tui"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Replace a table with the contents of a CSV file",
	Long: `Load streams a delimited file into a PostgreSQL table in fixed-size chunks.

The load command:
1. Connects to PostgreSQL
2. Opens the source (local path, file:// or http(s)://, gzip or zstd aware)
3. Reads the first chunk, then drops and recreates the table from the schema
4. Appends that chunk and every following one with COPY

Each chunk is committed on its own. If a later chunk fails, the rows already
appended stay in the table and the summary says how many.

A source with a header and no rows leaves an existing table untouched
(exit code 20).

Password Authentication:
  Prefer $PGPASSWORD, ~/.pgpass or a connection string over -W, which
  ends up in shell history and the process list.

Examples:
  # The NY taxi trips file into ny_taxi.yellow_taxi_data
  pgingest load -U root -W root -h localhost -p 5432 -d ny_taxi \
    -t yellow_taxi_data \
    --url https://github.com/DataTalksClub/nyc-tlc-data/releases/download/yellow/yellow_tripdata_2021-01.csv.gz

  # Everything from pgingest.yaml in the current directory
  pgingest load

  # Tab separated file with a custom schema
  pgingest load --connection postgresql://localhost/warehouse -t staging.events \
    --url ./events.tsv --delimiter tab --schema-file events.yaml`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

type loadFlagValues struct {
	conn        connectionFlags
	tableName   string
	url         string
	chunkSize   int
	delimiter   string
	compression string
	schemaFile  string
	configDir   string
	envFile     string
	timeout     time.Duration
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)

	registerConnectionFlags(loadCmd, &loadFlags.conn)

	flags := loadCmd.Flags()
	flags.StringVarP(&loadFlags.tableName, "table_name", "t", "",
		"Target table, optionally schema-qualified (schema.table)\n"+
			"The table is dropped and recreated on every run")
	flags.StringVar(&loadFlags.url, "url", "",
		"Source file: local path, file:// or http(s):// URL\n"+
			"A .gz or .zst suffix selects decompression unless --compression says otherwise")
	flags.IntVar(&loadFlags.chunkSize, "chunk-size", pgingest.DefaultChunkSize,
		"Data rows per chunk; bounds memory and the size of each COPY")
	flags.StringVar(&loadFlags.delimiter, "delimiter", "",
		"Field delimiter, a single character or \"tab\" (default \",\")")
	flags.StringVar(&loadFlags.compression, "compression", "",
		"Source compression: auto|none|gzip|zstd (default auto)")
	flags.StringVar(&loadFlags.schemaFile, "schema-file", "",
		"YAML file with columns, parse_dates and timestamp_layouts\n"+
			"Precedence: --schema-file > pgingest.yaml schema > built-in taxi trips schema")
	flags.StringVar(&loadFlags.configDir, "config", ".",
		"Directory holding pgingest.yaml")
	flags.StringVar(&loadFlags.envFile, "env-file", "",
		"Load environment variables from this file (default: ./.env when present)")

	// Timeout - catastrophic failure protection for the whole run
	flags.DurationVar(&loadFlags.timeout, "timeout", pgingest.DefaultTimeout,
		"Upper bound for the whole run, connect through last chunk\n"+
			"Chunks appended before the deadline stay in the table (partial import, exit 1);\n"+
			"raise it for very large remote sources, or pass 0 for no limit\n"+
			"Examples: 90s, 10m, 1h30m, 0")

	_ = loadCmd.RegisterFlagCompletionFunc("compression", completeCompression)
	_ = loadCmd.RegisterFlagCompletionFunc("schema-file", completeYAMLFiles)
	_ = loadCmd.RegisterFlagCompletionFunc("config", completeDirectories)
}

// buildIngestConfig merges flags, environment and pgingest.yaml into an
// IngestConfig. Flag values win over pgingest.yaml only when they were set.
func buildIngestConfig(cmd *cobra.Command, flags loadFlagValues, verbose bool) (pgingest.IngestConfig, error) {
	if err := loadEnvFile(flags.envFile); err != nil {
		return pgingest.IngestConfig{}, err
	}

	projectCfg, err := loadProjectConfig(flags.configDir)
	if err != nil {
		return pgingest.IngestConfig{}, err
	}

	logger := logging.NewConsoleLogger(verbose)
	if projectCfg != nil {
		logger.Verbose("Using %s from %s", config.ConfigFileName, flags.configDir)
	}

	connConfig, err := resolveConnectionFromFlags(flags.conn, projectCfg)
	if err != nil {
		return pgingest.IngestConfig{}, err
	}
	logConnectionVerbose(logger, connConfig)

	cfg := pgingest.IngestConfig{
		Source:            flags.url,
		TableName:         flags.tableName,
		ChunkSize:         flags.chunkSize,
		ConnectionString:  db.BuildConnectionString(connConfig),
		Verbose:           verbose,
		AuthMethod:        connConfig.AuthMethod,
		AzureTenantID:     connConfig.AzureTenantID,
		AzureClientID:     connConfig.AzureClientID,
		AzureClientSecret: connConfig.AzureClientSecret,
		AWSRegion:         connConfig.AWSRegion,
		GoogleInstance:    connConfig.GoogleInstance,
	}

	delimiter, compression := flags.delimiter, flags.compression
	if projectCfg != nil {
		cfg.Source = firstNonEmpty(cfg.Source, projectCfg.Source.URL)
		cfg.TableName = firstNonEmpty(cfg.TableName, projectCfg.Table)
		if !cmd.Flags().Changed("chunk-size") && projectCfg.Source.ChunkSize != 0 {
			cfg.ChunkSize = projectCfg.Source.ChunkSize
		}
		delimiter = firstNonEmpty(delimiter, projectCfg.Source.Delimiter)
		compression = firstNonEmpty(compression, projectCfg.Source.Compression)
	}

	if cfg.TableName == "" {
		return pgingest.IngestConfig{}, fmt.Errorf("table name is required: use --table_name/-t or set table in pgingest.yaml: %w", pgingest.ErrInvalidConfig)
	}
	if cfg.Source == "" {
		return pgingest.IngestConfig{}, fmt.Errorf("source is required: use --url or set source.url in pgingest.yaml: %w", pgingest.ErrInvalidConfig)
	}

	if cfg.Delimiter, err = parseDelimiter(delimiter); err != nil {
		return pgingest.IngestConfig{}, err
	}
	if cfg.Compression, err = pgingest.ParseCompression(compression); err != nil {
		return pgingest.IngestConfig{}, err
	}

	var origin string
	if cfg.Schema, origin, err = resolveSchema(flags.schemaFile, projectCfg); err != nil {
		return pgingest.IngestConfig{}, err
	}
	logger.Verbose("Schema: %d columns from %s", len(cfg.Schema.Fields), origin)

	if cfg.Timeout, err = resolveEffectiveTimeout(cmd, projectCfg, flags.timeout); err != nil {
		return pgingest.IngestConfig{}, err
	}

	return cfg, nil
}

func runLoad(cmd *cobra.Command, _ []string) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildIngestConfig(cmd, loadFlags, verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	ingester := services.NewIngestService(
		db.NewConnector,
		source.NewCSVSource(source.NewOpener(nil, logger)),
		manager.New(),
		logger,
	)

	// Verbose log lines would tear the animated frame apart.
	styled := tui.DetectMode() == tui.ModeAnimated
	var view *tui.ProgressView
	if styled && !verbose {
		view = tui.NewProgressView(cmd.OutOrStdout())
		defer view.Close()
		ingester.WithObserver(view)
	} else {
		ingester.WithObserver(tui.NewStatusPrinter(cmd.OutOrStdout()))
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := ingester.Ingest(ctx, cfg)
	if view != nil {
		_ = view.Close()
	}
	if err != nil {
		return err
	}

	return printOutcome(cmd, report, styled)
}

// printOutcome writes the one summary line of a run and converts an
// unsuccessful report into the error that selects the exit code.
func printOutcome(cmd *cobra.Command, report *pgingest.Report, styled bool) error {
	line := tui.RenderSummary(report, styled)
	if report.Succeeded() {
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), line)
	return &reportedError{err: report.AsError()}
}
