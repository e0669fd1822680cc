package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgingest/internal/db/manager"
	"github.com/vvka-141/pgingest/internal/tui"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// defaultTableName is the table used when neither -t nor pgingest.yaml names one.
const defaultTableName = "yellow_taxi_data"

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the column schema and the DDL a load would run",
	Long: `Schema prints the effective column schema and the statements load issues
before the first chunk. Nothing is sent to the database.

The schema is resolved the same way load resolves it:
  --schema-file > schema block of pgingest.yaml > built-in taxi trips schema

Examples:
  pgingest schema
  pgingest schema -t staging.trips
  pgingest schema --schema-file events.yaml -t events`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

type schemaFlagValues struct {
	tableName  string
	schemaFile string
	configDir  string
}

var schemaFlags schemaFlagValues

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVarP(&schemaFlags.tableName, "table_name", "t", "",
		"Table name for the generated DDL (default: pgingest.yaml table or "+defaultTableName+")")
	schemaCmd.Flags().StringVar(&schemaFlags.schemaFile, "schema-file", "",
		"YAML schema file to show instead of the configured one")
	schemaCmd.Flags().StringVar(&schemaFlags.configDir, "config", ".",
		"Directory holding pgingest.yaml")

	_ = schemaCmd.RegisterFlagCompletionFunc("schema-file", completeYAMLFiles)
	_ = schemaCmd.RegisterFlagCompletionFunc("config", completeDirectories)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	projectCfg, err := loadProjectConfig(schemaFlags.configDir)
	if err != nil {
		return err
	}

	s, origin, err := resolveSchema(schemaFlags.schemaFile, projectCfg)
	if err != nil {
		return err
	}

	table := schemaFlags.tableName
	if table == "" && projectCfg != nil {
		table = projectCfg.Table
	}
	if table == "" {
		table = defaultTableName
	}

	ident, err := pgingest.ParseTableName(table)
	if err != nil {
		return err
	}
	ddl, err := manager.ReplaceTableSQL(ident, s)
	if err != nil {
		return err
	}

	styled := tui.DetectMode() == tui.ModeAnimated
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Schema (%s), %d columns:\n", origin, len(s.Fields))
	fmt.Fprintln(out, tui.RenderSchema(s, styled))
	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.RenderSQL(ddl, styled))
	return nil
}
