package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgingest",
	Short: "Chunked CSV to PostgreSQL table loader",
	Long: `pgingest streams a delimited file (local, file:// or http(s)://, optionally
gzip or zstd compressed) into a PostgreSQL table, one chunk at a time.

The table is dropped and recreated from a fixed column schema when the first
chunk arrives, then every chunk is appended with COPY. Memory use is bounded
by the chunk size, not the file size.

Exit Codes:
  0   - Success
  1   - General error
  2   - CLI usage error (invalid arguments or flags)
  3   - Panic or unexpected system error
  10  - Invalid configuration, parameters or table name
  11  - Database connection failed
  12  - Source unavailable, malformed, or header lacks schema columns
  20  - Source contained no data rows (table left untouched)
  21  - Database rejected DDL or a chunk (earlier chunks stay committed)
  22  - A value did not fit its column type
  130 - Interrupted`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// reportedError marks an error whose message already reached the operator
// as the run summary. Execute does not print it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}

	err := rootCmd.Execute()
	var reported *reportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	// -h belongs to --host, so help gets no shorthand.
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgingest")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
