package testing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/schema"
)

// TaxiHeader is the yellow-taxi CSV header in source order.
func TaxiHeader() []string {
	return schema.TaxiTrips().Columns()
}

// TaxiRecord returns a well-formed trip for 1-based data row n. Values vary
// with n so rows can be told apart after a load.
func TaxiRecord(n int) []string {
	minute := n % 60
	return []string{
		strconv.Itoa(1 + n%2),
		fmt.Sprintf("2021-01-01 00:%02d:10", minute),
		fmt.Sprintf("2021-01-01 01:%02d:55", minute),
		"1",
		strconv.FormatFloat(float64(n)/10, 'f', 2, 64),
		"1", "N", "142", "43", "2",
		"8", "3", "0.5", "0", "0", "0.3", "11.8", "2.5",
	}
}

// TaxiCSV renders a header plus rows data rows. edit, when non-nil, may
// rewrite each record before it is written.
func TaxiCSV(rows int, edit func(n int, record []string)) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(TaxiHeader())
	for n := 1; n <= rows; n++ {
		rec := TaxiRecord(n)
		if edit != nil {
			edit(n, rec)
		}
		_ = w.Write(rec)
	}
	w.Flush()
	return buf.Bytes()
}

// WriteFile stores data under the test's temp dir and returns its path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// TableColumns lists a table's column names in ordinal order.
func TableColumns(t *testing.T, pool *pgxpool.Pool, table string) []string {
	t.Helper()

	rows, err := pool.Query(context.Background(), `
		SELECT a.attname
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1) AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`, table)
	if err != nil {
		t.Fatalf("Failed to list columns of %s: %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("Failed to scan column name: %v", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to list columns of %s: %v", table, err)
	}
	return cols
}

// CountRows returns count(*) for table; table is trusted test input.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int64 {
	t.Helper()

	var n int64
	if err := pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}
