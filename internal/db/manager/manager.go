package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

const queryTableExists = "SELECT to_regclass($1) IS NOT NULL"

// Manager implements the sink table operations over a DBConnection.
// Stateless and safe for concurrent use; thread safety depends on the injected DBConnection.
type Manager struct{}

func New() *Manager {
	return &Manager{}
}

// Exists checks if a table exists. Unqualified names resolve through the
// session search_path.
func (m *Manager) Exists(ctx context.Context, conn pgingest.DBConnection, table string) (bool, error) {
	ident, err := pgingest.ParseTableName(table)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := conn.QueryRow(ctx, queryTableExists, ident.Sanitize()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// DefineSchema drops table if present and creates it empty with one column per
// schema field. Both statements travel in a single simple-protocol Exec, which
// the server runs as one implicit transaction: either the new table exists or
// the old one is untouched.
func (m *Manager) DefineSchema(ctx context.Context, conn pgingest.DBConnection, table string, schema pgingest.Schema) error {
	ident, err := pgingest.ParseTableName(table)
	if err != nil {
		return err
	}

	ddl, err := ReplaceTableSQL(ident, schema)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to define table %s: %w: %w", ident.Sanitize(), pgingest.ErrSinkWrite, err)
	}
	return nil
}

// AppendBatch copies batch into table with COPY FROM STDIN. A COPY is one
// statement, so the batch lands whole or not at all.
func (m *Manager) AppendBatch(ctx context.Context, conn pgingest.DBConnection, table string, batch *pgingest.Batch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	ident, err := pgingest.ParseTableName(table)
	if err != nil {
		return 0, err
	}

	n, err := conn.CopyFrom(ctx, ident, batch.Columns, pgx.CopyFromRows(batch.Rows))
	if err != nil {
		return n, fmt.Errorf("failed to copy chunk %d into %s: %w: %w", batch.Index, ident.Sanitize(), pgingest.ErrSinkWrite, err)
	}
	if n != int64(batch.Len()) {
		return n, fmt.Errorf("chunk %d: server accepted %d of %d rows: %w", batch.Index, n, batch.Len(), pgingest.ErrSinkWrite)
	}
	return n, nil
}

// CreateTableSQL renders the CREATE TABLE statement for schema. Column order
// follows schema order; there is no index or surrogate key column.
func CreateTableSQL(ident pgx.Identifier, schema pgingest.Schema) (string, error) {
	if err := schema.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", ident.Sanitize())
	for i, f := range schema.Fields {
		fmt.Fprintf(&b, "    %s %s", pgx.Identifier{f.Name}.Sanitize(), f.Type.SQLType())
		if i < len(schema.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String(), nil
}

// ReplaceTableSQL is DROP TABLE IF EXISTS followed by CreateTableSQL.
func ReplaceTableSQL(ident pgx.Identifier, schema pgingest.Schema) (string, error) {
	create, err := CreateTableSQL(ident, schema)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;\n%s;", ident.Sanitize(), create), nil
}

var _ pgingest.TableManager = (*Manager)(nil)
