package manager_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/internal/db/manager"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// mockDBConnection is a test double for pgingest.DBConnection
type mockDBConnection struct {
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgingest.Row
	copyFromFunc func(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)

	execSQL []string
}

func (m *mockDBConnection) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execSQL = append(m.execSQL, sql)
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *mockDBConnection) QueryRow(ctx context.Context, sql string, args ...any) pgingest.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockDBConnection) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error) {
	if m.copyFromFunc != nil {
		return m.copyFromFunc(ctx, table, columns, rows)
	}
	var n int64
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

// mockRow is a test double for pgingest.Row
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFunc != nil {
		return m.scanFunc(dest...)
	}
	return nil
}

func twoColumnSchema() pgingest.Schema {
	return pgingest.Schema{Fields: []pgingest.Field{
		{Name: "VendorID", Type: pgingest.FieldInt64},
		{Name: "fare amount", Type: pgingest.FieldFloat64},
	}}
}

func TestCreateTableSQL(t *testing.T) {
	ident, err := pgingest.ParseTableName("trips.yellow_taxi_data")
	require.NoError(t, err)

	sql, err := manager.CreateTableSQL(ident, twoColumnSchema())
	require.NoError(t, err)

	want := "CREATE TABLE \"trips\".\"yellow_taxi_data\" (\n" +
		"    \"VendorID\" BIGINT,\n" +
		"    \"fare amount\" DOUBLE PRECISION\n" +
		")"
	assert.Equal(t, want, sql)
}

func TestCreateTableSQL_QuotesHostileColumnNames(t *testing.T) {
	schema := pgingest.Schema{Fields: []pgingest.Field{
		{Name: `a"; DROP TABLE users; --`, Type: pgingest.FieldText},
	}}

	sql, err := manager.CreateTableSQL(pgx.Identifier{"t"}, schema)
	require.NoError(t, err)
	assert.Contains(t, sql, `"a""; DROP TABLE users; --" TEXT`)
}

func TestCreateTableSQL_InvalidSchema(t *testing.T) {
	_, err := manager.CreateTableSQL(pgx.Identifier{"t"}, pgingest.Schema{})
	assert.Error(t, err)
}

func TestReplaceTableSQL(t *testing.T) {
	sql, err := manager.ReplaceTableSQL(pgx.Identifier{"yellow_taxi_data"}, twoColumnSchema())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "DROP TABLE IF EXISTS \"yellow_taxi_data\";\nCREATE TABLE \"yellow_taxi_data\" ("))
	assert.True(t, strings.HasSuffix(sql, ");"))
	assert.NotContains(t, strings.ToLower(sql), "index")
}

func TestManager_DefineSchema_SingleStatement(t *testing.T) {
	conn := &mockDBConnection{}

	err := manager.New().DefineSchema(context.Background(), conn, "yellow_taxi_data", twoColumnSchema())
	require.NoError(t, err)

	require.Len(t, conn.execSQL, 1, "drop and create must travel together")
	assert.Contains(t, conn.execSQL[0], "DROP TABLE IF EXISTS")
	assert.Contains(t, conn.execSQL[0], "CREATE TABLE")
}

func TestManager_DefineSchema_ExecFailure(t *testing.T) {
	cause := errors.New("permission denied for schema public")
	conn := &mockDBConnection{
		execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, cause
		},
	}

	err := manager.New().DefineSchema(context.Background(), conn, "yellow_taxi_data", twoColumnSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, pgingest.ErrSinkWrite)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"yellow_taxi_data"`)
}

func TestManager_InvalidTableName(t *testing.T) {
	names := []string{
		"",
		"a.b.c",
		"1trips",
		"trips; DROP TABLE users",
		`my"table`,
		"my table",
		strings.Repeat("x", pgingest.MaxIdentifierLength+1),
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			conn := &mockDBConnection{}
			mgr := manager.New()

			err := mgr.DefineSchema(context.Background(), conn, name, twoColumnSchema())
			assert.ErrorIs(t, err, pgingest.ErrInvalidIdentifier)

			_, err = mgr.AppendBatch(context.Background(), conn, name, &pgingest.Batch{
				Columns: []string{"VendorID"},
				Rows:    [][]any{{int64(1)}},
			})
			assert.ErrorIs(t, err, pgingest.ErrInvalidIdentifier)

			_, err = mgr.Exists(context.Background(), conn, name)
			assert.ErrorIs(t, err, pgingest.ErrInvalidIdentifier)

			assert.Empty(t, conn.execSQL, "nothing may reach the server")
		})
	}
}

func TestManager_AppendBatch(t *testing.T) {
	var (
		gotTable   pgx.Identifier
		gotColumns []string
		gotRows    [][]any
	)
	conn := &mockDBConnection{
		copyFromFunc: func(_ context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error) {
			gotTable, gotColumns = table, columns
			for rows.Next() {
				vals, err := rows.Values()
				if err != nil {
					return 0, err
				}
				gotRows = append(gotRows, vals)
			}
			return int64(len(gotRows)), nil
		},
	}

	batch := &pgingest.Batch{
		Index:    2,
		FirstRow: 201,
		Columns:  []string{"VendorID", "fare amount"},
		Rows:     [][]any{{int64(1), 9.5}, {nil, 12.0}},
	}

	n, err := manager.New().AppendBatch(context.Background(), conn, "public.yellow_taxi_data", batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, pgx.Identifier{"public", "yellow_taxi_data"}, gotTable)
	assert.Equal(t, []string{"VendorID", "fare amount"}, gotColumns)
	assert.Equal(t, batch.Rows, gotRows)
}

func TestManager_AppendBatch_Empty(t *testing.T) {
	called := false
	conn := &mockDBConnection{
		copyFromFunc: func(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
			called = true
			return 0, nil
		},
	}

	n, err := manager.New().AppendBatch(context.Background(), conn, "t", &pgingest.Batch{Columns: []string{"a"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, called)
}

func TestManager_AppendBatch_CopyFailure(t *testing.T) {
	cause := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type bigint"}
	conn := &mockDBConnection{
		copyFromFunc: func(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
			return 0, cause
		},
	}

	_, err := manager.New().AppendBatch(context.Background(), conn, "t", &pgingest.Batch{
		Index:   4,
		Columns: []string{"a"},
		Rows:    [][]any{{"x"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pgingest.ErrSinkWrite)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "22P02", pgErr.Code)
	assert.Contains(t, err.Error(), "chunk 4")
}

func TestManager_AppendBatch_RowCountMismatch(t *testing.T) {
	conn := &mockDBConnection{
		copyFromFunc: func(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
			return 1, nil
		},
	}

	n, err := manager.New().AppendBatch(context.Background(), conn, "t", &pgingest.Batch{
		Columns: []string{"a"},
		Rows:    [][]any{{"x"}, {"y"}},
	})
	assert.Equal(t, int64(1), n)
	assert.ErrorIs(t, err, pgingest.ErrSinkWrite)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestManager_Exists(t *testing.T) {
	tests := []struct {
		name   string
		result bool
	}{
		{"present", true},
		{"absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotArg any
			conn := &mockDBConnection{
				queryRowFunc: func(_ context.Context, _ string, args ...any) pgingest.Row {
					gotArg = args[0]
					return &mockRow{scanFunc: func(dest ...any) error {
						*dest[0].(*bool) = tt.result
						return nil
					}}
				},
			}

			exists, err := manager.New().Exists(context.Background(), conn, "Trips")
			require.NoError(t, err)
			assert.Equal(t, tt.result, exists)
			assert.Equal(t, `"Trips"`, gotArg, "case must survive the regclass lookup")
		})
	}
}

func TestManager_Exists_QueryError(t *testing.T) {
	conn := &mockDBConnection{
		queryRowFunc: func(context.Context, string, ...any) pgingest.Row {
			return &mockRow{scanFunc: func(...any) error {
				return errors.New("connection reset")
			}}
		},
	}

	_, err := manager.New().Exists(context.Background(), conn, "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
