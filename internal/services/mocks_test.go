package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

// closingConnector also implements io.Closer, like the Cloud SQL connector.
type closingConnector struct {
	mockConnector
	closed int
}

func (c *closingConnector) Close() error {
	c.closed++
	return nil
}

// mockReader hands out prepared batches, then io.EOF. A non-nil entry in
// errs at position i replaces batch i.
type mockReader struct {
	batches []*pgingest.Batch
	errs    map[int]error
	next    int
	closed  int
}

func (r *mockReader) Next(ctx context.Context) (*pgingest.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := r.next
	r.next++
	if err, ok := r.errs[i]; ok {
		return nil, err
	}
	if i >= len(r.batches) {
		return nil, io.EOF
	}
	return r.batches[i], nil
}

func (r *mockReader) Close() error {
	r.closed++
	return nil
}

type mockSource struct {
	reader  *mockReader
	openErr error
	opened  pgingest.SourceConfig
}

func (s *mockSource) Open(_ context.Context, cfg pgingest.SourceConfig) (pgingest.BatchReader, error) {
	s.opened = cfg
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.reader, nil
}

// mockTables records the calls made against the sink table.
type mockTables struct {
	mu        sync.Mutex
	calls     []string
	exists    bool
	defineErr error
	appendErr map[int]error
	appended  [][]any
}

func (m *mockTables) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockTables) Exists(_ context.Context, _ pgingest.DBConnection, table string) (bool, error) {
	m.record("exists " + table)
	return m.exists, nil
}

func (m *mockTables) DefineSchema(_ context.Context, _ pgingest.DBConnection, table string, schema pgingest.Schema) error {
	m.record(fmt.Sprintf("define %s (%s)", table, strings.Join(schema.Columns(), ",")))
	return m.defineErr
}

func (m *mockTables) AppendBatch(_ context.Context, _ pgingest.DBConnection, table string, batch *pgingest.Batch) (int64, error) {
	m.record(fmt.Sprintf("append %s #%d", table, batch.Index))
	if err, ok := m.appendErr[batch.Index]; ok {
		return 0, err
	}
	m.appended = append(m.appended, batch.Rows...)
	return int64(batch.Len()), nil
}

type nopConn struct{}

func (nopConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (nopConn) QueryRow(context.Context, string, ...any) pgingest.Row { return nil }

func (nopConn) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

// recordingObserver captures progress events as strings.
type recordingObserver struct {
	events []string
	final  *pgingest.Report
}

func (o *recordingObserver) Started(source, table string) {
	o.events = append(o.events, "started "+table)
}

func (o *recordingObserver) TableInitialized(table string, rows int64) {
	o.events = append(o.events, fmt.Sprintf("initialized %s %d", table, rows))
}

func (o *recordingObserver) ChunkAppended(index int, rows, total int64) {
	o.events = append(o.events, fmt.Sprintf("chunk %d %d %d", index, rows, total))
}

func (o *recordingObserver) Finished(report *pgingest.Report) {
	o.events = append(o.events, "finished "+report.State.String())
	o.final = report
}
