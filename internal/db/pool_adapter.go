package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// PoolAdapter exposes a *pgxpool.Pool as a pgingest.DBConnection.
// Safe for concurrent use.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &PoolAdapter{pool: pool}
}

func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgingest.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// CopyFrom runs on whichever pooled connection is free; COPY is a single
// statement, so each call commits or fails as a unit.
func (p *PoolAdapter) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error) {
	return p.pool.CopyFrom(ctx, table, columns, rows)
}

var _ pgingest.DBConnection = (*PoolAdapter)(nil)
