package db

import (
	"context"
	"fmt"
	"net"
	"sync"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// GoogleCloudSQLConnector connects to Cloud SQL for PostgreSQL with IAM
// database authentication through the Cloud SQL Go connector, which owns TLS
// and token refresh.
//
// It implements io.Closer. Close must run after the pool from Connect is
// closed.
type GoogleCloudSQLConnector struct {
	config *pgingest.ConnectionConfig
	logger pgingest.Logger

	mu     sync.Mutex
	dialer *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector uses config.GoogleInstance (project:region:instance)
// as the dial target.
func NewGoogleCloudSQLConnector(config *pgingest.ConnectionConfig, logger pgingest.Logger) *GoogleCloudSQLConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &GoogleCloudSQLConnector{config: config, logger: logger}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Cloud SQL dialer: %w", pgingest.ErrConnectionFailed, err)
	}

	instance := c.config.GoogleInstance
	c.logger.Verbose("Dialing Cloud SQL instance %s as %s", instance, c.config.Username)

	// The dialer does TLS itself; the libpq-level connection stays plain and
	// the host is a placeholder the dial func ignores.
	target := pgingest.ConnectionConfig{
		Host:     DefaultHost,
		Port:     5432,
		Database: c.config.Database,
		Username: c.config.Username,
		SSLMode:  "disable",
		AppName:  c.config.AppName,
	}

	pool, err := openPool(ctx, &target, c.logger, func(poolConfig *pgxpool.Config) {
		poolConfig.ConnConfig.LookupFunc = func(_ context.Context, host string) ([]string, error) {
			return []string{host}, nil
		}
		poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.mu.Lock()
	c.dialer = dialer
	c.mu.Unlock()
	return pool, nil
}

// Close releases the Cloud SQL dialer. Safe to call more than once.
func (c *GoogleCloudSQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
