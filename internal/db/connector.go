package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/internal/retry"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Pool settings. A run holds exactly one sink connection; every statement
// goes through it in sequence.
const (
	DefaultMaxConns        = 1
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 10 * time.Minute

	// DefaultApplicationName shows up in pg_stat_activity.
	DefaultApplicationName = "pgingest"
)

func configurePool(poolConfig *pgxpool.Config, logger pgingest.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime

	if poolConfig.ConnConfig.RuntimeParams["application_name"] == "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = DefaultApplicationName
	}

	// DROP TABLE IF EXISTS on a fresh database raises a NOTICE; keep it out of
	// normal output.
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("NOTICE: %s", notice.Message)
	}
}

// newConnectExecutor builds the retry executor shared by every connector.
func newConnectExecutor(logger pgingest.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(pgingest.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(pgingest.DefaultRetryInitialDelay),
		retry.WithMaxDelay(pgingest.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("Connection attempt %d failed, retrying in %v: %v", attempt+1, delay, err)
		})
}

// openPool parses config, opens a pool and pings it once. tune, when non-nil,
// adjusts the parsed pool config before the pool is created.
func openPool(ctx context.Context, config *pgingest.ConnectionConfig, logger pgingest.Logger, tune func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, logger)
	if tune != nil {
		tune(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// StandardConnector implements the Connector interface for standard
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *pgingest.ConnectionConfig
	logger        pgingest.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// Retry behavior uses the package defaults: DefaultRetryMaxAttempts attempts,
// exponential backoff starting at DefaultRetryInitialDelay, capped at DefaultRetryMaxDelay.
func NewStandardConnector(config *pgingest.ConnectionConfig, logger pgingest.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newConnectExecutor(logger),
	}
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := retry.Do(ctx, c.retryExecutor, func(ctx context.Context) (*pgxpool.Pool, error) {
		return openPool(ctx, c.config, c.logger, nil)
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *pgingest.ConnectionConfig, logger pgingest.Logger) (pgingest.Connector, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	switch config.AuthMethod {
	case pgingest.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case pgingest.AuthMethodAWSIAM:
		provider, err := NewAWSIAMTokenProvider(fmt.Sprintf("%s:%d", config.Host, config.Port), config.AWSRegion, config.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	case pgingest.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgingest.ErrInvalidConfig)
		}
		if config.Username == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username (-U): %w", pgingest.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(config, logger), nil
	case pgingest.AuthMethodAzureEntraID:
		provider, err := NewAzureTokenProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure token provider: %w", err)
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgingest.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result matches both pgingest.ErrConnectionFailed and err.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused to %s

Is PostgreSQL listening there? Check with: pg_isready -h %s -p %d

Original error: %w`, pgingest.ErrConnectionFailed, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`%w: cannot resolve host "%s"

Check the --host value or $PGHOST for typos.

Original error: %w`, pgingest.ErrConnectionFailed, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed for database "%s"

Check --user and --password (or $PGUSER and $PGPASSWORD).

Original error: %w`, pgingest.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`%w: database "%s" does not exist

pgingest creates tables, not databases. Create it first:
  createdb %s

Original error: %w`, pgingest.ErrConnectionFailed, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`%w: connection timed out to %s

The server did not answer in time. A firewall may be dropping packets.

Original error: %w`, pgingest.ErrConnectionFailed, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`%w: SSL/TLS connection error

Try a different --sslmode (disable, prefer, require, verify-full).

Original error: %w`, pgingest.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`%w: too many connections to database "%s"

The server's max_connections limit has been reached.

Original error: %w`, pgingest.ErrConnectionFailed, database, err)

	default:
		return fmt.Errorf("%w: failed to connect to database: %w", pgingest.ErrConnectionFailed, err)
	}
}
