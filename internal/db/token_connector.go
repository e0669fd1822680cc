package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/internal/retry"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// tokenExpiryWarning is the remaining lifetime below which a fresh token is
// reported as close to expiring.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector connects with a short-lived cloud token (AWS IAM,
// Azure Entra ID) in place of the password. A new token is requested on
// every attempt so retries never reuse an expired one.
type TokenBasedConnector struct {
	config        *pgingest.ConnectionConfig
	tokenProvider TokenProvider
	logger        pgingest.Logger
	retryExecutor *retry.Executor
	now           func() time.Time
}

func NewTokenBasedConnector(config *pgingest.ConnectionConfig, tokenProvider TokenProvider, logger pgingest.Logger) *TokenBasedConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if tokenProvider == nil {
		panic("tokenProvider cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		logger:        logger,
		retryExecutor: newConnectExecutor(logger),
		now:           time.Now,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return retry.Do(ctx, c.retryExecutor, func(ctx context.Context) (*pgxpool.Pool, error) {
		token, err := c.acquireToken(ctx)
		if err != nil {
			return nil, err
		}

		withToken := *c.config
		withToken.Password = token
		return openPool(ctx, &withToken, c.logger, nil)
	})
}

func (c *TokenBasedConnector) acquireToken(ctx context.Context) (string, error) {
	c.logger.Verbose("Requesting token from %s", c.tokenProvider)

	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to acquire token from %s: %w", pgingest.ErrConnectionFailed, c.tokenProvider, err)
	}

	if remaining := expiresOn.Sub(c.now()); remaining < tokenExpiryWarning {
		c.logger.Info("Warning: %s token expires in %v", c.tokenProvider, remaining.Round(time.Second))
	}
	return token, nil
}
