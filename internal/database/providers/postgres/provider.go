package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
)

// Provider backs the metadata store (tenants, sync jobs) with a pgxpool
// connection pool.
type Provider struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

const (
	connectRetries    = 5
	initialBackoff    = 1 * time.Second
	healthCheckPeriod = 1 * time.Minute
	pingTimeout       = 5 * time.Second
)

// New opens the metadata database pool, retrying with exponential
// backoff if the database isn't reachable yet (common on first boot
// alongside a container-managed Postgres).
func New(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*Provider, error) {
	log = log.With(zap.String("component", "metadata-db-postgres"))

	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= connectRetries; attempt++ {
		log.Info("attempting database connection",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", connectRetries),
		)

		pool, err := connectOnce(ctx, poolConfig, cfg.ConnectTimeout)
		if err == nil {
			log.Info("database connection established",
				zap.String("host", cfg.Host),
				zap.Int("port", cfg.Port),
				zap.String("database", cfg.Database),
			)
			return &Provider{pool: pool, logger: log}, nil
		}
		lastErr = err

		log.Warn("database connection failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff),
		)

		if attempt == connectRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during connection retry: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectRetries, lastErr)
}

// buildPoolConfig translates a DatabaseConfig into the pgxpool.Config
// New connects with, so the connection-string parsing and pool-sizing
// rules live in one place that connectOnce and its tests can both reach.
func buildPoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	return poolConfig, nil
}

func connectOnce(ctx context.Context, poolConfig *pgxpool.Config, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(connectCtx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Pool returns the underlying *pgxpool.Pool.
func (p *Provider) Pool() interface{} {
	return p.pool
}

// Health pings the pool with a bounded timeout.
func (p *Provider) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close releases every connection in the pool.
func (p *Provider) Close() {
	p.logger.Info("closing PostgreSQL connections")
	p.pool.Close()
	p.logger.Info("PostgreSQL connections closed")
}
