package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/database/providers/postgres"
	"github.com/jaxxstorm/loansync/internal/database/providers/sqlite"
)

// NewProvider opens the metadata store for whichever backend cfg.Provider
// names, so callers never import a concrete postgres/sqlite package
// directly.
func NewProvider(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (Provider, error) {
	log = log.With(zap.String("component", "database-factory"))

	switch cfg.Provider {
	case "postgres", "postgresql":
		log.Info("initializing PostgreSQL metadata store")
		return postgres.New(ctx, cfg, log)
	case "sqlite":
		log.Info("initializing SQLite metadata store")
		return sqlite.New(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown database provider: %s (supported: postgres, sqlite)", cfg.Provider)
	}
}
