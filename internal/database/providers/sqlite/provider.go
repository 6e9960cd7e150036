package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
)

// Provider backs the metadata store with a local SQLite database, for
// running the server and CLI without a PostgreSQL instance.
type Provider struct {
	db     *sqlx.DB
	logger *zap.Logger
	path   string
}

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = time.Hour
	pingTimeout     = 5 * time.Second
)

// New opens the SQLite metadata database at cfg.SQLite.Path, creating
// the parent directory for file-based paths and applying the configured
// pragmas.
func New(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*Provider, error) {
	log = log.With(zap.String("component", "metadata-db-sqlite"))

	sqliteCfg := cfg.SQLite
	path, err := resolvePath(sqliteCfg.Path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file::memory:") {
		log.Info("initializing in-memory SQLite database")
	} else {
		log.Info("initializing file-based SQLite database", zap.String("path", path))
		if !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	dbx := sqlx.NewDb(db, "sqlite")
	dbx.SetMaxOpenConns(maxOpenConns)
	dbx.SetMaxIdleConns(maxIdleConns)
	dbx.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := dbx.PingContext(pingCtx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	provider := &Provider{db: dbx, logger: log, path: path}

	if err := provider.applyPragmas(ctx, sqliteCfg); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	log.Info("SQLite database initialized successfully")
	return provider, nil
}

// resolvePath returns path unchanged for in-memory and already-qualified
// "file:" DSNs, and resolves everything else to an absolute path so the
// database location doesn't depend on the process's working directory.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return path, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return absPath, nil
}

// applyPragmas sets the pragmas loansync relies on (WAL mode, foreign
// keys, busy timeout) and then any operator-supplied overrides.
func (p *Provider) applyPragmas(ctx context.Context, cfg config.SQLiteConfig) error {
	defaultPragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
		fmt.Sprintf("PRAGMA busy_timeout=%d", int(cfg.BusyTimeout.Milliseconds())),
	}

	for _, pragma := range defaultPragmas {
		p.logger.Debug("applying pragma", zap.String("pragma", pragma))
		if _, err := p.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %s: %w", pragma, err)
		}
	}

	for _, pragma := range cfg.Pragmas {
		p.logger.Debug("applying custom pragma", zap.String("pragma", pragma))
		if _, err := p.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to apply custom pragma %s: %w", pragma, err)
		}
	}

	var journalMode string
	if err := p.db.GetContext(ctx, &journalMode, "PRAGMA journal_mode"); err == nil {
		p.logger.Info("SQLite journal mode", zap.String("mode", journalMode))
	}

	return nil
}

// Pool returns the underlying *sqlx.DB.
func (p *Provider) Pool() interface{} {
	return p.db
}

// Health runs a trivial query to confirm the database is reachable.
func (p *Provider) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var result int
	if err := p.db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (p *Provider) Close() {
	p.logger.Info("closing SQLite connections")
	if err := p.db.Close(); err != nil {
		p.logger.Error("error closing SQLite database", zap.Error(err))
	} else {
		p.logger.Info("SQLite connections closed")
	}
}
