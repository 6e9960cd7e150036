package config

import (
	"fmt"
	"time"
)

// DatabaseConfig configures the metadata store (tenants, sync jobs).
// Provider selects between the PostgreSQL and SQLite backends; the
// fields below it apply only to the selected one.
type DatabaseConfig struct {
	Provider string `mapstructure:"provider" env:"DB_PROVIDER" default:"postgres"`

	Host            string        `mapstructure:"host" env:"DB_HOST" default:"localhost"`
	Port            int           `mapstructure:"port" env:"DB_PORT" default:"5432"`
	User            string        `mapstructure:"user" env:"DB_USER"`
	Password        string        `mapstructure:"password" env:"DB_PASSWORD"`
	Database        string        `mapstructure:"database" env:"DB_DATABASE"`
	SSLMode         string        `mapstructure:"ssl_mode" env:"DB_SSLMODE" default:"prefer"`
	MaxConnections  int32         `mapstructure:"max_connections" env:"DB_MAX_CONNECTIONS" default:"25"`
	MinConnections  int32         `mapstructure:"min_connections" env:"DB_MIN_CONNECTIONS" default:"5"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" env:"DB_CONNECT_TIMEOUT" default:"10s"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig configures the SQLite metadata store backend.
type SQLiteConfig struct {
	Path        string        `mapstructure:"path" env:"DB_SQLITE_PATH" default:"loansync.db"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout" env:"DB_SQLITE_BUSY_TIMEOUT" default:"5s"`
	Pragmas     []string      `mapstructure:"pragmas" env:"DB_SQLITE_PRAGMAS"`
}

var validDatabaseProviders = map[string]bool{
	"postgres":   true,
	"postgresql": true,
	"sqlite":     true,
}

// Validate checks the provider-independent fields, then delegates to the
// provider-specific validator.
func (d *DatabaseConfig) Validate() error {
	if !validDatabaseProviders[d.Provider] {
		return fmt.Errorf("invalid provider: %s (supported: postgres, sqlite)", d.Provider)
	}

	switch d.Provider {
	case "postgres", "postgresql":
		return d.validatePostgres()
	case "sqlite":
		return d.SQLite.Validate()
	}
	return nil
}

func (d *DatabaseConfig) validatePostgres() error {
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", d.Port)
	}
	if d.MaxConnections < 1 {
		return fmt.Errorf("max connections must be at least 1")
	}
	if d.MinConnections < 0 {
		return fmt.Errorf("min connections must be non-negative")
	}
	if d.MinConnections > d.MaxConnections {
		return fmt.Errorf("min connections (%d) cannot exceed max connections (%d)", d.MinConnections, d.MaxConnections)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"allow":       true,
		"prefer":      true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[d.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s", d.SSLMode)
	}
	return nil
}

// Validate rejects a SQLite configuration that New would fail to open.
func (s *SQLiteConfig) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("SQLite path cannot be empty")
	}
	if s.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must be non-negative")
	}
	return nil
}

// ConnectionString returns a PostgreSQL libpq-style DSN.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// MigrationConnectionString returns the connection string golang-migrate
// expects for the selected provider.
func (d *DatabaseConfig) MigrationConnectionString() string {
	switch d.Provider {
	case "postgres", "postgresql":
		return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
			d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
	case "sqlite":
		return fmt.Sprintf("sqlite3://%s", d.SQLite.Path)
	default:
		return ""
	}
}
