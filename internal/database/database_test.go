package database

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
)

// TestMetadataStoreIntegration exercises NewProvider against a live
// PostgreSQL instance. It only runs when INTEGRATION_TEST is set, since
// CI doesn't otherwise provision a database for it.
func TestMetadataStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("skipping integration test: INTEGRATION_TEST not set")
	}

	cfg := &config.DatabaseConfig{
		Provider:        "postgres",
		Host:            getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:            5432,
		User:            getEnvOrDefault("TEST_DB_USER", "postgres"),
		Password:        getEnvOrDefault("TEST_DB_PASSWORD", "postgres"),
		Database:        getEnvOrDefault("TEST_DB_DATABASE", "loansync_test"),
		SSLMode:         "disable",
		MaxConnections:  10,
		MinConnections:  2,
		ConnectTimeout:  10 * time.Second,
		MaxConnLifetime: 1 * time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("connects and reports a usable pool", func(t *testing.T) {
		db, err := NewProvider(ctx, cfg, logger)
		if err != nil {
			t.Fatalf("failed to connect to metadata store: %v", err)
		}
		defer db.Close()

		if db.Pool() == nil {
			t.Error("expected a connection pool but got nil")
		}
	})

	t.Run("health check succeeds", func(t *testing.T) {
		db, err := NewProvider(ctx, cfg, logger)
		if err != nil {
			t.Fatalf("failed to connect to metadata store: %v", err)
		}
		defer db.Close()

		if err := db.Health(ctx); err != nil {
			t.Errorf("health check failed: %v", err)
		}
	})

	t.Run("fails against an unreachable port", func(t *testing.T) {
		badCfg := *cfg
		badCfg.Port = 9999

		shortCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		_, err := NewProvider(shortCtx, &badCfg, logger)
		if err == nil {
			t.Error("expected connection to fail against an unreachable port")
		}
	})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
