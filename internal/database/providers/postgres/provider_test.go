package postgres

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
)

func unreachablePostgresConfig(connectTimeout time.Duration) *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Provider:        "postgres",
		Host:            "localhost",
		Port:            9999,
		User:            "loansync",
		Password:        "loansync",
		Database:        "loansync_metadata",
		SSLMode:         "disable",
		MaxConnections:  2,
		MinConnections:  1,
		ConnectTimeout:  connectTimeout,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

func TestNew_UnreachableHostFailsWithoutHanging(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	start := time.Now()
	_, err := New(ctx, unreachablePostgresConfig(1*time.Second), logger)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected an error connecting to a port nothing listens on")
	}
	// Each attempt is cut off by the 1s ConnectTimeout, and the waits
	// between attempts double from initialBackoff (1s+2s+4s+8s).
	maxElapsed := connectRetries*1*time.Second + (1<<(connectRetries-1)-1)*initialBackoff
	if elapsed > maxElapsed {
		t.Fatalf("New took %s, want it bounded by the retry/backoff schedule", elapsed)
	}
}

func TestConnectOnce_RespectsCallerTimeoutNotConnConfig(t *testing.T) {
	cfg := unreachablePostgresConfig(50 * time.Millisecond)

	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		t.Fatalf("buildPoolConfig: %v", err)
	}

	start := time.Now()
	_, err = connectOnce(context.Background(), poolConfig, cfg.ConnectTimeout)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected connectOnce to fail against an unreachable host")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("connectOnce took %s, want it bounded by the caller-supplied ConnectTimeout, not a DSN-level default", elapsed)
	}
}
