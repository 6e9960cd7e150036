package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		format  string
		level   string
		wantErr bool
	}{
		{
			name:   "development mode with info level",
			format: "development",
			level:  "info",
		},
		{
			name:   "production mode with warn level",
			format: "production",
			level:  "warn",
		},
		{
			name:    "invalid format",
			format:  "invalid",
			level:   "info",
			wantErr: true,
		},
		{
			name:    "invalid level",
			format:  "development",
			level:   "invalid",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.format, tc.level)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Error("expected logger but got nil")
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	base, err := New("development", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	scoped := WithComponent(base, "scheduler")
	if scoped == nil {
		t.Fatal("expected scoped logger but got nil")
	}
	if scoped == base {
		t.Error("expected a new logger instance, not the same one")
	}
}

func TestWithTenant(t *testing.T) {
	base, err := New("development", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	scoped := WithTenant(base, "acme")
	if scoped == nil {
		t.Fatal("expected scoped logger but got nil")
	}
	if scoped == base {
		t.Error("expected a new logger instance, not the same one")
	}
}

func TestWith(t *testing.T) {
	base, err := New("development", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	field := zap.String("key", "value")
	child := With(base, field)

	if child == nil {
		t.Fatal("expected child logger but got nil")
	}
	if child == base {
		t.Error("expected a new logger instance, not the same one")
	}
}

func TestLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := New("production", level)
			if err != nil {
				t.Fatalf("failed to create logger with level %s: %v", level, err)
			}

			expected, _ := zapcore.ParseLevel(level)
			if !logger.Core().Enabled(expected) {
				t.Errorf("logger with level %s should be enabled for %s level", level, level)
			}
		})
	}
}

func TestRequestAndCorrelationID(t *testing.T) {
	base, err := New("development", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	ctx := WithContext(t.Context(), base)

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCorrelationID(ctx, "corr-1")

	scoped := FromContext(ctx)
	if scoped == base {
		t.Error("expected request/correlation scoping to produce a new logger instance")
	}
}

func TestFromContext_NoLoggerReturnsNop(t *testing.T) {
	logger := FromContext(t.Context())
	if logger == nil {
		t.Fatal("expected a no-op logger, got nil")
	}
}
