package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const loggerKey contextKey = "logger"

// New builds a zap.Logger for the given format ("development" or
// "production") and level.
func New(format string, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch format {
	case "development":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "production":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	built, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return built, nil
}

// With returns a child logger carrying the given fields.
func With(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// WithComponent scopes a logger to a named component, e.g. "scheduler" or
// "warehouse".
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	return logger.With(zap.String("component", component))
}

// WithTenant scopes a logger to a tenant slug, so every log line emitted
// while handling that tenant's request or job can be filtered together.
func WithTenant(logger *zap.Logger, slug string) *zap.Logger {
	return logger.With(zap.String("tenant", slug))
}

// WithContext attaches a logger to a context for later retrieval.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext pulls the logger out of a context, falling back to a no-op
// logger when none was attached.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID returns a context whose logger carries the given request
// ID field.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := FromContext(ctx).With(zap.String("request_id", requestID))
	return WithContext(ctx, logger)
}

// WithCorrelationID returns a context whose logger carries the given
// correlation ID field.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	logger := FromContext(ctx).With(zap.String("correlation_id", correlationID))
	return WithContext(ctx, logger)
}
