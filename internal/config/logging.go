package config

import "fmt"

// LogConfig configures the zap logger used across the server and
// scheduler.
type LogConfig struct {
	Level  string `mapstructure:"level" env:"LOG_LEVEL" default:"info"`
	Format string `mapstructure:"format" env:"LOG_FORMAT" default:"development"`
}

// Validate rejects level/format combinations logger.New would reject.
func (l *LogConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}

	switch l.Format {
	case "development", "production":
	default:
		return fmt.Errorf("invalid log format: %s (must be development or production)", l.Format)
	}

	return nil
}
