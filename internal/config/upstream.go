package config

import (
	"fmt"
	"time"
)

// UpstreamConfig holds HTTP client settings used when polling tenant
// upstream endpoints for version changes and downloading datasets.
type UpstreamConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" env:"UPSTREAM_REQUEST_TIMEOUT" default:"2m"`
	HeadTimeout    time.Duration `mapstructure:"head_timeout" env:"UPSTREAM_HEAD_TIMEOUT" default:"5s"`
	MaxRetries     int           `mapstructure:"max_retries" env:"UPSTREAM_MAX_RETRIES" default:"2"`
}

// Validate validates upstream configuration.
func (u *UpstreamConfig) Validate() error {
	if u.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if u.HeadTimeout <= 0 {
		return fmt.Errorf("head_timeout must be positive")
	}
	if u.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	return nil
}
