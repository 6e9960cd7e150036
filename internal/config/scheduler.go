package config

import (
	"fmt"
	"time"
)

// SchedulerConfig holds configuration for the sync scheduler and worker
// pool that executes triggered sync jobs.
type SchedulerConfig struct {
	// Enabled controls whether the scheduler's periodic tick is started.
	// The trigger API still accepts manual POST /api/sync requests when
	// disabled.
	Enabled bool `mapstructure:"enabled"`

	// PollInterval is how often the scheduler checks tenants for a
	// version change against the versions of their last successful sync
	// job.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// Workers is the number of concurrent sync worker goroutines pulling
	// off the dispatch queue.
	Workers int `mapstructure:"workers"`

	// VersionProbeTimeout is defaulted and validated but not read; the
	// upstream HEAD probe is bounded by UpstreamConfig.HeadTimeout.
	VersionProbeTimeout time.Duration `mapstructure:"version_probe_timeout"`

	// ShutdownTimeout is the maximum time to wait for in-flight jobs to
	// finish during graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxRetries is the number of failed worker runs of a job after which
	// the scheduler drops its id from the dispatch queue; the job's stored
	// status is left unchanged.
	MaxRetries int `mapstructure:"max_retries"`
}

// Validate checks the scheduler configuration.
func (s *SchedulerConfig) Validate() error {
	if s.Enabled {
		if s.PollInterval <= 0 {
			return fmt.Errorf("poll_interval must be positive")
		}
		if s.Workers <= 0 {
			return fmt.Errorf("workers must be positive")
		}
		if s.VersionProbeTimeout <= 0 {
			return fmt.Errorf("version_probe_timeout must be positive")
		}
		if s.ShutdownTimeout <= 0 {
			return fmt.Errorf("shutdown_timeout must be positive")
		}
		if s.MaxRetries < 0 {
			return fmt.Errorf("max_retries must be non-negative")
		}
	}
	return nil
}

// SetDefaults sets default values for scheduler configuration.
func (s *SchedulerConfig) SetDefaults() {
	if s.PollInterval == 0 {
		s.PollInterval = 30 * time.Second
	}
	if s.Workers == 0 {
		s.Workers = 3
	}
	if s.VersionProbeTimeout == 0 {
		s.VersionProbeTimeout = 5 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 30 * time.Second
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = 3
	}
}
