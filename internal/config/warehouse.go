package config

import (
	"fmt"
	"time"
)

// WarehouseConfig holds connection settings for the columnar warehouse that
// receives normalized loan and payment records.
type WarehouseConfig struct {
	Addr         string        `mapstructure:"addr" env:"WAREHOUSE_ADDR"`
	Database     string        `mapstructure:"database" env:"WAREHOUSE_DATABASE"`
	Username     string        `mapstructure:"username" env:"WAREHOUSE_USERNAME" default:"default"`
	Password     string        `mapstructure:"password" env:"WAREHOUSE_PASSWORD"`
	Protocol     string        `mapstructure:"protocol" env:"WAREHOUSE_PROTOCOL" default:"native"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" env:"WAREHOUSE_DIAL_TIMEOUT" default:"5s"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" env:"WAREHOUSE_QUERY_TIMEOUT" default:"5m"`
}

// Validate validates warehouse configuration.
func (w *WarehouseConfig) Validate() error {
	if w.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if w.Database == "" {
		return fmt.Errorf("database is required")
	}
	switch w.Protocol {
	case "native", "http":
	default:
		return fmt.Errorf("invalid protocol: %s (must be native or http)", w.Protocol)
	}
	if w.DialTimeout < 0 {
		return fmt.Errorf("dial timeout must be non-negative")
	}
	if w.QueryTimeout < 0 {
		return fmt.Errorf("query timeout must be non-negative")
	}
	return nil
}
