package update

import (
	"time"

	"github.com/marmos91/dwserve/internal/httpserver"
)

// Config holds configuration parameters for the update file service.
//
// Default values (applied by New if zero):
//   - Port: 80 (the legacy client cannot be pointed elsewhere)
//   - ReadTimeout: 30s
//   - WriteTimeout: 5m (content archives are large)
//   - IdleTimeout: 2m
//   - ShutdownTimeout: 30s
type Config struct {
	httpserver.Config `mapstructure:",squash" yaml:",inline"`

	// AccessLog is an optional file receiving one Apache combined-format
	// line per request, next to the structured log. Empty disables it.
	AccessLog string `mapstructure:"access_log" yaml:"access_log"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	// Enabled defaults are handled in pkg/config so an explicit false from
	// the config file survives.

	if c.Port == 0 {
		c.Port = 80
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}
