package auth

import (
	"time"

	"github.com/marmos91/dwserve/internal/httpserver"
)

// Config holds configuration parameters for the auth responder.
//
// Default values (applied by New if zero):
//   - Port: 1337
//   - Endpoint: /remauth.php
//   - MaxBodyBytes: 4096
//   - ReadTimeout: 30s
//   - WriteTimeout: 30s
//   - IdleTimeout: 5m (the client is told keep-alive timeout=300)
//   - ShutdownTimeout: 30s
//   - Backend.Type: accept_all
type Config struct {
	httpserver.Config `mapstructure:",squash" yaml:",inline"`

	// Endpoint is matched as a suffix of the POST path, so both
	// "/remauth.php" and "/iw4/remauth.php" are accepted.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" validate:"required,startswith=/"`

	// MaxBodyBytes caps the request body. Larger bodies get the server
	// error reply.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"min=0"`

	// Backend selects how credentials are checked.
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
}

// BackendConfig selects and configures the Authenticator.
type BackendConfig struct {
	// Type is "accept_all" or "static".
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=accept_all static"`

	// Static holds the static backend options, decoded into StaticConfig
	// when Type is "static".
	Static map[string]any `mapstructure:"static" yaml:"static,omitempty"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 1337
	}
	if c.Endpoint == "" {
		c.Endpoint = "/remauth.php"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 4096
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 5 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.Backend.Type == "" {
		c.Backend.Type = BackendAcceptAll
	}
}
