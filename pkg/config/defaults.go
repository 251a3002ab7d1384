package config

import (
	"strings"
	"time"

	"github.com/marmos91/dwserve/internal/httpserver"
	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/adapter/auth"
	"github.com/marmos91/dwserve/pkg/adapter/update"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "") are replaced with defaults
//   - Explicit values are preserved
//   - Enabled flags are not touched here: Load registers them as viper
//     defaults so an explicit false in the file survives
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyRootsDefaults(&cfg.Roots)
	applyAdaptersDefaults(&cfg.Adapters)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *logger.Config) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

func applyRootsDefaults(cfg *RootsConfig) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
}

// applyAdaptersDefaults delegates to each adapter's own defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	cfg.Update.ApplyDefaults()
	cfg.Auth.ApplyDefaults()
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Adapters: AdaptersConfig{
			Update: update.Config{
				Config: httpserver.Config{Enabled: true, Host: "0.0.0.0"},
			},
			Auth: auth.Config{
				Config: httpserver.Config{Enabled: true, Host: "0.0.0.0"},
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
