package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/adapter/auth"
	"github.com/marmos91/dwserve/pkg/adapter/update"
	"github.com/spf13/viper"
)

// Config represents the complete dwserve configuration.
//
// This structure captures all configurable aspects of the server:
//   - Logging configuration
//   - Server-wide settings (shutdown, metrics)
//   - The two served root directories
//   - Protocol adapter configurations (update file service, auth responder)
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DWSERVE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging logger.Config `mapstructure:"logging" yaml:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Roots locates the bootstrap and content directories
	Roots RootsConfig `mapstructure:"roots" yaml:"roots"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters" yaml:"adapters"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout bounds the Stop() calls of all adapters together
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// Metrics configures the optional Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`
}

// RootsConfig locates the served roots.
//
// Bootstrap and Content default to <base_dir>/bootstrap and
// <base_dir>/content when empty.
type RootsConfig struct {
	BaseDir   string `mapstructure:"base_dir" yaml:"base_dir" validate:"required"`
	Bootstrap string `mapstructure:"bootstrap" yaml:"bootstrap"`
	Content   string `mapstructure:"content" yaml:"content"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// Update is the HTTP file service for bootstrap and content files.
	Update update.Config `mapstructure:"update" yaml:"update"`

	// Auth is the legacy credential check responder.
	Auth auth.Config `mapstructure:"auth" yaml:"auth"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DWSERVE_ADAPTERS_UPDATE_PORT=8080
	v.SetEnvPrefix("DWSERVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Registering the keys lets AutomaticEnv override them even when the
	// file does not mention them. An explicit "enabled: false" still wins.
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.metrics.enabled", false)
	v.SetDefault("server.metrics.port", 9090)
	v.SetDefault("roots.base_dir", ".")
	v.SetDefault("roots.bootstrap", "")
	v.SetDefault("roots.content", "")
	v.SetDefault("adapters.update.enabled", true)
	v.SetDefault("adapters.update.host", "")
	v.SetDefault("adapters.update.port", 80)
	v.SetDefault("adapters.update.access_log", "")
	v.SetDefault("adapters.auth.enabled", true)
	v.SetDefault("adapters.auth.host", "")
	v.SetDefault("adapters.auth.port", 1337)
	v.SetDefault("adapters.auth.backend.type", auth.BackendAcceptAll)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dwserve/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicit path that does not exist is reported by the OS, not
		// as ConfigFileNotFoundError.
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dwserve")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dwserve")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
