package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dwserve/internal/httpserver"
	"github.com/marmos91/dwserve/pkg/adapter/auth"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if !cfg.Adapters.Update.Enabled && !cfg.Adapters.Auth.Enabled {
		return fmt.Errorf("adapters: at least one adapter must be enabled")
	}

	if err := validateListenAddresses(cfg); err != nil {
		return err
	}

	if cfg.Adapters.Auth.Enabled && cfg.Adapters.Auth.Backend.Type == auth.BackendStatic {
		if _, err := decodeStaticConfig(cfg.Adapters.Auth.Backend.Static); err != nil {
			return fmt.Errorf("adapters.auth.backend.static: %w", err)
		}
	}

	return nil
}

// listener is one enabled listen address, for conflict checks.
type listener struct {
	name string
	host string
	port int
}

// validateListenAddresses rejects two enabled listeners that would bind the
// same port on overlapping interfaces. Port 0 never conflicts.
func validateListenAddresses(cfg *Config) error {
	var listeners []listener
	add := func(name string, c httpserver.Config) {
		if c.Enabled {
			listeners = append(listeners, listener{name: name, host: c.Host, port: c.Port})
		}
	}
	add("adapters.update", cfg.Adapters.Update.Config)
	add("adapters.auth", cfg.Adapters.Auth.Config)
	if cfg.Server.Metrics.Enabled {
		// The metrics server binds all interfaces.
		listeners = append(listeners, listener{name: "server.metrics", port: cfg.Server.Metrics.Port})
	}

	for i := range listeners {
		for j := i + 1; j < len(listeners); j++ {
			a, b := listeners[i], listeners[j]
			if a.port == 0 || a.port != b.port || !hostsOverlap(a.host, b.host) {
				continue
			}
			return fmt.Errorf("%s and %s both listen on port %d", a.name, b.name, a.port)
		}
	}
	return nil
}

func hostsOverlap(a, b string) bool {
	return a == b || isWildcard(a) || isWildcard(b)
}

func isWildcard(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
