// Package metrics provides Prometheus metrics collection for dwserve.
//
// Metrics are optional. If the registry is never initialized, components use
// no-op implementations, so the file and auth services run the same way with
// or without a scrape endpoint.
//
// Usage:
//
//	// Initialize the global registry (typically in the start command)
//	metrics.InitRegistry()
//
//	// Create one collector and share it between adapters
//	httpMetrics := prometheus.NewHTTPMetrics()
//
//	// Or pass nil for no-op behavior
//	adapter := update.New(config, roots, nil, nil, logger)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is written once by InitRegistry and read many times.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// It must be called before creating any Prometheus-backed collector. Calling
// it more than once is harmless.
//
// The registry also carries the Go runtime and process collectors so the
// endpoint is useful even before any request has been served.
func InitRegistry() {
	registryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = reg
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
