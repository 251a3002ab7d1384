package adapter

import (
	"context"
)

// Adapter represents a network service that can be managed by the server
// orchestrator.
//
// Each adapter implements one protocol surface (the update file service, the
// legacy auth responder) and provides a unified interface for lifecycle
// management. Adapters that serve files share one immutable fileserver.Roots
// value injected at construction.
//
// Lifecycle:
//  1. Creation: Adapter is created with its configuration and dependencies
//  2. Startup: Serve() starts the listener and blocks until shutdown
//  3. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. Stop() may be called
// concurrently with Serve().
type Adapter interface {
	// Serve starts the server and blocks until the context is cancelled
	// or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	//   - Stop accepting new connections
	//   - Wait for in-flight requests to complete (with timeout)
	//   - Force-close what is left
	//
	// If Serve returns before context cancellation, the orchestrator treats
	// it as a fatal error and stops all other adapters.
	//
	// Returns:
	//   - nil on graceful shutdown
	//   - error if startup fails or shutdown is not graceful
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown.
	//
	// Implementations must:
	//   - Be safe to call multiple times (idempotent)
	//   - Be safe to call concurrently with Serve()
	//   - Respect the context deadline, force-closing connections when it ends
	Stop(ctx context.Context) error

	// Protocol returns the human-readable adapter name for logging and metrics.
	//
	// Examples: "UPDATE", "AUTH"
	Protocol() string

	// Port returns the TCP port the adapter is listening on, or the
	// configured port before Serve binds it.
	Port() int
}
