// Package auth implements the AUTH adapter: the fixed-format authentication
// responder the legacy client posts its login to.
//
// The wire protocol is a single exchange. The body carries
// "<username>&&<password>" and the reply is one '#'-separated Record.
// Credentials are checked by a pluggable Authenticator.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marmos91/dwserve/internal/httpserver"
	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/metrics"
)

// Protocol is the adapter name used in logs.
const Protocol = "AUTH"

// Adapter implements adapter.Adapter for the auth responder.
type Adapter struct {
	config Config
	server *httpserver.Server
}

// New creates a stopped auth adapter.
//
// Zero values in config are replaced with defaults. authenticator is built
// by the caller from config.Backend; nil accepts every login.
//
// Panics if the configuration is invalid after defaults are applied.
func New(config Config, authenticator Authenticator, httpMetrics metrics.HTTPMetrics, log *slog.Logger) *Adapter {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid auth config: %v", err))
	}
	if config.MaxBodyBytes < 0 {
		panic(fmt.Sprintf("invalid auth config: max_body_bytes %d must be >= 0", config.MaxBodyBytes))
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("adapter", Protocol)

	handler := NewHandler(config.Endpoint, config.MaxBodyBytes, authenticator, httpMetrics, log)
	return &Adapter{
		config: config,
		server: httpserver.New(Protocol, config.Config, handler, log),
	}
}

// Serve starts the responder and blocks until ctx is cancelled.
func (a *Adapter) Serve(ctx context.Context) error {
	return a.server.Serve(ctx)
}

// Stop initiates graceful shutdown.
func (a *Adapter) Stop(ctx context.Context) error {
	return a.server.Stop(ctx)
}

// Protocol returns "AUTH".
func (a *Adapter) Protocol() string {
	return Protocol
}

// Port returns the bound port, or the configured one before Serve.
func (a *Adapter) Port() int {
	return a.server.Port()
}
