// Package update implements the UPDATE adapter: the HTTP file service the
// legacy client polls for bootstrap files and downloads content from.
package update

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/marmos91/dwserve/internal/httpserver"
	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/fileserver"
	"github.com/marmos91/dwserve/pkg/metrics"
)

// Protocol is the adapter name used in logs.
const Protocol = "UPDATE"

// Adapter implements adapter.Adapter for the update file service.
type Adapter struct {
	config Config
	server *httpserver.Server
}

// New creates a stopped update adapter serving roots.
//
// Zero values in config are replaced with defaults. accessLog, when non-nil,
// receives the Apache combined access log; the caller owns it. A nil
// httpMetrics disables metrics collection.
//
// Panics if the configuration is invalid after defaults are applied.
func New(config Config, roots *fileserver.Roots, httpMetrics metrics.HTTPMetrics, accessLog io.Writer, log *slog.Logger) *Adapter {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid update config: %v", err))
	}
	if roots == nil {
		panic("update adapter requires served roots")
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("adapter", Protocol)

	handler := NewHandler(roots, httpMetrics, log)
	return &Adapter{
		config: config,
		server: httpserver.New(Protocol, config.Config, handler, log, httpserver.WithAccessLog(accessLog)),
	}
}

// Serve starts the file service and blocks until ctx is cancelled.
func (a *Adapter) Serve(ctx context.Context) error {
	return a.server.Serve(ctx)
}

// Stop initiates graceful shutdown.
func (a *Adapter) Stop(ctx context.Context) error {
	return a.server.Stop(ctx)
}

// Protocol returns "UPDATE".
func (a *Adapter) Protocol() string {
	return Protocol
}

// Port returns the bound port, or the configured one before Serve.
func (a *Adapter) Port() int {
	return a.server.Port()
}
