package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/adapter"
)

// DefaultStopTimeout bounds the Stop() calls issued during shutdown when the
// caller does not configure one.
const DefaultStopTimeout = 30 * time.Second

// Server manages the lifecycle of the network adapters (the update file
// service and the auth responder).
//
// Lifecycle:
//  1. Creation: New()
//  2. Registration: AddAdapter() for each enabled adapter
//  3. Startup: Serve() starts all adapters concurrently
//  4. Shutdown: Context cancellation or an adapter failure stops all adapters
//     in reverse registration order
//
// Example usage:
//
//	srv := server.New(log, 30*time.Second)
//	_ = srv.AddAdapter(update.New(updateCfg, roots, m, nil, log))
//	_ = srv.AddAdapter(auth.New(authCfg, authenticator, m, log))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    return err
//	}
type Server struct {
	logger      *slog.Logger
	stopTimeout time.Duration

	// mu protects adapters and served.
	mu       sync.RWMutex
	adapters []adapter.Adapter
	served   bool
}

// New creates a Server. A stopTimeout <= 0 uses DefaultStopTimeout.
func New(log *slog.Logger, stopTimeout time.Duration) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	return &Server{
		logger:      log,
		stopTimeout: stopTimeout,
		adapters:    make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers an adapter to be started by Serve.
//
// Returns an error if an adapter with the same protocol or the same non-zero
// port is already registered, or if Serve has already been called.
//
// Panics if a is nil (programmer error).
func (s *Server) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return fmt.Errorf("cannot add %s adapter after Serve() has been called", a.Protocol())
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}

	s.adapters = append(s.adapters, a)
	s.logger.Info("Registered adapter", "protocol", protocol, "port", port)
	return nil
}

// Serve starts all registered adapters and blocks until the context is
// cancelled or an adapter fails.
//
// Returns:
//   - ctx.Err() if shutdown was triggered by context cancellation
//   - the failing adapter's error (wrapped) if an adapter stopped on its own
//   - an error if no adapter is registered or Serve was already called
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return errors.New("server is already serving or has served")
	}
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return errors.New("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	s.logger.Info("Starting server", "adapters", len(adapters))

	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup
	for _, a := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			s.logger.Info("Starting adapter", "protocol", protocol, "port", a.Port())

			err := a.Serve(ctx)
			if ctx.Err() != nil {
				// Errors during a requested shutdown (e.g. forced closes) are
				// already logged by the adapter.
				s.logger.Info("Adapter stopped", "protocol", protocol, "error", err)
				return
			}
			if err == nil {
				err = errors.New("stopped unexpectedly")
			}
			// Buffered: after a first failure nobody reads the rest.
			errChan <- adapterError{protocol: protocol, err: err}
		}(a)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received", "reason", context.Cause(ctx))
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		s.logger.Error("Adapter failed, shutting down all adapters",
			"protocol", adapterErr.protocol, "error", adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	wg.Wait()
	s.logger.Info("Server stopped")

	return shutdownErr
}

// adapterError pairs an adapter protocol name with its error.
type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters stops adapters in reverse registration order, sharing one
// stopTimeout budget. Errors are logged and do not interrupt the sequence.
func (s *Server) stopAllAdapters(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	s.logger.Info("Initiating graceful shutdown", "adapters", len(adapters), "timeout", s.stopTimeout)

	for i := len(adapters) - 1; i >= 0; i-- {
		a := adapters[i]
		if err := a.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Error stopping adapter", "protocol", a.Protocol(), "error", err)
		} else {
			s.logger.Debug("Adapter stop complete", "protocol", a.Protocol())
		}
	}
}

// Adapters returns a snapshot of the registered adapters.
func (s *Server) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
