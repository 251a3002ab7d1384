// Package httpserver runs one HTTP listener with the lifecycle shared by the
// update and auth adapters.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections), idle keep-alive connections closed
//  3. Wait for in-flight requests to complete (up to ShutdownTimeout)
//  4. Force-close any remaining connections after timeout
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
)

// Config holds the listener settings common to every HTTP adapter.
//
// Adapters embed it with `mapstructure:",squash"` so the fields sit directly
// under the adapter's section in the config file, and apply their own
// defaults before calling New.
type Config struct {
	// Enabled controls whether the adapter is started.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host is the interface address to bind. Empty binds all interfaces.
	Host string `mapstructure:"host" yaml:"host" validate:"omitempty,ip|hostname"`

	// Port is the TCP port to listen on. 0 picks a free port.
	Port int `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`

	// ReadTimeout bounds reading a complete request including the body.
	// 0 means no timeout.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`

	// WriteTimeout bounds writing the response. Large content files on slow
	// links need a generous value. 0 means no timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`

	// IdleTimeout closes keep-alive connections idle for longer than this.
	// 0 means no timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout is how long in-flight requests may run after shutdown
	// starts. Remaining connections are then force-closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the values New relies on.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout %v: must be >= 0", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout %v: must be >= 0", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid IdleTimeout %v: must be >= 0", c.IdleTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// Option customizes a Server.
type Option func(*Server)

// WithAccessLog writes an Apache combined-format line per request to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		if w != nil {
			s.accessLog = w
		}
	}
}

// Server is a single HTTP listener with graceful drain and forced close.
//
// All methods are safe for concurrent use. Serve should be called once.
type Server struct {
	name   string
	config Config
	logger *slog.Logger

	srv       *http.Server
	accessLog io.Writer

	listener   net.Listener
	listenerMu sync.Mutex

	// shutdown is closed by initiateShutdown; drained is closed once the
	// drain finished, with its result in shutdownErr.
	shutdownOnce sync.Once
	shutdown     chan struct{}
	drained      chan struct{}
	shutdownErr  error

	// requestCtx is the base context of every request. It is cancelled when
	// connections are force-closed.
	requestCtx     context.Context
	cancelRequests context.CancelFunc

	connCount atomic.Int32
}

// New creates a stopped Server for handler.
//
// Every request passes through a recovery middleware that logs the panic and
// answers 500. Panics if config is invalid, which indicates a programmer error:
// the config package validates user input long before this point.
func New(name string, config Config, handler http.Handler, logger *slog.Logger, opts ...Option) *Server {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid %s server config: %v", name, err))
	}
	if logger == nil {
		logger = slog.Default()
	}

	requestCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		name:           name,
		config:         config,
		logger:         logger,
		shutdown:       make(chan struct{}),
		drained:        make(chan struct{}),
		requestCtx:     requestCtx,
		cancelRequests: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	h := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger}),
		handlers.PrintRecoveryStack(true),
	)(handler)
	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}

	s.srv = &http.Server{
		Addr:         config.Addr(),
		Handler:      h,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		BaseContext: func(net.Listener) context.Context {
			return s.requestCtx
		},
		ConnState: s.trackConn,
	}
	return s
}

// Serve listens on the configured address and blocks until shutdown
// completes or the listener fails.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the listener cannot be created, fails, or connections had to
//     be force-closed
func (s *Server) Serve(ctx context.Context) error {
	select {
	case <-s.shutdown:
		return nil
	default:
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to create %s listener on %s: %w", s.name, s.config.Addr(), err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.listenerMu.Lock()
	s.listener = ln
	s.listenerMu.Unlock()

	s.logger.Info("Server listening",
		"address", ln.Addr().String(),
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
		"idle_timeout", s.config.IdleTimeout)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutdown signal received", "reason", context.Cause(ctx))
			s.initiateShutdown()
		case <-s.shutdown:
		}
	}()

	err := s.srv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		s.initiateShutdown()
		<-s.drained
		return fmt.Errorf("%s server failed: %w", s.name, err)
	}

	<-s.drained
	return s.shutdownErr
}

// initiateShutdown starts the drain exactly once. The listener is closed by
// http.Server.Shutdown, which also makes Serve return.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		go func() {
			s.shutdownErr = s.gracefulShutdown()
			close(s.drained)
		}()
	})
}

// gracefulShutdown waits for in-flight requests up to ShutdownTimeout and
// then force-closes what is left.
func (s *Server) gracefulShutdown() error {
	s.logger.Info("Graceful shutdown: waiting for active connections",
		"active", s.connCount.Load(), "timeout", s.config.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		remaining := s.connCount.Load()
		s.logger.Warn("Shutdown timeout exceeded, forcing closure",
			"active", remaining, "timeout", s.config.ShutdownTimeout)
		s.forceClose()
		return fmt.Errorf("%s shutdown timeout: %d connection(s) force-closed", s.name, remaining)
	}

	s.cancelRequests()
	s.logger.Info("Graceful shutdown complete")
	return nil
}

func (s *Server) forceClose() {
	s.cancelRequests()
	if err := s.srv.Close(); err != nil {
		s.logger.Debug("Error force-closing connections", "error", err)
	}
}

// Stop initiates graceful shutdown and waits for it.
//
// If ctx ends first, remaining connections are force-closed immediately and
// ctx.Err() is returned. Safe to call multiple times and concurrently with
// Serve.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	select {
	case <-s.drained:
		return s.shutdownErr
	case <-ctx.Done():
		s.logger.Warn("Stop deadline reached, forcing closure",
			"active", s.connCount.Load(), "error", ctx.Err())
		s.forceClose()
		return ctx.Err()
	}
}

// Port returns the port the server is bound to, or the configured port before
// the listener exists.
func (s *Server) Port() int {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.config.Port
}

// ActiveConnections returns the number of open client connections.
func (s *Server) ActiveConnections() int32 {
	return s.connCount.Load()
}

func (s *Server) trackConn(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.connCount.Add(1)
	case http.StateHijacked, http.StateClosed:
		s.connCount.Add(-1)
	}
}

// recoveryLogger adapts gorilla's RecoveryHandlerLogger to slog. The
// recovery handler calls Println twice: once with the panic value and once
// with the stack.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("Recovered from panic in handler", "detail", fmt.Sprint(v...))
}
