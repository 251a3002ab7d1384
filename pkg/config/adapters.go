package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marmos91/dwserve/pkg/adapter"
	"github.com/marmos91/dwserve/pkg/adapter/auth"
	"github.com/marmos91/dwserve/pkg/adapter/update"
	"github.com/marmos91/dwserve/pkg/fileserver"
	"github.com/marmos91/dwserve/pkg/metrics"
)

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// Parameters:
//   - cfg: The complete dwserve configuration
//   - roots: The served roots shared by file-serving adapters
//   - httpMetrics: Optional request metrics collector (nil = no metrics)
//   - log: Logger injected into every adapter
//
// Returns:
//   - []adapter.Adapter: List of enabled adapters ready to be added to the server
//   - func() error: Releases files opened for the adapters (access log); never nil
//   - error: Any error during adapter creation
//
// On error every file already opened is closed before returning, and the
// returned close func is a no-op, so deferring it unconditionally is safe.
func CreateAdapters(cfg *Config, roots *fileserver.Roots, httpMetrics metrics.HTTPMetrics, log *slog.Logger) ([]adapter.Adapter, func() error, error) {
	var (
		adapters []adapter.Adapter
		closers  []io.Closer
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) ([]adapter.Adapter, func() error, error) {
		_ = closeAll()
		return nil, func() error { return nil }, err
	}

	if cfg.Adapters.Update.Enabled {
		var accessLog io.Writer
		if path := cfg.Adapters.Update.AccessLog; path != "" {
			f, err := openAccessLog(path)
			if err != nil {
				return fail(err)
			}
			closers = append(closers, f)
			accessLog = f
		}
		adapters = append(adapters, update.New(cfg.Adapters.Update, roots, httpMetrics, accessLog, log))
	}

	if cfg.Adapters.Auth.Enabled {
		authenticator, err := CreateAuthenticator(cfg.Adapters.Auth.Backend)
		if err != nil {
			return fail(fmt.Errorf("failed to create auth backend: %w", err))
		}
		adapters = append(adapters, auth.New(cfg.Adapters.Auth, authenticator, httpMetrics, log))
	}

	if len(adapters) == 0 {
		return fail(fmt.Errorf("no adapters enabled in configuration"))
	}

	return adapters, closeAll, nil
}

func openAccessLog(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create access log directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open access log %s: %w", path, err)
	}
	return f, nil
}
