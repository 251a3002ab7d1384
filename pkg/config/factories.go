package config

import (
	"fmt"
	"path/filepath"

	"github.com/marmos91/dwserve/pkg/adapter/auth"
	"github.com/marmos91/dwserve/pkg/fileserver"
	"github.com/mitchellh/mapstructure"
)

// CreateAuthenticator creates the credential backend selected by
// adapters.auth.backend.type.
//
// Supported types:
//   - "accept_all": every non-empty login succeeds (legacy behavior)
//   - "static": accounts with argon2id hashes from backend.static
func CreateAuthenticator(cfg auth.BackendConfig) (auth.Authenticator, error) {
	switch cfg.Type {
	case auth.BackendAcceptAll:
		return auth.AcceptAll{}, nil
	case auth.BackendStatic:
		staticCfg, err := decodeStaticConfig(cfg.Static)
		if err != nil {
			return nil, err
		}
		return auth.NewStatic(staticCfg)
	default:
		return nil, fmt.Errorf("unknown auth backend type: %q", cfg.Type)
	}
}

// decodeStaticConfig decodes and validates the options of the static backend.
func decodeStaticConfig(options map[string]any) (auth.StaticConfig, error) {
	var staticCfg auth.StaticConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &staticCfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return staticCfg, fmt.Errorf("failed to create static backend decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return staticCfg, fmt.Errorf("failed to decode static backend config: %w", err)
	}

	if err := validate.Struct(staticCfg); err != nil {
		return staticCfg, formatValidationError(err)
	}

	return staticCfg, nil
}

// BuildRoots creates the served roots. An empty bootstrap or content path
// defaults to <base_dir>/<name>.
func BuildRoots(cfg RootsConfig) (*fileserver.Roots, error) {
	bootstrap := cfg.Bootstrap
	if bootstrap == "" {
		bootstrap = filepath.Join(cfg.BaseDir, fileserver.BootstrapRootName)
	}
	content := cfg.Content
	if content == "" {
		content = filepath.Join(cfg.BaseDir, fileserver.ContentRootName)
	}

	roots, err := fileserver.NewRoots(bootstrap, content)
	if err != nil {
		return nil, fmt.Errorf("failed to build served roots: %w", err)
	}
	return roots, nil
}
