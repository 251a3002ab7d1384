package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configHeader = `# dwserve Configuration File
#
# Values may be overridden with DWSERVE_* environment variables, for example
# DWSERVE_ADAPTERS_UPDATE_PORT=8080 or DWSERVE_LOGGING_LEVEL=DEBUG.
`

// sectionComments are written above the top-level keys of a generated file.
var sectionComments = map[string]string{
	"logging":  "Logging: level DEBUG|INFO|WARN|ERROR, format text|json, output stdout|stderr|<file>",
	"server":   "Server-wide settings. shutdown_timeout bounds stopping all adapters together.",
	"roots":    "Served directories. Empty bootstrap/content default to <base_dir>/bootstrap and <base_dir>/content.",
	"adapters": "Protocol adapters. The legacy client expects update on port 80 and auth on port 1337.",
}

// InitConfig writes a default configuration file to the default location.
//
// Returns the path of the written file. Without force, an existing file is
// left untouched and an error is returned.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as YAML with a file header and a
// comment above each top-level section. Durations render as "30s".
func generateYAMLWithComments(cfg *Config) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	if doc.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Content); i += 2 {
			key := doc.Content[i]
			if comment, ok := sectionComments[key.Value]; ok {
				key.HeadComment = comment
			}
		}
	}

	var buf strings.Builder
	buf.WriteString(configHeader)
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}
