package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/metrics"
)

func TestCreateAdapters_Defaults(t *testing.T) {
	cfg := GetDefaultConfig()
	roots, err := BuildRoots(RootsConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	adapters, closeFn, err := CreateAdapters(cfg, roots, metrics.NewNoopHTTPMetrics(), logger.Discard())
	if err != nil {
		t.Fatalf("CreateAdapters failed: %v", err)
	}
	defer func() { _ = closeFn() }()

	if len(adapters) != 2 {
		t.Fatalf("Expected 2 adapters, got %d", len(adapters))
	}
	if adapters[0].Protocol() != "UPDATE" || adapters[1].Protocol() != "AUTH" {
		t.Errorf("Unexpected adapter order: %s, %s", adapters[0].Protocol(), adapters[1].Protocol())
	}
	if adapters[0].Port() != 80 || adapters[1].Port() != 1337 {
		t.Errorf("Unexpected ports: %d, %d", adapters[0].Port(), adapters[1].Port())
	}
}

func TestCreateAdapters_OpensAccessLog(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.Auth.Enabled = false
	cfg.Adapters.Update.AccessLog = filepath.Join(t.TempDir(), "logs", "access.log")

	roots, err := BuildRoots(RootsConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	adapters, closeFn, err := CreateAdapters(cfg, roots, nil, logger.Discard())
	if err != nil {
		t.Fatalf("CreateAdapters failed: %v", err)
	}
	if len(adapters) != 1 {
		t.Fatalf("Expected 1 adapter, got %d", len(adapters))
	}
	if _, err := os.Stat(cfg.Adapters.Update.AccessLog); err != nil {
		t.Errorf("Expected access log to be created: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

func TestCreateAdapters_BadBackend(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.Auth.Backend.Type = "static"

	roots, err := BuildRoots(RootsConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	if _, closeFn, err := CreateAdapters(cfg, roots, nil, logger.Discard()); err == nil {
		t.Fatal("Expected error for static backend without accounts")
	} else if closeFn == nil {
		t.Error("close func must never be nil")
	}
}

func TestCreateAdapters_BadBackendClosesAccessLogOnce(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.Update.AccessLog = filepath.Join(t.TempDir(), "access.log")
	cfg.Adapters.Auth.Backend.Type = "static"

	roots, err := BuildRoots(RootsConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	_, closeFn, err := CreateAdapters(cfg, roots, nil, logger.Discard())
	if err == nil {
		t.Fatal("Expected error for static backend without accounts")
	}
	if _, statErr := os.Stat(cfg.Adapters.Update.AccessLog); statErr != nil {
		t.Fatalf("Expected access log to be opened before the backend failed: %v", statErr)
	}

	// Callers defer the close func even on error; it must not close again.
	if err := closeFn(); err != nil {
		t.Errorf("close after failed creation returned %v", err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("second close returned %v", err)
	}
}

func TestCreateAdapters_NoneEnabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.Update.Enabled = false
	cfg.Adapters.Auth.Enabled = false

	if _, _, err := CreateAdapters(cfg, nil, nil, logger.Discard()); err == nil {
		t.Fatal("Expected error when no adapters are enabled")
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	result := InitializeMetrics(GetDefaultConfig(), logger.Discard())

	if result.Server != nil {
		t.Error("Expected no metrics server when disabled")
	}
	if result.HTTPMetrics == nil {
		t.Error("Expected no-op HTTP metrics, got nil")
	}
}
