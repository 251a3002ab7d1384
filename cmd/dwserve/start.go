package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/config"
	"github.com/marmos91/dwserve/pkg/fileserver"
	"github.com/marmos91/dwserve/pkg/server"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the update and auth servers",
		Long: `Start all enabled adapters and serve until SIGINT or SIGTERM.

On shutdown, listeners close first; in-flight requests may finish within
shutdown_timeout before remaining connections are force-closed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			log, closeLog, err := logger.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runStart(ctx, cfg, log)
		},
	}
}

// runStart wires roots, metrics, and adapters from cfg and serves until ctx
// is cancelled. A shutdown requested through ctx returns nil.
func runStart(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("Starting dwserve", "version", version, "config", configFile)

	roots, err := config.BuildRoots(cfg.Roots)
	if err != nil {
		return err
	}
	log.Info("Served roots",
		fileserver.BootstrapRootName, roots.Bootstrap(),
		fileserver.ContentRootName, roots.Content())
	for _, name := range roots.Missing() {
		log.Warn("Served root does not exist; requests under it answer 404", "root", name)
	}

	logInventory(log, roots)

	m := config.InitializeMetrics(cfg, log)
	if m.Server != nil {
		go func() {
			if err := m.Server.Start(ctx); err != nil {
				log.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	adapters, closeAdapters, err := config.CreateAdapters(cfg, roots, m.HTTPMetrics, log)
	defer func() { _ = closeAdapters() }()
	if err != nil {
		return err
	}

	srv := server.New(log, cfg.Server.ShutdownTimeout)
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return fmt.Errorf("failed to register adapter: %w", err)
		}
	}

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("dwserve stopped")
	return nil
}

// logInventory logs the sorted manifest of served files.
func logInventory(log *slog.Logger, roots *fileserver.Roots) {
	entries := roots.Inventory(log)
	log.Info("Inventory of served files", "files", len(entries))
	for _, e := range entries {
		log.Info(" - " + e.String())
	}
}
