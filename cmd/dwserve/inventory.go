package main

import (
	"fmt"

	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/config"
	"github.com/spf13/cobra"
)

func newInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "List the files that would be served",
		Long: `Walk the bootstrap and content roots and print one line per regular
file, sorted by path. Unreadable paths are reported on stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			roots, err := config.BuildRoots(cfg.Roots)
			if err != nil {
				return err
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			for _, e := range roots.Inventory(log) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), e.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
