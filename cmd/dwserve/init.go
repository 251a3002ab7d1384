package main

import (
	"github.com/marmos91/dwserve/pkg/config"
	"github.com/spf13/cobra"
)

// initConfig holds the flags of the init command.
type initConfig struct {
	force bool
	path  string
}

func newInitCmd() *cobra.Command {
	cfg := &initConfig{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a commented default configuration file, by default to
$XDG_CONFIG_HOME/dwserve/config.yaml. An existing file is kept unless --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&cfg.path, "path", "", "write to this path instead of the default location")

	return cmd
}

func runInit(cmd *cobra.Command, cfg *initConfig) error {
	path := cfg.path
	if path == "" {
		var err error
		if path, err = config.InitConfig(cfg.force); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, cfg.force); err != nil {
		return err
	}

	cmd.Printf("Configuration written to %s\n", path)
	return nil
}
