package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the dwserve CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dwserve",
		Short: "dwserve - update file server and auth responder for legacy game clients",
		Long: `dwserve serves bootstrap and content files over HTTP to legacy game
clients and answers their remauth.php credential checks.

Configuration is read from $XDG_CONFIG_HOME/dwserve/config.yaml unless
--config is given. DWSERVE_* environment variables override file values.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newInventoryCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newHashPasswordCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("dwserve " + versionString())
			return nil
		},
	}
}
