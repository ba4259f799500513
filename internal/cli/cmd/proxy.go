package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
)

// NewProxyCommand creates the proxy command.
func NewProxyCommand(a *cli.App) *cobra.Command {
	var (
		stop    bool
		restart bool
	)

	proxyCmd := &cobra.Command{
		Use:   "proxy",
		Short: "Manage the reverse proxy container",
		Long:  "Start, restart or stop the shared reverse proxy that routes service URLs to spawn containers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stop && restart {
				return fmt.Errorf("--stop and --restart are mutually exclusive")
			}

			ctx := cmd.Context()
			if err := a.Bootstrap(ctx); err != nil {
				return err
			}

			if stop {
				if err := a.Proxy.Stop(ctx); err != nil {
					return err
				}
				color.Green("Reverse proxy stopped.")
				return nil
			}

			started, err := a.Proxy.Ensure(ctx, restart)
			if err != nil {
				return err
			}
			if started {
				color.Green("Reverse proxy '%s' is running.", a.Proxy.ContainerName())
			} else {
				color.Green("Reverse proxy '%s' was already running.", a.Proxy.ContainerName())
			}
			return nil
		},
	}

	proxyCmd.Flags().BoolVar(&stop, "stop", false, "Stop the proxy container")
	proxyCmd.Flags().BoolVar(&restart, "restart", false, "Recreate the proxy container so config changes take effect")
	return proxyCmd
}
