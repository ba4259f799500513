// Package cmd defines the spawn subcommands. Every command is built by
// a factory taking the shared cli.App.
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/pkg/version"
)

// NewRootCommand creates the root command. Bare invocation prints a
// short status banner instead of the help screen.
func NewRootCommand(a *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:           "spawn",
		Short:         "Containerized multi-service dev environments",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			color.Green("spawn %s", version.Version())

			if err := a.LoadConfig(); err != nil {
				color.Yellow("Not configured yet. Run \"spawn setup\" to get started.")
			} else {
				fmt.Printf("Mode: %s, domain: %s, install root: %s\n",
					a.Config.General.Mode, a.Config.General.Domain, a.Config.Root())
			}

			fmt.Println()
			fmt.Println("Use \"spawn --help\" for more information about a command.")
		},
	}
}
