package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/pkg/version"
)

func NewVersionCommand(a *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the version of spawn",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spawn %s (commit %s, built %s)\n",
				version.Version(), version.Commit(), version.BuildDate())
		},
	}
}
