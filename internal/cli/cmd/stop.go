package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
)

// NewStopCommand creates the stop command.
func NewStopCommand(a *cli.App) *cobra.Command {
	var (
		all    bool
		remove bool
	)

	stopCmd := &cobra.Command{
		Use:   "stop [name...]",
		Short: "Stop one or more spawns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("name at least one spawn or pass --all")
			}
			if err := a.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			return a.Orchestrator.Stop(cmd.Context(), args, all, remove)
		},
	}

	stopCmd.Flags().BoolVarP(&all, "all", "a", false, "Stop every spawn")
	stopCmd.Flags().BoolVar(&remove, "rm", false, "Also remove the stopped containers")
	return stopCmd
}
