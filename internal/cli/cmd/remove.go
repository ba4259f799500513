package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
)

// NewRemoveCommand creates the remove command. Running spawns are
// refused; stop them first (or use stop --rm).
func NewRemoveCommand(a *cli.App) *cobra.Command {
	var all bool

	removeCmd := &cobra.Command{
		Use:     "remove [name...]",
		Aliases: []string{"rm"},
		Short:   "Remove stopped spawns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("name at least one spawn or pass --all")
			}
			if err := a.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			return a.Orchestrator.Remove(cmd.Context(), args, all)
		},
	}

	removeCmd.Flags().BoolVarP(&all, "all", "a", false, "Remove every stopped spawn")
	return removeCmd
}
