package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/pkg/humanize"
)

// NewListCommand creates the list command.
func NewListCommand(a *cli.App) *cobra.Command {
	var all bool

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List spawns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Bootstrap(cmd.Context()); err != nil {
				return err
			}

			statuses, err := a.Orchestrator.List(cmd.Context(), all)
			if err != nil {
				return err
			}

			if len(statuses) == 0 {
				if all {
					fmt.Println("No spawns found.")
				} else {
					fmt.Println("No running spawns. Use --all to include stopped ones.")
				}
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATE\tCREATED\tIMAGE\tSERVICES\tURLS")
			for _, s := range statuses {
				urls := make([]string, 0, len(s.URLs))
				for _, u := range s.URLs {
					urls = append(urls, u.URL)
				}
				created := ""
				if !s.Created.IsZero() {
					created = humanize.TimeAgo(s.Created)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					s.Name, s.State, created, s.Image,
					strings.Join(s.Services, ","), strings.Join(urls, " "))
			}
			return w.Flush()
		},
	}

	listCmd.Flags().BoolVarP(&all, "all", "a", false, "Include non-running spawns")
	return listCmd
}
