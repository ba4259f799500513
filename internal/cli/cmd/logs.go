package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/pkg/docker"
	"github.com/bnema/spawn/pkg/duration"
)

// NewLogsCommand creates the logs command.
func NewLogsCommand(a *cli.App) *cobra.Command {
	var (
		follow bool
		tail   int
		since  string
	)

	logsCmd := &cobra.Command{
		Use:   "logs [name]",
		Short: "Show a spawn's container logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			opts := docker.LogStreamOptions{Tail: tail, Follow: follow}
			if since != "" {
				d, err := duration.Parse(since)
				if err != nil {
					return err
				}
				opts.Since = time.Now().Add(-d)
			}

			if err := a.Bootstrap(cmd.Context()); err != nil {
				return err
			}

			if dir := latestLogDir(a.Config.LogsDir(), name); dir != "" {
				fmt.Println("Per-service logs on host:", dir)
			}

			return a.Orchestrator.Logs(cmd.Context(), name, os.Stdout, opts)
		},
	}

	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&tail, "tail", "n", 100, "Number of lines to show from the end")
	logsCmd.Flags().StringVar(&since, "since", "", "Only show output newer than a duration, e.g. 30m or 1d")
	return logsCmd
}

// latestLogDir returns the newest numbered log directory for a spawn
// name, or "" when there is none.
func latestLogDir(logsRoot, name string) string {
	entries, err := os.ReadDir(logsRoot)
	if err != nil {
		return ""
	}

	prefix := name + "."
	best := ""
	bestN := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), prefix))
		if err != nil || n <= bestN {
			continue
		}
		bestN = n
		best = filepath.Join(logsRoot, entry.Name())
	}
	return best
}
