package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/internal/cli/cmd"
	"github.com/bnema/spawn/pkg/version"

	_ "github.com/joho/godotenv/autoload"
)

func InitializeCommands(a *cli.App) *cobra.Command {
	rootCmd := cmd.NewRootCommand(a)
	rootCmd.AddCommand(cmd.NewSetupCommand(a))
	rootCmd.AddCommand(cmd.NewBuildCommand(a))
	rootCmd.AddCommand(cmd.NewRunCommand(a))
	rootCmd.AddCommand(cmd.NewListCommand(a))
	rootCmd.AddCommand(cmd.NewStopCommand(a))
	rootCmd.AddCommand(cmd.NewRemoveCommand(a))
	rootCmd.AddCommand(cmd.NewLogsCommand(a))
	rootCmd.AddCommand(cmd.NewImagesCommand(a))
	rootCmd.AddCommand(cmd.NewProxyCommand(a))
	rootCmd.AddCommand(cmd.NewVersionCommand(a))
	return rootCmd
}

func Execute(a *cli.App) {
	rootCmd := InitializeCommands(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.RenderError(err)
		a.Close()
		os.Exit(1)
	}
}

func ExecuteCLI(build, commit, date string) {
	version.Set(build, commit, date)

	a := cli.NewApp()
	defer a.Close()
	Execute(a)
}
