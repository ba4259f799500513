package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/catalog"
	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/internal/cli/mvu"
	"github.com/bnema/spawn/internal/common"
	"github.com/bnema/spawn/internal/image"
	"github.com/bnema/spawn/pkg/validation"
)

// NewBuildCommand creates the build command.
func NewBuildCommand(a *cli.App) *cobra.Command {
	var (
		base     string
		services string
	)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Compose and build a spawn image",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := validation.ValidateImageRef(base); err != nil {
				return err
			}
			if err := a.Bootstrap(ctx); err != nil {
				return err
			}

			selected, err := catalog.Parse(services)
			if err != nil {
				return err
			}

			in := buildInput(a.Config, base, selected)
			tag := a.Composer.Tag(in)

			exists, err := a.Composer.Exists(ctx, in)
			if err != nil {
				return err
			}
			if exists {
				color.Yellow("Image %s already exists, rebuilding it.", tag)
			}

			color.Blue("Building image: %s", tag)
			if _, err := mvu.RunBuildTUI(fmt.Sprintf("Building %s...", tag), func() (string, error) {
				return a.Composer.Build(ctx, in)
			}); err != nil {
				return err
			}

			color.Green("Image %s built.", tag)
			return nil
		},
	}

	buildCmd.Flags().StringVarP(&base, "base", "b", "", "Base image reference (e.g. ubuntu:22.04)")
	buildCmd.Flags().StringVarP(&services, "services", "s", "", "Services to include, comma separated (default: jupyter,rstudio,vscode)")
	_ = buildCmd.MarkFlagRequired("base")

	return buildCmd
}

// buildInput assembles the composer input from the config and the
// base/services selection.
func buildInput(config *common.Config, base string, services []catalog.Service) image.BuildInput {
	return image.BuildInput{
		BaseImage: base,
		Services:  services,
		Customization: image.Customization{
			EnvFile:         config.Customize.EnvFile,
			DockerfileChunk: config.Customize.DockerfileChunk,
			EntrypointChunk: config.Customize.EntrypointChunk,
		},
		Timezone: config.General.Timezone,
	}
}
