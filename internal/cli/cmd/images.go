package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/internal/image"
	"github.com/bnema/spawn/pkg/humanize"
)

// NewImagesCommand creates the images command.
func NewImagesCommand(a *cli.App) *cobra.Command {
	var (
		rm  bool
		all bool
	)

	imagesCmd := &cobra.Command{
		Use:   "images [tag...]",
		Short: "List or remove spawn-built images",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rm && !all && len(args) == 0 {
				return fmt.Errorf("name at least one image or pass --all")
			}
			if !rm && len(args) > 0 {
				return fmt.Errorf("pass --rm to remove images")
			}

			ctx := cmd.Context()
			if err := a.Bootstrap(ctx); err != nil {
				return err
			}

			if rm {
				return removeImages(cmd, a, args, all)
			}

			records, err := a.Docker.ListImages(ctx, image.LabelImage)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No spawn images found. Build one with \"spawn build\".")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tBASE\tSERVICES\tSIZE\tCREATED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.Tag,
					rec.Labels[image.LabelBase],
					rec.Labels[image.LabelServices],
					humanize.Bytes(rec.Size),
					humanize.TimeAgo(rec.Created))
			}
			return w.Flush()
		},
	}

	imagesCmd.Flags().BoolVar(&rm, "rm", false, "Remove the named images instead of listing")
	imagesCmd.Flags().BoolVarP(&all, "all", "a", false, "With --rm, remove every spawn image")
	return imagesCmd
}

func removeImages(cmd *cobra.Command, a *cli.App, args []string, all bool) error {
	ctx := cmd.Context()

	tags := args
	if all {
		records, err := a.Docker.ListImages(ctx, image.LabelImage)
		if err != nil {
			return err
		}
		tags = make([]string, 0, len(records))
		for _, rec := range records {
			tags = append(tags, rec.Tag)
		}
	}

	for _, tag := range tags {
		if err := a.Docker.RemoveImage(ctx, tag); err != nil {
			return err
		}
		color.Green("Removed image '%s'.", tag)
	}
	return nil
}
