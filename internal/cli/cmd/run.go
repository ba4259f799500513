package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/catalog"
	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/internal/cli/mvu"
	"github.com/bnema/spawn/internal/spawn"
	"github.com/bnema/spawn/internal/volumes"
	"github.com/bnema/spawn/pkg/bytesize"
	"github.com/bnema/spawn/pkg/validation"
)

// NewRunCommand creates the run command.
func NewRunCommand(a *cli.App) *cobra.Command {
	var (
		base     string
		services string
		mounts   []string
		build    bool
		force    bool
		username string
		password string
		uid      int
		gid      int
		shmSize  string
	)

	runCmd := &cobra.Command{
		Use:   "run [name]",
		Short: "Create and start a spawn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := cmd.Context()

			if err := validation.ValidateSpawnName(name); err != nil {
				return err
			}
			if err := validation.ValidateImageRef(base); err != nil {
				return err
			}

			var shmBytes int64
			if shmSize != "" {
				var err error
				if shmBytes, err = bytesize.Parse(shmSize); err != nil {
					return err
				}
			}

			if err := a.Bootstrap(ctx); err != nil {
				return err
			}

			selected, err := catalog.Parse(services)
			if err != nil {
				return err
			}

			creds, err := spawn.DefaultCredentials()
			if err != nil {
				return err
			}
			if username != "" {
				creds.Username = username
			}
			if password != "" {
				creds.Password = password
			}
			if uid >= 0 {
				creds.UID = uid
			}
			if gid >= 0 {
				creds.GID = gid
			}

			in := buildInput(a.Config, base, selected)
			tag := a.Composer.Tag(in)

			exists, err := a.Composer.Exists(ctx, in)
			if err != nil {
				return err
			}
			switch {
			case exists:
			case !build:
				if _, err := a.Composer.Ensure(ctx, in, false); err != nil {
					return err
				}
			default:
				color.Blue("Image %s not found, building it.", tag)
				if _, err := mvu.RunBuildTUI(fmt.Sprintf("Building %s...", tag), func() (string, error) {
					return a.Composer.Build(ctx, in)
				}); err != nil {
					return err
				}
			}

			plan, err := a.Planner.Plan(name, selected, mounts, creds.Username)
			if err != nil {
				return err
			}
			logMount, err := a.Planner.LogDir(name)
			if err != nil {
				return err
			}
			plan = append(plan, logMount)
			volumes.SortMounts(plan)

			status, err := a.Orchestrator.Run(ctx, spawn.RunRequest{
				Name:        name,
				ImageTag:    tag,
				Services:    selected,
				Mounts:      plan,
				Credentials: creds,
				Force:       force,
				ShmSize:     shmBytes,
			})
			if err != nil {
				return err
			}

			printAccessInfo(status, selected, creds)

			if running, err := a.Proxy.Running(ctx); err == nil && !running {
				color.Yellow("The reverse proxy is not running, so the URLs above will not resolve.")
				color.Yellow("Start it with \"spawn proxy\".")
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&base, "base", "b", "", "Base image reference (e.g. ubuntu:22.04)")
	runCmd.Flags().StringVarP(&services, "services", "s", "", "Services to run, comma separated (default: jupyter,rstudio,vscode)")
	runCmd.Flags().StringArrayVarP(&mounts, "volume", "v", nil, "Extra volume to mount, host:container[:mode]")
	runCmd.Flags().BoolVar(&build, "build", false, "Build the image when it does not exist yet")
	runCmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing spawn with the same name")
	runCmd.Flags().StringVar(&username, "username", "", "Username inside the container (default: current user)")
	runCmd.Flags().StringVar(&password, "password", "", "Password for the container user (default: generated)")
	runCmd.Flags().IntVar(&uid, "uid", -1, "User id inside the container (default: current uid)")
	runCmd.Flags().IntVar(&gid, "gid", -1, "Group id inside the container (default: current gid)")
	runCmd.Flags().StringVar(&shmSize, "shm-size", "", "Shared memory size, e.g. 2GB (default: engine default)")
	_ = runCmd.MarkFlagRequired("base")

	return runCmd
}

// printAccessInfo prints the per-service URLs. Token-authenticated
// services carry the token in the URL; the others get the credentials
// spelled out.
func printAccessInfo(status *spawn.Status, services []catalog.Service, creds spawn.Credentials) {
	byID := make(map[string]catalog.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	color.Green("Container '%s' is running.", status.ContainerName)
	fmt.Println("Access services at:")
	fmt.Println("---")
	for _, u := range status.URLs {
		fmt.Printf(" - %s: %s\n", u.Service, u.URL)
		if svc, ok := byID[u.Service]; ok && !svc.TokenAuth {
			if svc.ID != catalog.ServiceVSCode {
				fmt.Printf("   - Username: %s\n", creds.Username)
			}
			fmt.Printf("   - Password: %s\n", creds.Password)
		}
		fmt.Println("---")
	}
}
