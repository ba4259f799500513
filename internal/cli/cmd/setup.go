package cmd

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/spawn/internal/cli"
	"github.com/bnema/spawn/internal/common"
	"github.com/bnema/spawn/internal/proxy"
)

// NewSetupCommand creates the setup command. Re-running it replaces the
// whole config file; there is no merge with the previous one.
func NewSetupCommand(a *cli.App) *cobra.Command {
	var (
		system          bool
		yes             bool
		mode            string
		domain          string
		prefix          string
		subnet          string
		dns             []string
		sock            string
		timezone        string
		logLevel        string
		certMode        string
		certEmail       string
		certDir         string
		envFile         string
		dockerfileChunk string
		entrypointChunk string
	)

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Create or replace the spawn configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			installMode := common.InstallModeUser
			if system {
				installMode = common.InstallModeSystem
			}

			if common.ConfigExists(installMode) && !yes {
				dir, err := common.ConfigDir(installMode)
				if err != nil {
					return err
				}

				var overwrite bool
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("A configuration already exists in %s. Replace it?", dir),
					Default: false,
				}
				if err := survey.AskOne(prompt, &overwrite); err != nil {
					return err
				}
				if !overwrite {
					fmt.Println("Keeping the existing configuration.")
					return nil
				}
			}

			config := &common.Config{}
			config.General.InstallMode = installMode
			config.General.CreatedAt = time.Now().Format(time.RFC3339)
			config.General.Mode = mode
			config.General.Domain = domain
			config.General.Prefix = prefix
			config.General.Timezone = timezone
			config.General.LogLevel = logLevel
			config.Engine.Sock = sock
			config.Network.Subnet = subnet
			config.Network.DNS = dns
			config.Certs.Mode = certMode
			config.Certs.Email = certEmail
			config.Certs.Dir = certDir
			config.Customize.EnvFile = envFile
			config.Customize.DockerfileChunk = dockerfileChunk
			config.Customize.EntrypointChunk = entrypointChunk
			config.ApplyDefaults()

			if !yes {
				prevPrefix := config.General.Prefix
				if err := promptForSettings(config); err != nil {
					return err
				}
				// Keep the derived network name in sync with a renamed prefix.
				if config.Network.Name == prevPrefix+"_internal" {
					config.Network.Name = config.General.Prefix + "_internal"
				}
			}

			if err := config.SaveConfig(); err != nil {
				return err
			}

			color.Green("Configuration written to %s", config.ConfigFilePath())
			fmt.Println("Volumes root:", config.VolumesDir())
			fmt.Println("Builds root: ", config.BuildsDir())
			if config.IsLocal() || config.Certs.Mode == common.CertModeProvided {
				fmt.Printf("Place your certificate pair in %s as %s and %s.\n",
					config.Certs.Dir, proxy.CertFileName, proxy.KeyFileName)
			}

			if !yes {
				var startProxy bool
				prompt := &survey.Confirm{
					Message: "Start the reverse proxy now?",
					Default: true,
				}
				if err := survey.AskOne(prompt, &startProxy); err != nil {
					return err
				}
				if startProxy {
					// Bootstrap must see the config written above, not
					// whatever LoadConfig would resolve to.
					a.Config = config
					if err := a.Bootstrap(cmd.Context()); err != nil {
						return err
					}
					if _, err := a.Proxy.Ensure(cmd.Context(), true); err != nil {
						return err
					}
					color.Green("Reverse proxy '%s' is running.", a.Proxy.ContainerName())
				}
			}

			fmt.Println()
			fmt.Println("Run \"spawn run <name> --base ubuntu:22.04 --build\" to start your first environment.")
			return nil
		},
	}

	setupCmd.Flags().BoolVar(&system, "system", false, "Write a system-wide configuration under /etc/spawn")
	setupCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip prompts, answer yes and take flag or default values")
	setupCmd.Flags().StringVar(&mode, "mode", "", "Proxy mode, local or remote")
	setupCmd.Flags().StringVar(&domain, "domain", "", "Domain for service URLs")
	setupCmd.Flags().StringVar(&prefix, "prefix", "", "Container name prefix")
	setupCmd.Flags().StringVar(&subnet, "subnet", "", "Internal network subnet (CIDR)")
	setupCmd.Flags().StringSliceVar(&dns, "dns", nil, "DNS servers for spawn containers")
	setupCmd.Flags().StringVar(&sock, "sock", "", "Container engine socket path")
	setupCmd.Flags().StringVar(&timezone, "timezone", "", "Timezone baked into spawn images")
	setupCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	setupCmd.Flags().StringVar(&certMode, "cert-mode", "", "Certificate mode in remote mode, letsencrypt or provided")
	setupCmd.Flags().StringVar(&certEmail, "cert-email", "", "Email for Let's Encrypt registration")
	setupCmd.Flags().StringVar(&certDir, "cert-dir", "", "Directory holding provided certificates")
	setupCmd.Flags().StringVar(&envFile, "env-file", "", "Env file baked into every image as ENV instructions")
	setupCmd.Flags().StringVar(&dockerfileChunk, "dockerfile-chunk", "", "Dockerfile fragment appended to every image build")
	setupCmd.Flags().StringVar(&entrypointChunk, "entrypoint-chunk", "", "Shell fragment run by every container at startup")

	return setupCmd
}

func promptForSettings(config *common.Config) error {
	if err := survey.AskOne(&survey.Select{
		Message: "Proxy mode:",
		Options: []string{common.ModeLocal, common.ModeRemote},
		Default: config.General.Mode,
		Help:    "local serves *.localhost domains, remote serves a public domain through the reverse proxy",
	}, &config.General.Mode); err != nil {
		return err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Domain for service URLs:",
		Default: config.General.Domain,
	}, &config.General.Domain); err != nil {
		return err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Container name prefix:",
		Default: config.General.Prefix,
	}, &config.General.Prefix); err != nil {
		return err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Internal network subnet:",
		Default: config.Network.Subnet,
	}, &config.Network.Subnet); err != nil {
		return err
	}

	if config.General.Mode != common.ModeRemote {
		return nil
	}

	certModeDefault := config.Certs.Mode
	if certModeDefault == "" {
		certModeDefault = common.CertModeLetsEncrypt
	}
	if err := survey.AskOne(&survey.Select{
		Message: "Certificate mode:",
		Options: []string{common.CertModeLetsEncrypt, common.CertModeProvided},
		Default: certModeDefault,
	}, &config.Certs.Mode); err != nil {
		return err
	}

	if config.Certs.Mode == common.CertModeLetsEncrypt {
		return survey.AskOne(&survey.Input{
			Message: "Email for Let's Encrypt registration:",
			Default: config.Certs.Email,
		}, &config.Certs.Email)
	}

	return survey.AskOne(&survey.Input{
		Message: "Directory holding your certificates:",
		Default: config.Certs.Dir,
	}, &config.Certs.Dir)
}
