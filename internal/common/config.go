package common

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/spawn/pkg/docker"
	"github.com/bnema/spawn/pkg/logger"
	"github.com/bnema/spawn/pkg/parser"
)

// ErrNotConfigured is returned when no config file exists for any install
// mode; the user has to run `spawn setup` first.
var ErrNotConfigured = errors.New("no configuration found, run 'spawn setup' first")

// Install modes.
const (
	InstallModeUser   = "user"
	InstallModeSystem = "system"
)

// Proxy modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Certificate modes, remote only.
const (
	CertModeLetsEncrypt = "letsencrypt"
	CertModeProvided    = "provided"
)

// Default values
var (
	defaultSock      = "/var/run/docker.sock"
	defaultDomain    = "spawn.localhost"
	defaultPrefix    = "spawn"
	defaultMode      = ModeLocal
	defaultSubnet    = "172.30.0.0/24"
	defaultTimezone  = "Etc/UTC"
	defaultLogLevel  = "info"
	defaultDNS       = []string{"8.8.8.8", "8.8.4.4"}
	systemConfigRoot = "/etc/spawn"
)

// ConfigDir returns the install root for a given install mode. The user
// mode follows the XDG Base Directory Specification.
func ConfigDir(installMode string) (string, error) {
	switch installMode {
	case InstallModeSystem:
		return systemConfigRoot, nil
	case InstallModeUser, "":
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, "spawn"), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine user home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", "spawn"), nil
	default:
		return "", fmt.Errorf("invalid install mode %q (must be %q or %q)", installMode, InstallModeUser, InstallModeSystem)
	}
}

// DefaultConfig returns a config populated with every default value for
// the given install mode.
func DefaultConfig(installMode string) *Config {
	config := &Config{}
	config.General.InstallMode = installMode
	if installMode == "" {
		config.General.InstallMode = InstallModeUser
	}
	config.General.CreatedAt = time.Now().Format(time.RFC3339)
	applyDefaultsToConfig(config)
	return config
}

// ApplyDefaults fills every unset field with its default value,
// deriving the network name from the current prefix. Reports whether
// anything was filled.
func (c *Config) ApplyDefaults() bool {
	return applyDefaultsToConfig(c)
}

// LoadConfig reads the config file for the given install mode, applies
// defaults and environment overrides, and validates the result. An empty
// installMode tries the user config first and falls back to the system one.
func LoadConfig(installMode string) (*Config, error) {
	dir, mode, err := resolveConfigDir(installMode)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "config.yaml")

	config := &Config{}
	if err := parser.ParseYAMLFile(os.DirFS(dir), "config.yaml", config); err != nil {
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}
	config.General.InstallMode = mode

	if applyDefaultsToConfig(config) {
		logger.Debug("Applied default values to configuration", "path", path)
	}
	loadConfigFromEnv(config)

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	if config.General.LogLevel != "" {
		logger.GetLogger().SetLogLevel(config.General.LogLevel)
	}

	logger.Debug("Configuration loaded", "path", path, "installMode", mode)
	return config, nil
}

// ConfigExists reports whether a config file exists for the install mode
// (or for either mode when installMode is empty).
func ConfigExists(installMode string) bool {
	_, _, err := resolveConfigDir(installMode)
	return err == nil
}

// SaveConfig writes the config file for its install mode, creating the
// install root as needed. Saving is a full overwrite of the previous file.
func (c *Config) SaveConfig() error {
	if err := ValidateConfig(c); err != nil {
		return err
	}

	path := c.ConfigFilePath()
	logger.Info("Saving configuration", "path", path)

	if err := parser.WriteYAMLFile(path, c); err != nil {
		return fmt.Errorf("error writing configuration file: %w", err)
	}
	return nil
}

func resolveConfigDir(installMode string) (string, string, error) {
	modes := []string{installMode}
	if installMode == "" {
		modes = []string{InstallModeUser, InstallModeSystem}
	}

	for _, mode := range modes {
		dir, err := ConfigDir(mode)
		if err != nil {
			return "", "", err
		}
		if fileExists(filepath.Join(dir, "config.yaml")) {
			return dir, mode, nil
		}
	}
	return "", "", ErrNotConfigured
}

// applyDefaultsToConfig applies default values to any fields that have zero
// values. Returns true if any defaults were applied.
func applyDefaultsToConfig(config *Config) bool {
	defaultsApplied := false

	if config.General.Mode == "" {
		config.General.Mode = defaultMode
		defaultsApplied = true
	}
	if config.General.Prefix == "" {
		config.General.Prefix = defaultPrefix
		defaultsApplied = true
	}
	if config.General.Domain == "" {
		config.General.Domain = defaultDomain
		defaultsApplied = true
	}
	if config.General.Timezone == "" {
		config.General.Timezone = defaultTimezone
		defaultsApplied = true
	}
	if config.General.LogLevel == "" {
		config.General.LogLevel = defaultLogLevel
		defaultsApplied = true
	}
	if config.Engine.Sock == "" {
		config.Engine.Sock = defaultSock
		if isPodman, podmanSock := docker.DetectPodman(); isPodman {
			config.Engine.Sock = podmanSock
			logger.Debug("Detected Podman socket", "sock", podmanSock)
		}
		defaultsApplied = true
	}
	if config.Network.Name == "" {
		config.Network.Name = config.General.Prefix + "_internal"
		defaultsApplied = true
	}
	if config.Network.Subnet == "" {
		config.Network.Subnet = defaultSubnet
		defaultsApplied = true
	}
	if len(config.Network.DNS) == 0 {
		config.Network.DNS = append([]string{}, defaultDNS...)
		defaultsApplied = true
	}
	if config.Certs.Dir == "" {
		config.Certs.Dir = filepath.Join(config.Root(), "certs")
		defaultsApplied = true
	}

	return defaultsApplied
}

// loadConfigFromEnv loads configuration overrides from SPAWN_* environment
// variables.
func loadConfigFromEnv(config *Config) {
	if val := os.Getenv("SPAWN_LOG_LEVEL"); val != "" {
		config.General.LogLevel = val
		logger.Debug("Using environment variable SPAWN_LOG_LEVEL", "value", val)
	}
	if val := os.Getenv("SPAWN_DOMAIN"); val != "" {
		config.General.Domain = val
		logger.Debug("Using environment variable SPAWN_DOMAIN", "value", val)
	}
	if val := os.Getenv("SPAWN_PREFIX"); val != "" {
		config.General.Prefix = val
		logger.Debug("Using environment variable SPAWN_PREFIX", "value", val)
	}
	if val := os.Getenv("SPAWN_MODE"); val != "" {
		config.General.Mode = strings.ToLower(val)
		logger.Debug("Using environment variable SPAWN_MODE", "value", val)
	}
	if val := os.Getenv("SPAWN_TIMEZONE"); val != "" {
		config.General.Timezone = val
		logger.Debug("Using environment variable SPAWN_TIMEZONE", "value", val)
	}
	if val := os.Getenv("SPAWN_DOCKER_SOCK"); val != "" {
		config.Engine.Sock = val
		logger.Debug("Using environment variable SPAWN_DOCKER_SOCK", "value", val)
	}
	if val := os.Getenv("SPAWN_NETWORK_NAME"); val != "" {
		config.Network.Name = val
		logger.Debug("Using environment variable SPAWN_NETWORK_NAME", "value", val)
	}
	if val := os.Getenv("SPAWN_NETWORK_SUBNET"); val != "" {
		config.Network.Subnet = val
		logger.Debug("Using environment variable SPAWN_NETWORK_SUBNET", "value", val)
	}
	if val := os.Getenv("SPAWN_DNS"); val != "" {
		config.Network.DNS = splitList(val)
		logger.Debug("Using environment variable SPAWN_DNS", "value", val)
	}
	if val := os.Getenv("SPAWN_CERT_MODE"); val != "" {
		config.Certs.Mode = strings.ToLower(val)
		logger.Debug("Using environment variable SPAWN_CERT_MODE", "value", val)
	}
	if val := os.Getenv("SPAWN_CERT_DIR"); val != "" {
		config.Certs.Dir = val
		logger.Debug("Using environment variable SPAWN_CERT_DIR", "value", val)
	}
	if val := os.Getenv("SPAWN_CERT_EMAIL"); val != "" {
		config.Certs.Email = val
		logger.Debug("Using environment variable SPAWN_CERT_EMAIL", "value", val)
	}
	if val := os.Getenv("SPAWN_ENV_FILE"); val != "" {
		config.Customize.EnvFile = val
		logger.Debug("Using environment variable SPAWN_ENV_FILE", "value", val)
	}
	if val := os.Getenv("SPAWN_DOCKERFILE_CHUNK"); val != "" {
		config.Customize.DockerfileChunk = val
		logger.Debug("Using environment variable SPAWN_DOCKERFILE_CHUNK", "value", val)
	}
	if val := os.Getenv("SPAWN_ENTRYPOINT_CHUNK"); val != "" {
		config.Customize.EntrypointChunk = val
		logger.Debug("Using environment variable SPAWN_ENTRYPOINT_CHUNK", "value", val)
	}
}

// ValidateConfig checks mode combinations and network settings.
func ValidateConfig(config *Config) error {
	switch config.General.InstallMode {
	case InstallModeUser, InstallModeSystem:
	default:
		return fmt.Errorf("invalid install mode %q (must be %q or %q)",
			config.General.InstallMode, InstallModeUser, InstallModeSystem)
	}

	switch config.General.Mode {
	case ModeLocal:
		if !strings.HasSuffix(config.General.Domain, ".localhost") {
			return fmt.Errorf("domain %q must end with '.localhost' in local mode", config.General.Domain)
		}
		if config.Certs.Email != "" {
			return fmt.Errorf("email is not used in local mode")
		}
	case ModeRemote:
		switch config.Certs.Mode {
		case CertModeLetsEncrypt:
			if config.Certs.Email == "" {
				return fmt.Errorf("email is required for Let's Encrypt certificates")
			}
		case CertModeProvided:
		default:
			return fmt.Errorf("certificate mode is required in remote mode (%q or %q)",
				CertModeLetsEncrypt, CertModeProvided)
		}
	default:
		return fmt.Errorf("invalid mode %q (must be %q or %q)", config.General.Mode, ModeLocal, ModeRemote)
	}

	if _, _, err := net.ParseCIDR(config.Network.Subnet); err != nil {
		return fmt.Errorf("invalid network subnet %q: %w", config.Network.Subnet, err)
	}

	for _, path := range []string{
		config.Customize.EnvFile,
		config.Customize.DockerfileChunk,
		config.Customize.EntrypointChunk,
	} {
		if path != "" && !fileExists(path) {
			return fmt.Errorf("customization fragment %s does not exist", path)
		}
	}

	return nil
}

func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Helper function to check if a file exists
func fileExists(filepath string) bool {
	_, err := os.Stat(filepath)
	return err == nil
}
