package common

import (
	"os"
	"path/filepath"
)

// Config is the persisted spawn configuration, one file per install mode.
// It is loaded once per invocation and passed explicitly to every component
// that needs it; only the setup command writes it.
type Config struct {
	General   GeneralConfig   `yaml:"General"`
	Engine    EngineConfig    `yaml:"Engine"`
	Network   NetworkConfig   `yaml:"Network"`
	Certs     CertConfig      `yaml:"Certs"`
	Customize CustomizeConfig `yaml:"Customize"`
}

type GeneralConfig struct {
	InstallMode string `yaml:"installMode"` // "user" or "system"
	Mode        string `yaml:"mode"`        // "local" or "remote"
	Prefix      string `yaml:"prefix"`      // container name prefix
	Domain      string `yaml:"domain"`
	Timezone    string `yaml:"timezone"`
	LogLevel    string `yaml:"logLevel"`
	CreatedAt   string `yaml:"createdAt"`
}

type EngineConfig struct {
	Sock string `yaml:"dockersock"`
}

type NetworkConfig struct {
	Name   string   `yaml:"name"`
	Subnet string   `yaml:"subnet"`
	DNS    []string `yaml:"dns"`
}

type CertConfig struct {
	Mode  string `yaml:"mode"` // "letsencrypt" or "provided", remote only
	Dir   string `yaml:"dir"`
	Email string `yaml:"email"`
}

type CustomizeConfig struct {
	EnvFile         string `yaml:"envFile"`
	DockerfileChunk string `yaml:"dockerfileChunk"`
	EntrypointChunk string `yaml:"entrypointChunk"`
}

// Root returns the install root directory for the config's install mode.
func (c *Config) Root() string {
	dir, err := ConfigDir(c.General.InstallMode)
	if err != nil {
		return filepath.Join(os.TempDir(), "spawn")
	}
	return dir
}

// VolumesDir returns the root of the persistent volume tree,
// <root>/volumes/<spawnName>/<serviceId>/...
func (c *Config) VolumesDir() string {
	return filepath.Join(c.Root(), "volumes")
}

// LogsDir returns the root of the per-run container log directories.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Root(), "logs")
}

// BuildsDir returns the directory holding build contexts and build logs.
func (c *Config) BuildsDir() string {
	return filepath.Join(c.Root(), "builds")
}

// ProxyDir returns the directory holding the reverse proxy's rendered
// configuration and ACME state.
func (c *Config) ProxyDir() string {
	return filepath.Join(c.Root(), "proxy")
}

// ConfigFilePath returns the path of the persisted config file.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.Root(), "config.yaml")
}

// IsLocal reports whether the proxy runs in local (.localhost) mode.
func (c *Config) IsLocal() bool {
	return c.General.Mode == "local"
}

// ContainerName returns the runtime container name for a spawn name.
func (c *Config) ContainerName(name string) string {
	return c.General.Prefix + "-" + name
}

// SpawnName strips the configured prefix from a runtime container name.
// Returns the empty string when the name does not carry the prefix.
func (c *Config) SpawnName(containerName string) string {
	prefix := c.General.Prefix + "-"
	if len(containerName) <= len(prefix) || containerName[:len(prefix)] != prefix {
		return ""
	}
	return containerName[len(prefix):]
}
