// Package proxy provisions the shared reverse proxy container that
// routes per-service hostnames to spawn containers. There is exactly
// one proxy per install, named <prefix>-proxy, attached to the shared
// network and publishing ports 80 and 443 on the host.
package proxy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/spawn/internal/common"
	"github.com/bnema/spawn/internal/templating"
	"github.com/bnema/spawn/pkg/docker"
)

// Image is the traefik release the proxy container runs.
const Image = "traefik:v3.1"

// Certificate pair expected in the certs directory for local and
// provided cert modes.
const (
	CertFileName = "cert.pem"
	KeyFileName  = "key.pem"
)

const startTimeout = 30 * time.Second

// Runtime is the slice of the container runtime the manager needs.
type Runtime interface {
	EnsureNetwork(ctx context.Context, name, subnet string) error
	CreateContainer(ctx context.Context, spec docker.ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
	FindContainer(ctx context.Context, name string) (*docker.ContainerRecord, error)
	WaitForRunning(ctx context.Context, id string, timeout time.Duration) error
}

// Manager renders the proxy configuration and drives the proxy
// container's lifecycle.
type Manager struct {
	runtime  Runtime
	cfg      *common.Config
	renderer *templating.Engine
}

func NewManager(runtime Runtime, cfg *common.Config, renderer *templating.Engine) *Manager {
	return &Manager{
		runtime:  runtime,
		cfg:      cfg,
		renderer: renderer,
	}
}

// ContainerName returns the proxy's runtime container name.
func (m *Manager) ContainerName() string {
	return m.cfg.ContainerName("proxy")
}

// Ensure brings the proxy container up: configuration is (re)rendered,
// the shared network is created if missing, and the container is
// created or started as needed. With recreate an existing container is
// replaced so config changes take effect. Returns true when Ensure
// started the container, false when it was already running.
func (m *Manager) Ensure(ctx context.Context, recreate bool) (bool, error) {
	dir, err := m.writeConfig()
	if err != nil {
		return false, err
	}

	if err := m.runtime.EnsureNetwork(ctx, m.cfg.Network.Name, m.cfg.Network.Subnet); err != nil {
		return false, err
	}

	name := m.ContainerName()
	existing, err := m.runtime.FindContainer(ctx, name)
	if err != nil {
		return false, err
	}

	if existing != nil && recreate {
		log.Info("Recreating proxy container", "name", name)
		if existing.State == "running" {
			if err := m.runtime.StopContainer(ctx, existing.ID); err != nil {
				return false, fmt.Errorf("failed to stop proxy: %w", err)
			}
		}
		if err := m.runtime.RemoveContainer(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("failed to remove proxy: %w", err)
		}
		existing = nil
	}

	if existing != nil {
		if existing.State == "running" {
			log.Debug("Proxy already running", "name", name)
			return false, nil
		}
		if err := m.runtime.StartContainer(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("failed to start proxy: %w", err)
		}
		if err := m.runtime.WaitForRunning(ctx, existing.ID, startTimeout); err != nil {
			return false, err
		}
		return true, nil
	}

	id, err := m.runtime.CreateContainer(ctx, m.containerSpec(dir))
	if err != nil {
		return false, err
	}
	if err := m.runtime.StartContainer(ctx, id); err != nil {
		return false, fmt.Errorf("failed to start proxy: %w", err)
	}
	if err := m.runtime.WaitForRunning(ctx, id, startTimeout); err != nil {
		return false, err
	}

	log.Info("Proxy container started", "name", name, "image", Image)
	return true, nil
}

// Stop stops the proxy container. Stopping a proxy that does not exist
// or is not running is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	existing, err := m.runtime.FindContainer(ctx, m.ContainerName())
	if err != nil {
		return err
	}
	if existing == nil || existing.State != "running" {
		log.Debug("Proxy not running", "name", m.ContainerName())
		return nil
	}
	return m.runtime.StopContainer(ctx, existing.ID)
}

// Status returns the proxy container's record, nil when it does not
// exist.
func (m *Manager) Status(ctx context.Context) (*docker.ContainerRecord, error) {
	return m.runtime.FindContainer(ctx, m.ContainerName())
}

// Running reports whether the proxy container is up.
func (m *Manager) Running(ctx context.Context) (bool, error) {
	record, err := m.Status(ctx)
	if err != nil {
		return false, err
	}
	return record != nil && record.State == "running", nil
}

// writeConfig renders the proxy configuration under the install's proxy
// directory and returns that directory.
func (m *Manager) writeConfig() (string, error) {
	dir := m.cfg.ProxyDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create proxy config directory: %w", err)
	}

	static, err := m.renderer.RenderProxyStatic(templating.ProxyParams{
		Network:         m.cfg.Network.Name,
		LogLevel:        traefikLogLevel(m.cfg.General.LogLevel),
		UseFileProvider: m.usesStaticCerts(),
		UseLetsEncrypt:  m.usesLetsEncrypt(),
		Email:           m.cfg.Certs.Email,
	})
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "traefik.yml"), []byte(static), 0o644); err != nil {
		return "", fmt.Errorf("failed to write proxy config: %w", err)
	}

	if m.usesStaticCerts() {
		dynamicDir := filepath.Join(dir, "dynamic")
		if err := os.MkdirAll(dynamicDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create proxy dynamic config directory: %w", err)
		}
		certs, err := m.renderer.RenderProxyCerts(templating.CertFileParams{
			CertFile: CertFileName,
			KeyFile:  KeyFileName,
		})
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dynamicDir, "certs.yml"), []byte(certs), 0o644); err != nil {
			return "", fmt.Errorf("failed to write proxy certs config: %w", err)
		}
	}

	if m.usesLetsEncrypt() {
		// ACME state carries the account key, keep it private.
		if err := os.MkdirAll(filepath.Join(dir, "letsencrypt"), 0o700); err != nil {
			return "", fmt.Errorf("failed to create ACME state directory: %w", err)
		}
	}

	return dir, nil
}

func (m *Manager) containerSpec(dir string) docker.ContainerSpec {
	binds := []string{
		m.cfg.Engine.Sock + ":/var/run/docker.sock:ro",
		filepath.Join(dir, "traefik.yml") + ":/etc/traefik/traefik.yml:ro",
	}
	if m.usesStaticCerts() {
		binds = append(binds,
			filepath.Join(dir, "dynamic")+":/etc/traefik/dynamic:ro",
			m.cfg.Certs.Dir+":/certs:ro",
		)
	}
	if m.usesLetsEncrypt() {
		binds = append(binds, filepath.Join(dir, "letsencrypt")+":/letsencrypt")
	}

	return docker.ContainerSpec{
		Name:    m.ContainerName(),
		Image:   Image,
		Labels:  map[string]string{"spawn.proxy": "true"},
		Binds:   binds,
		Network: m.cfg.Network.Name,
		Publish: []docker.PortBinding{
			{Host: 80, Container: 80},
			{Host: 443, Container: 443},
		},
	}
}

// usesStaticCerts reports whether TLS comes from certificate files in
// the certs directory, as opposed to the ACME resolver.
func (m *Manager) usesStaticCerts() bool {
	return m.cfg.IsLocal() || m.cfg.Certs.Mode == common.CertModeProvided
}

func (m *Manager) usesLetsEncrypt() bool {
	return !m.cfg.IsLocal() && m.cfg.Certs.Mode == common.CertModeLetsEncrypt
}

func traefikLogLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return "DEBUG"
	case "warn":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}
