// Package docker wraps the Docker Engine API for the handful of
// operations spawn needs: verifying the daemon, building images, and
// managing containers and their network.
package docker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/docker/docker/client"
)

// Oldest engine version known to support everything spawn relies on
// (BuildKit tags, network-scoped aliases).
var minEngineVersion = semver.MustParse("20.10.0")

// RuntimeUnavailableError means the container runtime cannot serve
// requests. Not recoverable within a single invocation.
type RuntimeUnavailableError struct {
	Cause error
}

func (e *RuntimeUnavailableError) Error() string {
	return fmt.Sprintf("container runtime unavailable: %v", e.Cause)
}

func (e *RuntimeUnavailableError) Unwrap() error {
	return e.Cause
}

// Client talks to one Docker (or Podman) daemon over a unix socket.
type Client struct {
	cli  *client.Client
	sock string
}

// New creates a client for the daemon behind sock. The socket must
// exist; the daemon itself is not contacted until Verify or the first
// operation.
func New(sock string) (*Client, error) {
	if sock == "" {
		return nil, fmt.Errorf("engine socket path is empty")
	}

	if _, err := os.Stat(sock); err != nil {
		return nil, &RuntimeUnavailableError{Cause: err}
	}

	cli, err := client.NewClientWithOpts(
		client.WithAPIVersionNegotiation(),
		client.WithHost("unix://"+sock),
	)
	if err != nil {
		return nil, &RuntimeUnavailableError{Cause: err}
	}

	log.Debug("Docker client initialized", "socket", sock)
	return &Client{cli: cli, sock: sock}, nil
}

// Verify pings the daemon and checks its version against the minimum
// supported engine release.
func (c *Client) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := c.cli.ServerVersion(ctx)
	if err != nil {
		return &RuntimeUnavailableError{Cause: fmt.Errorf("cannot connect to daemon at %s: %w", c.sock, err)}
	}

	engine, err := semver.NewVersion(version.Version)
	if err != nil {
		// Forks and nightlies report versions semver cannot parse.
		// Trust them rather than refusing to run.
		log.Warn("Cannot parse engine version, skipping version check", "version", version.Version)
		return nil
	}

	if engine.LessThan(minEngineVersion) {
		return &RuntimeUnavailableError{
			Cause: fmt.Errorf("engine version %s is older than minimum supported %s", engine, minEngineVersion),
		}
	}

	log.Debug("Engine verified", "version", version.Version, "api", version.APIVersion)
	return nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}
