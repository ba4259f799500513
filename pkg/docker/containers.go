package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

// ContainerSpec holds everything needed to create one container.
type ContainerSpec struct {
	Name     string
	Image    string
	Hostname string
	Env      []string
	Labels   map[string]string
	// Binds are host mounts in "host:container[:mode]" form, attached
	// in the given order.
	Binds   []string
	Network string
	DNS     []string
	// Ports are container ports to expose to the attached network.
	// Nothing is published on the host.
	Ports []int
	// Publish maps host ports to container ports. Only the reverse
	// proxy publishes anything on the host.
	Publish []PortBinding
	// ShmSize overrides the engine's /dev/shm size in bytes when
	// positive.
	ShmSize int64
}

// PortBinding publishes one container port on a host port.
type PortBinding struct {
	Host      int
	Container int
}

// ContainerRecord is the daemon's view of one container.
type ContainerRecord struct {
	ID      string
	Name    string
	Image   string
	State   string
	Status  string
	Created time.Time
	Labels  map[string]string
}

// CreateContainer creates a container from spec and returns its id. The
// container is created stopped; use StartContainer to run it.
func (c *Client) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	exposedPorts := nat.PortSet{}
	for _, port := range spec.Ports {
		exposedPorts[nat.Port(fmt.Sprintf("%d/tcp", port))] = struct{}{}
	}

	portBindings := nat.PortMap{}
	for _, pb := range spec.Publish {
		port := nat.Port(fmt.Sprintf("%d/tcp", pb.Container))
		exposedPorts[port] = struct{}{}
		portBindings[port] = append(portBindings[port], nat.PortBinding{
			HostPort: fmt.Sprintf("%d", pb.Host),
		})
	}

	log.Debug("Creating container",
		"name", spec.Name,
		"image", spec.Image,
		"network", spec.Network,
		"binds", len(spec.Binds))

	resp, err := c.cli.ContainerCreate(
		ctx,
		&container.Config{
			Image:        spec.Image,
			Hostname:     spec.Hostname,
			Env:          spec.Env,
			Labels:       spec.Labels,
			ExposedPorts: exposedPorts,
		},
		&container.HostConfig{
			Binds:        spec.Binds,
			DNS:          spec.DNS,
			PortBindings: portBindings,
			ShmSize:      spec.ShmSize,
			RestartPolicy: container.RestartPolicy{
				Name: "unless-stopped",
			},
		},
		&network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				spec.Network: {},
			},
		},
		nil,
		spec.Name,
	)
	if err != nil {
		return "", fmt.Errorf("container creation failed: %w", err)
	}

	return resp.ID, nil
}

// StartContainer starts a created or stopped container.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	if err := c.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("could not start container: %w", err)
	}
	return nil
}

// StopContainer stops a container, trying SIGTERM first and escalating
// to SIGKILL when the container does not exit in time.
func (c *Client) StopContainer(ctx context.Context, id string) error {
	stopped, err := c.stopGracefully(ctx, id, 10*time.Second)
	if err != nil {
		log.Warn("Failed to stop container gracefully", "container_id", id, "error", err)
	}

	if !stopped {
		if err := c.cli.ContainerKill(ctx, id, "SIGKILL"); err != nil {
			return fmt.Errorf("failed to stop container forcefully: %w", err)
		}
		log.Debug("Container stopped forcefully", "container_id", id)
		return nil
	}

	log.Debug("Container stopped gracefully", "container_id", id)
	return nil
}

func (c *Client) stopGracefully(ctx context.Context, id string, timeout time.Duration) (bool, error) {
	if err := c.cli.ContainerKill(ctx, id, "SIGTERM"); err != nil {
		return false, err
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for elapsed := 0; elapsed < int(timeout.Seconds()); elapsed++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}

		info, err := c.cli.ContainerInspect(ctx, id)
		if err != nil {
			return false, err
		}
		if !info.State.Running {
			return true, nil
		}
	}

	return false, nil
}

// RemoveContainer removes a container. It does not force removal of a
// running container.
func (c *Client) RemoveContainer(ctx context.Context, id string) error {
	if err := c.cli.ContainerRemove(ctx, id, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// ListContainers returns containers whose name starts with prefix.
// When all is false only running containers are returned.
func (c *Client) ListContainers(ctx context.Context, prefix string, all bool) ([]ContainerRecord, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, fmt.Errorf("error listing containers: %w", err)
	}

	records := make([]ContainerRecord, 0, len(containers))
	for _, ctr := range containers {
		for _, name := range ctr.Names {
			// Container names in the Docker API carry a leading slash.
			cleanName := strings.TrimPrefix(name, "/")
			if !strings.HasPrefix(cleanName, prefix) {
				continue
			}
			records = append(records, ContainerRecord{
				ID:      ctr.ID,
				Name:    cleanName,
				Image:   ctr.Image,
				State:   ctr.State,
				Status:  ctr.Status,
				Created: time.Unix(ctr.Created, 0),
				Labels:  ctr.Labels,
			})
			break
		}
	}

	return records, nil
}

// FindContainer looks a container up by exact name, in any state.
// Returns nil when no container has that name.
func (c *Client) FindContainer(ctx context.Context, name string) (*ContainerRecord, error) {
	records, err := c.ListContainers(ctx, name, true)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].Name == name {
			return &records[i], nil
		}
	}
	return nil, nil
}

// WaitForRunning polls a container until it reports running, or fails
// when it exits or the timeout elapses.
func (c *Client) WaitForRunning(ctx context.Context, id string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for container to start")
		case <-time.After(time.Second):
			info, err := c.cli.ContainerInspect(ctx, id)
			if err != nil {
				return fmt.Errorf("error checking container state: %w", err)
			}

			switch info.State.Status {
			case "running":
				return nil
			case "exited", "dead":
				logs, _ := c.containerLogTail(ctx, id)
				return fmt.Errorf("container exited unexpectedly. Logs: %s", logs)
			}
		}
	}
}

// LogStreamOptions bounds what StreamLogs returns.
type LogStreamOptions struct {
	// Tail limits output to the last n lines when positive.
	Tail int
	// Follow keeps the stream open for new output.
	Follow bool
	// Since drops output older than the given time when non-zero.
	Since time.Time
}

// StreamLogs copies a container's output to w, demultiplexing the
// engine's stdout/stderr framing.
func (c *Client) StreamLogs(ctx context.Context, id string, w io.Writer, opts LogStreamOptions) error {
	logOpts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
	}
	if opts.Tail > 0 {
		logOpts.Tail = fmt.Sprintf("%d", opts.Tail)
	}
	if !opts.Since.IsZero() {
		logOpts.Since = opts.Since.Format(time.RFC3339)
	}

	logs, err := c.cli.ContainerLogs(ctx, id, logOpts)
	if err != nil {
		return fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()

	_, err = stdcopy.StdCopy(w, w, logs)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to stream container logs: %w", err)
	}
	return nil
}

func (c *Client) containerLogTail(ctx context.Context, id string) (string, error) {
	var sb strings.Builder
	if err := c.StreamLogs(ctx, id, &sb, LogStreamOptions{Tail: 20}); err != nil {
		return "", err
	}
	return sb.String(), nil
}
