// Package spawn orchestrates the container lifecycle of dev
// environments: create, start, stop, remove, list. State is never
// stored locally; every operation re-observes the runtime and acts on
// the snapshot.
package spawn

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/spawn/internal/catalog"
	"github.com/bnema/spawn/internal/common"
	"github.com/bnema/spawn/internal/volumes"
	"github.com/bnema/spawn/pkg/docker"
)

// Runtime is the slice of the container runtime the orchestrator needs.
type Runtime interface {
	EnsureNetwork(ctx context.Context, name, subnet string) error
	CreateContainer(ctx context.Context, spec docker.ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
	ListContainers(ctx context.Context, prefix string, all bool) ([]docker.ContainerRecord, error)
	FindContainer(ctx context.Context, name string) (*docker.ContainerRecord, error)
	WaitForRunning(ctx context.Context, id string, timeout time.Duration) error
	StreamLogs(ctx context.Context, id string, w io.Writer, opts docker.LogStreamOptions) error
}

// NameConflictError means a container already holds the spawn's name.
// Recoverable with force.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("spawn %q already exists (use --force to replace it)", e.Name)
}

// ContainerRunningError means a removal target is still running.
// Recoverable by stopping first.
type ContainerRunningError struct {
	Name string
}

func (e *ContainerRunningError) Error() string {
	return fmt.Sprintf("spawn %q is running, stop it before removing", e.Name)
}

// Credentials identify the user created inside the container.
type Credentials struct {
	Username string
	Password string
	UID      int
	GID      int
}

// RunRequest describes one container run.
type RunRequest struct {
	Name        string
	ImageTag    string
	Services    []catalog.Service
	Mounts      []volumes.Mount
	Credentials Credentials
	Force       bool
	// ShmSize overrides the container's /dev/shm size in bytes when
	// positive.
	ShmSize int64
}

// Status is the observed snapshot of one spawn.
type Status struct {
	Name          string
	ContainerName string
	State         string
	Image         string
	Created       time.Time
	Services      []string
	URLs          []ServiceURL
}

// Running reports whether the snapshot saw a running container.
func (s Status) Running() bool {
	return s.State == "running"
}

// Orchestrator drives spawn lifecycles against one runtime and one
// loaded config. It never writes the config back.
type Orchestrator struct {
	runtime Runtime
	config  *common.Config
}

func NewOrchestrator(runtime Runtime, cfg *common.Config) *Orchestrator {
	return &Orchestrator{runtime: runtime, config: cfg}
}

// Run creates and starts the container for req. An existing container
// under the same name fails with NameConflictError unless req.Force,
// which stops and removes it first (best-effort: failures there are
// logged, since the old container may already be stopped or gone). The
// mounts are attached exactly in the order given.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*Status, error) {
	containerName := o.config.ContainerName(req.Name)

	existing, err := o.runtime.FindContainer(ctx, containerName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !req.Force {
			return nil, &NameConflictError{Name: req.Name}
		}

		log.Info("Replacing existing container", "name", containerName, "state", existing.State)
		if err := o.runtime.StopContainer(ctx, existing.ID); err != nil {
			log.Warn("Failed to stop existing container", "name", containerName, "error", err)
		}
		if err := o.runtime.RemoveContainer(ctx, existing.ID); err != nil {
			log.Warn("Failed to remove existing container", "name", containerName, "error", err)
		}
	}

	if err := o.runtime.EnsureNetwork(ctx, o.config.Network.Name, o.config.Network.Subnet); err != nil {
		return nil, err
	}

	ids := make([]string, len(req.Services))
	ports := make([]int, len(req.Services))
	for i, svc := range req.Services {
		ids[i] = svc.ID
		ports[i] = svc.Port
	}

	binds := make([]string, len(req.Mounts))
	for i, m := range req.Mounts {
		binds[i] = m.Bind()
	}

	spec := docker.ContainerSpec{
		Name:     containerName,
		Image:    req.ImageTag,
		Hostname: req.Name,
		Env: []string{
			"USERNAME=" + req.Credentials.Username,
			"PASSWORD=" + req.Credentials.Password,
			fmt.Sprintf("UID=%d", req.Credentials.UID),
			fmt.Sprintf("GID=%d", req.Credentials.GID),
			"SERVICES=" + strings.Join(ids, ","),
		},
		Labels:  buildLabels(req.Name, req.Services, o.config),
		Binds:   binds,
		Network: o.config.Network.Name,
		DNS:     o.config.Network.DNS,
		Ports:   ports,
		ShmSize: req.ShmSize,
	}

	id, err := o.runtime.CreateContainer(ctx, spec)
	if err != nil {
		return nil, err
	}

	if err := o.runtime.StartContainer(ctx, id); err != nil {
		return nil, err
	}
	if err := o.runtime.WaitForRunning(ctx, id, 30*time.Second); err != nil {
		return nil, err
	}

	log.Info("Spawn running", "name", req.Name, "image", req.ImageTag)
	return &Status{
		Name:          req.Name,
		ContainerName: containerName,
		State:         "running",
		Image:         req.ImageTag,
		Created:       time.Now(),
		Services:      ids,
		URLs:          serviceURLs(req.Name, o.config.General.Domain, req.Services, req.Credentials.Password),
	}, nil
}

// List returns the observed snapshot of every spawn, sorted by name.
// With all false only running spawns are included. The reverse proxy's
// own container is not a spawn and is excluded.
func (o *Orchestrator) List(ctx context.Context, all bool) ([]Status, error) {
	records, err := o.runtime.ListContainers(ctx, o.config.General.Prefix+"-", all)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(records))
	for _, rec := range records {
		name := o.config.SpawnName(rec.Name)
		if name == "" || name == "proxy" {
			continue
		}

		statuses = append(statuses, Status{
			Name:          name,
			ContainerName: rec.Name,
			State:         rec.State,
			Image:         rec.Image,
			Created:       rec.Created,
			Services:      servicesFromLabels(rec.Labels),
			URLs:          urlsFromLabels(name, rec.Labels, o.config.General.Domain),
		})
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}

// Stop stops the named spawns, or every spawn when all is set. Stopping
// a non-running spawn is a no-op; an unknown name is only a warning.
// With alsoRemove each stopped container is removed afterwards; the
// spawn's volume directories always survive.
func (o *Orchestrator) Stop(ctx context.Context, names []string, all, alsoRemove bool) error {
	targets, err := o.resolveTargets(ctx, names, all)
	if err != nil {
		return err
	}

	for _, target := range targets {
		if target.record == nil {
			log.Warn("No spawn with this name", "name", target.name)
			continue
		}

		if target.record.State == "running" {
			log.Info("Stopping spawn", "name", target.name)
			if err := o.runtime.StopContainer(ctx, target.record.ID); err != nil {
				return fmt.Errorf("failed to stop %s: %w", target.name, err)
			}
		} else {
			log.Debug("Spawn not running, nothing to stop", "name", target.name, "state", target.record.State)
		}

		if alsoRemove {
			log.Info("Removing spawn container", "name", target.name)
			if err := o.runtime.RemoveContainer(ctx, target.record.ID); err != nil {
				return fmt.Errorf("failed to remove %s: %w", target.name, err)
			}
		}
	}

	return nil
}

// Remove removes the named stopped spawns, or every stopped spawn when
// all is set. A named running target fails with ContainerRunningError
// and is left running; there is no implicit stop. With all, running
// spawns are skipped with a warning instead.
func (o *Orchestrator) Remove(ctx context.Context, names []string, all bool) error {
	targets, err := o.resolveTargets(ctx, names, all)
	if err != nil {
		return err
	}

	for _, target := range targets {
		if target.record == nil {
			log.Warn("No spawn with this name", "name", target.name)
			continue
		}

		if target.record.State == "running" {
			if all {
				log.Warn("Spawn is running, skipping", "name", target.name)
				continue
			}
			return &ContainerRunningError{Name: target.name}
		}

		log.Info("Removing spawn container", "name", target.name)
		if err := o.runtime.RemoveContainer(ctx, target.record.ID); err != nil {
			return fmt.Errorf("failed to remove %s: %w", target.name, err)
		}
	}

	return nil
}

// Logs streams the container log output of one spawn to w.
func (o *Orchestrator) Logs(ctx context.Context, name string, w io.Writer, opts docker.LogStreamOptions) error {
	record, err := o.runtime.FindContainer(ctx, o.config.ContainerName(name))
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no spawn named %q", name)
	}

	return o.runtime.StreamLogs(ctx, record.ID, w, opts)
}

type target struct {
	name   string
	record *docker.ContainerRecord
}

// resolveTargets observes the runtime once and matches the requested
// names against it. With all set, every known spawn is a target.
func (o *Orchestrator) resolveTargets(ctx context.Context, names []string, all bool) ([]target, error) {
	if all {
		records, err := o.runtime.ListContainers(ctx, o.config.General.Prefix+"-", true)
		if err != nil {
			return nil, err
		}

		targets := make([]target, 0, len(records))
		for i := range records {
			name := o.config.SpawnName(records[i].Name)
			if name == "" || name == "proxy" {
				continue
			}
			targets = append(targets, target{name: name, record: &records[i]})
		}
		sort.Slice(targets, func(i, j int) bool { return targets[i].name < targets[j].name })
		return targets, nil
	}

	targets := make([]target, 0, len(names))
	for _, name := range names {
		record, err := o.runtime.FindContainer(ctx, o.config.ContainerName(name))
		if err != nil {
			return nil, err
		}
		targets = append(targets, target{name: name, record: record})
	}
	return targets, nil
}
