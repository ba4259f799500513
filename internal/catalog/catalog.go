// Package catalog holds the closed registry of services a spawn can run.
// Definitions are read-only after initialization; lookups hand out copies
// so callers can never mutate the registry.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Known service identifiers.
const (
	ServiceJupyter    = "jupyter"
	ServiceJupyterLab = "jupyterlab"
	ServiceJupyterHub = "jupyterhub"
	ServiceVSCode     = "vscode"
	ServiceRStudio    = "rstudio"
)

// VolumeBinding declares one persistent path a service needs inside the
// container. Subpath is relative to the per-spawn, per-service volume
// directory on the host. ContainerPath may start with "~", which the
// volume planner resolves to the container user's home.
type VolumeBinding struct {
	Subpath       string
	ContainerPath string
}

// Service describes one optional interactive application: the template
// fragments it contributes to the image build and container startup, the
// internal port its web UI listens on, and the persistent paths it needs.
type Service struct {
	ID            string
	Name          string
	Port          int
	BuildFragment string
	StartFragment string
	// TokenAuth marks services reached with a ?token= query parameter
	// instead of the container user's login.
	TokenAuth bool
	Volumes   []VolumeBinding
}

// UnknownServiceError is returned when a service id is not in the catalog.
type UnknownServiceError struct {
	ID string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q (available: %s)", e.ID, strings.Join(IDs(), ", "))
}

var services = map[string]Service{
	ServiceJupyter: {
		ID:            ServiceJupyter,
		Name:          "Jupyter Notebook",
		Port:          8888,
		BuildFragment: ServiceJupyter,
		StartFragment: ServiceJupyter,
		TokenAuth:     true,
		Volumes: []VolumeBinding{
			{Subpath: "jupyter", ContainerPath: "~/.jupyter"},
			{Subpath: "ipython", ContainerPath: "~/.ipython"},
		},
	},
	ServiceJupyterLab: {
		ID:            ServiceJupyterLab,
		Name:          "JupyterLab",
		Port:          8889,
		BuildFragment: ServiceJupyterLab,
		StartFragment: ServiceJupyterLab,
		TokenAuth:     true,
		Volumes: []VolumeBinding{
			{Subpath: "jupyter", ContainerPath: "~/.jupyter"},
			{Subpath: "ipython", ContainerPath: "~/.ipython"},
			{Subpath: "local_jupyter", ContainerPath: "~/.local/share/jupyter"},
		},
	},
	ServiceJupyterHub: {
		ID:            ServiceJupyterHub,
		Name:          "JupyterHub",
		Port:          8000,
		BuildFragment: ServiceJupyterHub,
		StartFragment: ServiceJupyterHub,
		Volumes: []VolumeBinding{
			{Subpath: "jupyter", ContainerPath: "~/.jupyter"},
			{Subpath: "ipython", ContainerPath: "~/.ipython"},
			{Subpath: "local_jupyter", ContainerPath: "~/.local/share/jupyter"},
			{Subpath: "jupyterhub_data", ContainerPath: "~/.local/share/jupyterhub"},
			{Subpath: "jupyterhub_config", ContainerPath: "~/.jupyterhub"},
		},
	},
	ServiceVSCode: {
		ID:            ServiceVSCode,
		Name:          "VS Code",
		Port:          8842,
		BuildFragment: ServiceVSCode,
		StartFragment: ServiceVSCode,
		Volumes: []VolumeBinding{
			{Subpath: "vscode", ContainerPath: "~/.vscode"},
			{Subpath: "config", ContainerPath: "~/.config/Code"},
		},
	},
	ServiceRStudio: {
		ID:            ServiceRStudio,
		Name:          "RStudio",
		Port:          8787,
		BuildFragment: ServiceRStudio,
		StartFragment: ServiceRStudio,
	},
}

var defaultServices = []string{ServiceJupyter, ServiceRStudio, ServiceVSCode}

// Lookup returns the definition for a service id. The returned value is a
// copy, including its volume list.
func Lookup(id string) (Service, error) {
	svc, ok := services[id]
	if !ok {
		return Service{}, &UnknownServiceError{ID: id}
	}
	return copyService(svc), nil
}

// Parse resolves a user-supplied service selection (comma or space
// separated ids) into definitions, deduplicated in first-seen order.
// An empty selection picks the default services.
func Parse(raw string) ([]Service, error) {
	ids := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(ids) == 0 {
		return Defaults(), nil
	}

	seen := make(map[string]bool, len(ids))
	result := make([]Service, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		svc, err := Lookup(id)
		if err != nil {
			return nil, err
		}
		seen[id] = true
		result = append(result, svc)
	}
	return result, nil
}

// Defaults returns the built-in default service set.
func Defaults() []Service {
	result := make([]Service, 0, len(defaultServices))
	for _, id := range defaultServices {
		result = append(result, copyService(services[id]))
	}
	return result
}

// DefaultIDs returns the ids of the default service set.
func DefaultIDs() []string {
	ids := make([]string, len(defaultServices))
	copy(ids, defaultServices)
	return ids
}

// All returns every registered service, sorted by id.
func All() []Service {
	result := make([]Service, 0, len(services))
	for _, svc := range services {
		result = append(result, copyService(svc))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// IDs returns every registered service id, sorted.
func IDs() []string {
	ids := make([]string, 0, len(services))
	for id := range services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func copyService(svc Service) Service {
	out := svc
	if len(svc.Volumes) > 0 {
		out.Volumes = make([]VolumeBinding, len(svc.Volumes))
		copy(out.Volumes, svc.Volumes)
	}
	return out
}
