// Package volumes plans the bind mounts for one spawn: user-supplied
// ad-hoc mounts, the per-service persistent directories, and the
// per-run log directory. Mount order is part of the contract: parents
// must be attached before anything nested beneath them, or the nested
// mount vanishes under the parent.
package volumes

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/spawn/internal/catalog"
)

// Mount is one host bind, attached in plan order.
type Mount struct {
	Source string
	Target string
	Mode   string
}

// Bind returns the mount in the engine's "host:container:mode" form.
func (m Mount) Bind() string {
	return m.Source + ":" + m.Target + ":" + m.Mode
}

// VolumeError reports a host path that could not be validated or
// created. It aborts the plan before any runtime call.
type VolumeError struct {
	Path  string
	Cause error
}

func (e *VolumeError) Error() string {
	return fmt.Sprintf("volume path %s: %v", e.Path, e.Cause)
}

func (e *VolumeError) Unwrap() error {
	return e.Cause
}

// Planner resolves volume plans against one volume root and one log
// root on the host.
type Planner struct {
	volumesRoot string
	logsRoot    string
}

func NewPlanner(volumesRoot, logsRoot string) *Planner {
	return &Planner{volumesRoot: volumesRoot, logsRoot: logsRoot}
}

// Plan resolves the full mount set for a spawn: ad-hoc mounts first
// validated against the host, then each service's persistent
// directories under <volumesRoot>/<spawnName>/<serviceId>/, created as
// needed. The result is sorted with SortMounts and re-planning the same
// inputs yields the identical sequence. Username resolves "~" targets
// to the container user's home.
func (p *Planner) Plan(spawnName string, services []catalog.Service, adHoc []string, username string) ([]Mount, error) {
	mounts := make([]Mount, 0, len(adHoc)+4*len(services))

	for _, raw := range adHoc {
		mount, err := parseAdHoc(raw, username)
		if err != nil {
			return nil, err
		}
		mounts = append(mounts, mount)
	}

	for _, svc := range services {
		for _, binding := range svc.Volumes {
			source := filepath.Join(p.volumesRoot, spawnName, svc.ID, binding.Subpath)
			if err := os.MkdirAll(source, 0o755); err != nil {
				return nil, &VolumeError{Path: source, Cause: err}
			}
			mounts = append(mounts, Mount{
				Source: source,
				Target: expandTarget(binding.ContainerPath, username),
				Mode:   "rw",
			})
		}
	}

	if err := checkDistinctTargets(mounts); err != nil {
		return nil, err
	}

	SortMounts(mounts)
	return mounts, nil
}

// LogDir allocates the next unused log directory for a run,
// <logsRoot>/<spawnName>.<N> with N counting up from 1, and returns it
// as a mount at /var/log/spawn.
func (p *Planner) LogDir(spawnName string) (Mount, error) {
	for n := 1; ; n++ {
		dir := filepath.Join(p.logsRoot, fmt.Sprintf("%s.%d", spawnName, n))
		if _, err := os.Stat(dir); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return Mount{}, &VolumeError{Path: dir, Cause: err}
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Mount{}, &VolumeError{Path: dir, Cause: err}
		}
		return Mount{Source: dir, Target: "/var/log/spawn", Mode: "rw"}, nil
	}
}

// SortMounts orders mounts by container path depth ascending, ties
// broken by lexical order. Shallower mounts attach first, so a nested
// mount is always applied after the parent it lives under.
func SortMounts(mounts []Mount) {
	sort.Slice(mounts, func(i, j int) bool {
		di, dj := pathDepth(mounts[i].Target), pathDepth(mounts[j].Target)
		if di != dj {
			return di < dj
		}
		return mounts[i].Target < mounts[j].Target
	})
}

func pathDepth(target string) int {
	return strings.Count(path.Clean(target), "/")
}

// parseAdHoc resolves one "host:container[:mode]" specification. The
// host path must already exist.
func parseAdHoc(raw, username string) (Mount, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Mount{}, &VolumeError{
			Path:  raw,
			Cause: errors.New("invalid volume specification, format is host:container[:mode]"),
		}
	}

	mode := "rw"
	if len(parts) == 3 {
		mode = parts[2]
		if mode != "rw" && mode != "ro" {
			return Mount{}, &VolumeError{
				Path:  raw,
				Cause: fmt.Errorf("invalid mount mode %q, must be rw or ro", mode),
			}
		}
	}

	source, err := expandSource(parts[0])
	if err != nil {
		return Mount{}, &VolumeError{Path: parts[0], Cause: err}
	}
	if _, err := os.Stat(source); err != nil {
		return Mount{}, &VolumeError{Path: source, Cause: err}
	}

	return Mount{
		Source: source,
		Target: expandTarget(parts[1], username),
		Mode:   mode,
	}, nil
}

// expandSource resolves "~" against the invoking user's home and makes
// the path absolute.
func expandSource(source string) (string, error) {
	if source == "~" || strings.HasPrefix(source, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		source = filepath.Join(home, strings.TrimPrefix(source, "~"))
	}
	return filepath.Abs(source)
}

// expandTarget resolves "~" against the container user's home.
func expandTarget(target, username string) string {
	if target == "~" || strings.HasPrefix(target, "~/") {
		target = path.Join("/home", username, strings.TrimPrefix(target, "~"))
	}
	return path.Clean(target)
}

func checkDistinctTargets(mounts []Mount) error {
	seen := make(map[string]bool, len(mounts))
	for _, m := range mounts {
		if seen[m.Target] {
			return &VolumeError{
				Path:  m.Target,
				Cause: errors.New("duplicate container path in mount set"),
			}
		}
		seen[m.Target] = true
	}
	return nil
}
