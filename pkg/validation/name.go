// Package validation checks user-supplied names and image references
// before they reach the container engine.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Spawn names become container names, hostnames and the <service>-<name>
// part of routed URLs, so they must be valid DNS labels:
// lowercase letters, digits and inner hyphens only.
var spawnNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// MaxSpawnNameLength keeps <service>-<name> within the 63-char DNS
// label limit for the longest service id (jupyterlab).
const MaxSpawnNameLength = 52

// reservedNames are suffixes the tool claims for its own containers.
var reservedNames = map[string]bool{
	"proxy": true,
}

// ValidateSpawnName validates an environment name supplied on the
// command line.
func ValidateSpawnName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > MaxSpawnNameLength {
		return fmt.Errorf("name too long: %d chars (max %d)", len(name), MaxSpawnNameLength)
	}

	if reservedNames[name] {
		return fmt.Errorf("name %q is reserved", name)
	}

	if !spawnNameRegex.MatchString(name) {
		return fmt.Errorf("invalid name %q: use lowercase letters, digits and inner hyphens", name)
	}

	return nil
}

// Repository name validation per Docker spec:
// - Lowercase letters, digits, and separators (., _, -)
// - Separators must not be adjacent and cannot start/end the name
// - Allows nested paths like "rocker/rstudio"
var repoNameRegex = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

// Tag validation per Docker spec:
// - Case-sensitive alphanumeric, dots, underscores and hyphens
// - Must start with an alphanumeric character
// - Max 128 characters
var tagRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// ValidateImageRef validates a base image reference like "ubuntu:22.04",
// "rocker/rstudio" or "registry.example.com:5000/team/base:1.2".
func ValidateImageRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("image reference cannot be empty")
	}

	if strings.Contains(ref, "..") {
		return fmt.Errorf("image reference contains path traversal sequence")
	}

	name, tag := SplitImageRef(ref)

	// A registry host may carry a port; strip host:port before
	// validating the repository path.
	if host, rest, ok := strings.Cut(name, "/"); ok && strings.Contains(host, ":") {
		name = rest
	}

	if !repoNameRegex.MatchString(name) {
		return fmt.Errorf("invalid image name %q: must contain only lowercase letters, digits, and separators (., _, -)", name)
	}

	if !tagRegex.MatchString(tag) {
		return fmt.Errorf("invalid image tag %q", tag)
	}

	return nil
}

// SplitImageRef splits an image reference into name and tag, defaulting
// the tag to "latest". A colon inside a registry host:port prefix is not
// mistaken for the tag separator.
func SplitImageRef(ref string) (string, string) {
	if idx := strings.Index(ref, ":"); idx != -1 {
		// A slash after the colon means the colon belongs to a
		// registry port, not to a tag.
		if slashIdx := strings.Index(ref, "/"); slashIdx != -1 && slashIdx > idx {
			if tagIdx := strings.Index(ref[slashIdx:], ":"); tagIdx != -1 {
				actualTagIdx := slashIdx + tagIdx
				return ref[:actualTagIdx], ref[actualTagIdx+1:]
			}
			return ref, "latest"
		}
		return ref[:idx], ref[idx+1:]
	}

	return ref, "latest"
}
