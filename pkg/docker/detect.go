package docker

import (
	"fmt"
	"os"
)

func fileExists(filepath string) bool {
	_, err := os.Stat(filepath)
	return !os.IsNotExist(err)
}

// IsRunningInContainer reports whether this process itself runs inside
// a container.
func IsRunningInContainer() bool {
	return fileExists("/.iscontainer") || fileExists("/.dockerenv")
}

// DetectPodman looks for a Podman socket and returns its path when the
// Docker socket is absent but Podman's is present.
func DetectPodman() (bool, string) {
	if fileExists("/var/run/docker.sock") {
		return false, ""
	}

	candidates := []string{
		"/run/podman/podman.sock",
		fmt.Sprintf("/run/user/%d/podman/podman.sock", os.Getuid()),
	}
	for _, sock := range candidates {
		if fileExists(sock) {
			return true, sock
		}
	}

	return false, ""
}
