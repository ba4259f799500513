package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/bnema/spawn/internal/image"
	"github.com/bnema/spawn/pkg/docker"
)

// RenderError prints err in its user-facing form. Most error kinds
// carry their own recovery hint in the message; build failures get the
// log tail, runtime failures a pointer at the engine.
func RenderError(err error) {
	var (
		buildErr    *image.BuildError
		unavailable *docker.RuntimeUnavailableError
	)

	switch {
	case errors.As(err, &buildErr):
		color.Red("Error: build failed for image %s: %v", buildErr.Tag, buildErr.Cause)
		if buildErr.LogTail != "" {
			fmt.Println("Last build output:")
			fmt.Println(buildErr.LogTail)
		}
		fmt.Println("Full build log:", buildErr.LogPath)
	case errors.As(err, &unavailable):
		color.Red("Error: %v", err)
		fmt.Println("Check that the container engine is installed and running.")
	default:
		color.Red("Error: %v", err)
	}
}
