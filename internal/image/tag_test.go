package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTag_Canonical(t *testing.T) {
	tag := ComputeTag("ubuntu:22.04", []string{"vscode", "rstudio"})
	assert.Equal(t, "ubuntu-22-04_rstudio_vscode", tag)
}

func TestComputeTag_OrderIndependent(t *testing.T) {
	forward := ComputeTag("ubuntu:22.04", []string{"jupyter", "rstudio", "vscode"})
	backward := ComputeTag("ubuntu:22.04", []string{"vscode", "rstudio", "jupyter"})
	assert.Equal(t, forward, backward)
}

func TestComputeTag_NormalizesRef(t *testing.T) {
	tag := ComputeTag("ghcr.io/Rocker-Org/R-ver:4.3.1", []string{"rstudio"})
	assert.Equal(t, "ghcr-io-rocker-org-r-ver-4-3-1_rstudio", tag)
}

func TestComputeTag_NoServices(t *testing.T) {
	tag := ComputeTag("debian:bookworm", nil)
	assert.Equal(t, "debian-bookworm", tag)
}

func TestComputeTag_DistinctInputsDoNotCollide(t *testing.T) {
	tags := map[string]bool{
		ComputeTag("ubuntu:22.04", []string{"vscode"}):            true,
		ComputeTag("ubuntu:22.04", []string{"rstudio"}):           true,
		ComputeTag("ubuntu:22.04", []string{"vscode", "rstudio"}): true,
		ComputeTag("ubuntu:24.04", []string{"vscode"}):            true,
		ComputeTag("debian:12", []string{"vscode"}):               true,
	}
	assert.Len(t, tags, 5)
}

func TestComputeTag_DoesNotMutateInput(t *testing.T) {
	ids := []string{"vscode", "jupyter"}
	ComputeTag("ubuntu:22.04", ids)
	assert.Equal(t, []string{"vscode", "jupyter"}, ids)
}
