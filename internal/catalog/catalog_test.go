package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup_KnownService(t *testing.T) {
	svc, err := Lookup("jupyter")
	require.NoError(t, err)

	assert.Equal(t, "jupyter", svc.ID)
	assert.Equal(t, 8888, svc.Port)
	require.Len(t, svc.Volumes, 2)
	assert.Equal(t, "jupyter", svc.Volumes[0].Subpath)
	assert.Equal(t, "~/.jupyter", svc.Volumes[0].ContainerPath)
	assert.Equal(t, "ipython", svc.Volumes[1].Subpath)
	assert.Equal(t, "~/.ipython", svc.Volumes[1].ContainerPath)
}

func TestCatalog_Lookup_UnknownService(t *testing.T) {
	_, err := Lookup("emacs")
	require.Error(t, err)

	var unknownErr *UnknownServiceError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "emacs", unknownErr.ID)
	assert.Contains(t, err.Error(), "available:")
}

func TestCatalog_Lookup_ReturnsCopy(t *testing.T) {
	first, err := Lookup("vscode")
	require.NoError(t, err)

	first.Volumes[0].ContainerPath = "/tampered"
	first.Port = 1

	second, err := Lookup("vscode")
	require.NoError(t, err)
	assert.Equal(t, "~/.vscode", second.Volumes[0].ContainerPath)
	assert.Equal(t, 8842, second.Port)
}

func TestCatalog_Lookup_RStudioHasNoVolumes(t *testing.T) {
	svc, err := Lookup("rstudio")
	require.NoError(t, err)

	assert.Equal(t, 8787, svc.Port)
	assert.Empty(t, svc.Volumes)
}

func TestCatalog_DefaultIDs(t *testing.T) {
	assert.Equal(t, []string{"jupyter", "rstudio", "vscode"}, DefaultIDs())
}

func TestCatalog_Parse_CommaSeparated(t *testing.T) {
	svcs, err := Parse("vscode,jupyter")
	require.NoError(t, err)

	require.Len(t, svcs, 2)
	assert.Equal(t, "vscode", svcs[0].ID)
	assert.Equal(t, "jupyter", svcs[1].ID)
}

func TestCatalog_Parse_SpaceSeparatedAndDeduplicated(t *testing.T) {
	svcs, err := Parse("rstudio vscode, rstudio")
	require.NoError(t, err)

	require.Len(t, svcs, 2)
	assert.Equal(t, "rstudio", svcs[0].ID)
	assert.Equal(t, "vscode", svcs[1].ID)
}

func TestCatalog_Parse_EmptySelectsDefaults(t *testing.T) {
	svcs, err := Parse("")
	require.NoError(t, err)

	ids := make([]string, len(svcs))
	for i, svc := range svcs {
		ids[i] = svc.ID
	}
	assert.Equal(t, DefaultIDs(), ids)
}

func TestCatalog_Parse_UnknownService(t *testing.T) {
	_, err := Parse("vscode,nano")
	require.Error(t, err)

	var unknownErr *UnknownServiceError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "nano", unknownErr.ID)
}

func TestCatalog_All_SortedAndComplete(t *testing.T) {
	all := All()
	require.Len(t, all, 5)

	ids := make([]string, len(all))
	for i, svc := range all {
		ids[i] = svc.ID
	}
	assert.Equal(t, []string{"jupyter", "jupyterhub", "jupyterlab", "rstudio", "vscode"}, ids)
	assert.Equal(t, ids, IDs())
}
