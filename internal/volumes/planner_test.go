package volumes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/spawn/internal/catalog"
)

func testPlanner(t *testing.T) (*Planner, string) {
	t.Helper()
	root := t.TempDir()
	return NewPlanner(filepath.Join(root, "volumes"), filepath.Join(root, "logs")), root
}

func jupyterService(t *testing.T) []catalog.Service {
	t.Helper()
	svc, err := catalog.Lookup("jupyter")
	require.NoError(t, err)
	return []catalog.Service{svc}
}

func TestPlanner_Plan_AdHocPlusServiceMounts(t *testing.T) {
	planner, root := testPlanner(t)

	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "projects"), 0o755))

	mounts, err := planner.Plan("mydev", jupyterService(t), []string{"~/projects:/mnt/projects"}, "alice")
	require.NoError(t, err)
	require.Len(t, mounts, 3)

	// Shallowest container path first, equal depths in lexical order.
	assert.Equal(t, "/mnt/projects", mounts[0].Target)
	assert.Equal(t, filepath.Join(home, "projects"), mounts[0].Source)
	assert.Equal(t, "/home/alice/.ipython", mounts[1].Target)
	assert.Equal(t, "/home/alice/.jupyter", mounts[2].Target)

	assert.Equal(t, filepath.Join(root, "volumes", "mydev", "jupyter", "ipython"), mounts[1].Source)
	assert.Equal(t, filepath.Join(root, "volumes", "mydev", "jupyter", "jupyter"), mounts[2].Source)

	for _, m := range mounts[1:] {
		info, statErr := os.Stat(m.Source)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}
}

func TestPlanner_Plan_NestedTargetsParentFirst(t *testing.T) {
	planner, _ := testPlanner(t)

	parentDir := t.TempDir()
	childDir := t.TempDir()

	// Child given first on purpose; the plan must still attach the
	// parent mount before the nested one.
	mounts, err := planner.Plan("mydev", nil, []string{
		childDir + ":/home/user/.vscode",
		parentDir + ":/home/user",
	}, "user")
	require.NoError(t, err)
	require.Len(t, mounts, 2)

	assert.Equal(t, "/home/user", mounts[0].Target)
	assert.Equal(t, "/home/user/.vscode", mounts[1].Target)
}

func TestPlanner_Plan_Deterministic(t *testing.T) {
	planner, _ := testPlanner(t)

	dataDir := t.TempDir()
	adHoc := []string{dataDir + ":/mnt/data:ro"}

	first, err := planner.Plan("mydev", jupyterService(t), adHoc, "alice")
	require.NoError(t, err)

	second, err := planner.Plan("mydev", jupyterService(t), adHoc, "alice")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPlanner_Plan_MissingHostPathAborts(t *testing.T) {
	planner, root := testPlanner(t)

	_, err := planner.Plan("mydev", jupyterService(t), []string{"/does/not/exist:/mnt/data"}, "alice")
	require.Error(t, err)

	var volErr *VolumeError
	require.True(t, errors.As(err, &volErr))
	assert.Equal(t, "/does/not/exist", volErr.Path)

	// Ad-hoc validation fails before any service directory is created.
	_, statErr := os.Stat(filepath.Join(root, "volumes", "mydev"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPlanner_Plan_InvalidSpec(t *testing.T) {
	planner, _ := testPlanner(t)

	_, err := planner.Plan("mydev", nil, []string{"/just/one/path"}, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host:container")

	dataDir := t.TempDir()
	_, err = planner.Plan("mydev", nil, []string{dataDir + ":/mnt/data:rx"}, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rw or ro")
}

func TestPlanner_Plan_DuplicateTargets(t *testing.T) {
	planner, _ := testPlanner(t)

	first := t.TempDir()
	second := t.TempDir()

	_, err := planner.Plan("mydev", nil, []string{
		first + ":/mnt/data",
		second + ":/mnt/data",
	}, "alice")
	require.Error(t, err)

	var volErr *VolumeError
	require.True(t, errors.As(err, &volErr))
	assert.Equal(t, "/mnt/data", volErr.Path)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestPlanner_Plan_ModePreserved(t *testing.T) {
	planner, _ := testPlanner(t)

	dataDir := t.TempDir()
	mounts, err := planner.Plan("mydev", nil, []string{dataDir + ":/mnt/data:ro"}, "alice")
	require.NoError(t, err)
	require.Len(t, mounts, 1)

	assert.Equal(t, "ro", mounts[0].Mode)
	assert.Equal(t, dataDir+":/mnt/data:ro", mounts[0].Bind())
}

func TestPlanner_LogDir_Numbering(t *testing.T) {
	planner, root := testPlanner(t)

	first, err := planner.LogDir("mydev")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "logs", "mydev.1"), first.Source)
	assert.Equal(t, "/var/log/spawn", first.Target)

	// The first directory now exists, so the next run gets .2.
	second, err := planner.LogDir("mydev")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "logs", "mydev.2"), second.Source)
}

func TestSortMounts_DepthThenLexical(t *testing.T) {
	mounts := []Mount{
		{Target: "/home/user/.vscode"},
		{Target: "/mnt/projects"},
		{Target: "/data"},
		{Target: "/home/user"},
	}

	SortMounts(mounts)

	targets := make([]string, len(mounts))
	for i, m := range mounts {
		targets[i] = m.Target
	}
	assert.Equal(t, []string{"/data", "/home/user", "/mnt/projects", "/home/user/.vscode"}, targets)
}
