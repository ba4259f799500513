package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/spawn/internal/cli"
)

func TestStopCommand_RequiresNameOrAll(t *testing.T) {
	stopCmd := NewStopCommand(cli.NewApp())
	stopCmd.SetArgs([]string{})
	stopCmd.SetOut(io.Discard)
	stopCmd.SetErr(io.Discard)

	err := stopCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestRemoveCommand_RequiresNameOrAll(t *testing.T) {
	removeCmd := NewRemoveCommand(cli.NewApp())
	removeCmd.SetArgs([]string{})
	removeCmd.SetOut(io.Discard)
	removeCmd.SetErr(io.Discard)

	err := removeCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestRunCommand_RequiresBaseFlag(t *testing.T) {
	runCmd := NewRunCommand(cli.NewApp())
	runCmd.SetArgs([]string{"mydev"})
	runCmd.SetOut(io.Discard)
	runCmd.SetErr(io.Discard)

	err := runCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base")
}

func TestRunCommand_RequiresExactlyOneName(t *testing.T) {
	runCmd := NewRunCommand(cli.NewApp())
	runCmd.SetArgs([]string{"--base", "ubuntu:22.04"})
	runCmd.SetOut(io.Discard)
	runCmd.SetErr(io.Discard)

	err := runCmd.Execute()
	require.Error(t, err)
}

func TestRunCommand_RejectsInvalidName(t *testing.T) {
	runCmd := NewRunCommand(cli.NewApp())
	runCmd.SetArgs([]string{"My_Dev", "--base", "ubuntu:22.04"})
	runCmd.SetOut(io.Discard)
	runCmd.SetErr(io.Discard)

	err := runCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lowercase")
}

func TestRunCommand_RejectsReservedName(t *testing.T) {
	runCmd := NewRunCommand(cli.NewApp())
	runCmd.SetArgs([]string{"proxy", "--base", "ubuntu:22.04"})
	runCmd.SetOut(io.Discard)
	runCmd.SetErr(io.Discard)

	err := runCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
}

func TestRunCommand_RejectsBadShmSize(t *testing.T) {
	runCmd := NewRunCommand(cli.NewApp())
	runCmd.SetArgs([]string{"mydev", "--base", "ubuntu:22.04", "--shm-size", "512"})
	runCmd.SetOut(io.Discard)
	runCmd.SetErr(io.Discard)

	err := runCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit")
}

func TestImagesCommand_RemoveRequiresNameOrAll(t *testing.T) {
	imagesCmd := NewImagesCommand(cli.NewApp())
	imagesCmd.SetArgs([]string{"--rm"})
	imagesCmd.SetOut(io.Discard)
	imagesCmd.SetErr(io.Discard)

	err := imagesCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestImagesCommand_ListRejectsArgs(t *testing.T) {
	imagesCmd := NewImagesCommand(cli.NewApp())
	imagesCmd.SetArgs([]string{"sometag"})
	imagesCmd.SetOut(io.Discard)
	imagesCmd.SetErr(io.Discard)

	err := imagesCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rm")
}

func TestProxyCommand_StopAndRestartConflict(t *testing.T) {
	proxyCmd := NewProxyCommand(cli.NewApp())
	proxyCmd.SetArgs([]string{"--stop", "--restart"})
	proxyCmd.SetOut(io.Discard)
	proxyCmd.SetErr(io.Discard)

	err := proxyCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLatestLogDir(t *testing.T) {
	logsRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(logsRoot, "mydev.1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(logsRoot, "mydev.2"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(logsRoot, "mydev.10"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(logsRoot, "other.5"), 0o755))

	assert.Equal(t, filepath.Join(logsRoot, "mydev.10"), latestLogDir(logsRoot, "mydev"))
	assert.Equal(t, filepath.Join(logsRoot, "other.5"), latestLogDir(logsRoot, "other"))
	assert.Empty(t, latestLogDir(logsRoot, "ghost"))
	assert.Empty(t, latestLogDir(filepath.Join(logsRoot, "missing"), "mydev"))
}
