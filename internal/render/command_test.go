package render

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandCommand(t *testing.T) {
	vars := CommandVars{Width: 1920, Height: 1080, Dir: "/tmp/frames"}

	args := ExpandCommand("ffmpeg -y  -s ${width}x${height} -i ${tmpDirectory}/map_%05d.png out.mp4", vars)
	assert.Equal(t, []string{"ffmpeg", "-y", "-s", "1920x1080", "-i", "/tmp/frames/map_%05d.png", "out.mp4"}, args)

	assert.Empty(t, ExpandCommand("   ", vars))
	assert.Equal(t, []string{"${unknown}"}, ExpandCommand("${unknown}", vars))
}

func TestRunCommand(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	vars := CommandVars{Width: 4, Height: 3, Dir: "frames"}

	var stdout, stderr bytes.Buffer
	err := RunCommand(context.Background(), "echo ${width}x${height} ${tmpDirectory}", vars, &stdout, &stderr, logger)
	require.NoError(t, err)
	assert.Equal(t, "4x3 frames\n", stdout.String())

	require.NoError(t, RunCommand(context.Background(), "", vars, &stdout, &stderr, logger))

	if _, err := exec.LookPath("false"); err == nil {
		err = RunCommand(context.Background(), "false", vars, &stdout, &stderr, logger)
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.ErrorContains(t, err, "exited with 1")
	}

	err = RunCommand(context.Background(), "gobitmap-no-such-command-xyz", vars, &stdout, &stderr, logger)
	assert.ErrorContains(t, err, "failed to run")
}

func TestRemoveFrames(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "map_00000.png")
	b := filepath.Join(dir, "map_00001.png")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o600))

	require.NoError(t, RemoveFrames([]string{a, b, filepath.Join(dir, "gone.png")}))
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
}
