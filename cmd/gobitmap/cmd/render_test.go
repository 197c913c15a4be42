package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MeKo-Tech/gobitmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrackDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string][]byte{
		"walk.gpx": testutil.GPX("Walk", testutil.LineTrack(6, 0, 0, 0.01, time.Minute)),
	})
	return dir
}

func renderArgs(input, out string, extra ...string) []string {
	args := []string{
		"render", "--input", input, "-o", out,
		"--width", "200", "--height", "50",
		"--lat", "0", "--lon", "0.025", "--zoom", "12", "--density", "1",
		"--step", "60", "--highlight", "120", "--highlight-width", "4",
	}
	return append(args, extra...)
}

func TestRenderCommand_Directory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frames")
	stdout, _, err := executeCommandAndCaptureOutput(t, rootCmd, renderArgs(writeTrackDir(t), out))
	require.NoError(t, err)

	assert.Contains(t, stdout, "Generated 8 frames from 1 tracks")
	for _, name := range []string{"map_00000.png", "map_00004.png", "map_00007.png"} {
		b := decodeFile(t, filepath.Join(out, name))
		assert.Equal(t, 200, b.Width())
		assert.Equal(t, 50, b.Height())
	}
	assert.NoFileExists(t, filepath.Join(out, "map_00008.png"))
}

func TestRenderCommand_ZipWithFilter(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "tracks.zip")
	line := testutil.LineTrack(3, 0, 0, 0.01, time.Minute)
	testutil.WriteZip(t, archive, map[string][]byte{
		"keep-1.gpx": testutil.GPX("one", line),
		"keep-2.gpx": testutil.GPX("two", line),
		"skip.gpx":   testutil.GPX("three", line),
	})
	out := filepath.Join(t.TempDir(), "frames")

	stdout, _, err := executeCommandAndCaptureOutput(t, rootCmd,
		renderArgs(archive, out, "--filter", `keep-\d\.gpx`, "--highlight-color", "#ffff0000", "--invert=false"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "from 2 tracks")

	bg := decodeFile(t, filepath.Join(out, "map_00000.png"))
	assert.Equal(t, uint8(255), bg.At(0, 0).R, "a light map without --invert")
}

func TestRenderCommand_RunAndDeleteFrames(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frames")
	stdout, _, err := executeCommandAndCaptureOutput(t, rootCmd, renderArgs(writeTrackDir(t), out,
		"--run-command", "echo ${width}x${height}", "--delete-frames"))
	require.NoError(t, err)

	assert.Contains(t, stdout, "200x50")
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderCommand_Background(t *testing.T) {
	bg := writeTempFile(t, "map.png", testutil.EncodePNG(t, testutil.SolidImage(4, 4, testutil.KnownPixels[1])))
	out := filepath.Join(t.TempDir(), "frames")

	_, _, err := executeCommandAndCaptureOutput(t, rootCmd, renderArgs(writeTrackDir(t), out, "--background", bg))
	require.NoError(t, err)

	c := decodeFile(t, filepath.Join(out, "map_00000.png")).At(0, 0)
	assert.Equal(t, c.R, c.B)
	assert.NotEqual(t, uint8(0), c.R, "the inverted green map is not black")
}

func TestRenderCommand_Errors(t *testing.T) {
	tracks := writeTrackDir(t)
	empty := t.TempDir()
	plain := writeTempFile(t, "walk.gpx", testutil.GPX("x", nil))
	badBg := writeTempFile(t, "bad.png", testutil.GarbageBytes)
	out := filepath.Join(t.TempDir(), "frames")

	tests := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{"no input", []string{"render", "-o", out}, "no input given"},
		{"missing input", renderArgs(filepath.Join(empty, "nope"), out), "not found"},
		{"plain file", renderArgs(plain, out), "is not a zip file"},
		{"no tracks", renderArgs(empty, out), "no tracks loaded"},
		{"filter excludes all", renderArgs(tracks, out, "--filter", "walk"), "no tracks loaded"},
		{"bad filter", renderArgs(tracks, out, "--filter", "("), "invalid input filter"},
		{"zoom", renderArgs(tracks, out, "--zoom", "20"), "invalid zoom level"},
		{"latitude", renderArgs(tracks, out, "--lat", "86"), "invalid latitude"},
		{"step", renderArgs(tracks, out, "--step", "0"), "invalid step"},
		{"color", renderArgs(tracks, out, "--faded-color", "#xyz"), "invalid faded color"},
		{"empty output", renderArgs(tracks, ""), "output directory is required"},
		{"background", renderArgs(tracks, out, "--background", badBg), "failed to decode background"},
		{"positional args", []string{"render", "extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommandAndCaptureOutput(t, rootCmd, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}
