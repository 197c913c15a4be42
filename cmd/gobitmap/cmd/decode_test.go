package cmd

import (
	"bytes"
	"encoding/json"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/gobitmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand_Text(t *testing.T) {
	png := writeTempFile(t, "fixture.png", testutil.TwoByTwoPNG(t))
	gif := writeTempFile(t, "solid.gif", testutil.EncodeGIF(t, testutil.SolidImage(7, 5, color.White)))

	output, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"decode", png, gif})
	require.NoError(t, err)

	assert.Contains(t, output, png+": 2x2 ARGB_8888 png")
	assert.Contains(t, output, gif+": 7x5 ARGB_8888 gif")
}

func TestDecodeCommand_JSON(t *testing.T) {
	path := writeTempFile(t, "fixture.bmp", testutil.EncodeBMP(t, testutil.SolidImage(3, 4, color.Black)))

	output, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"decode", "--format", "json", path})
	require.NoError(t, err)

	var reports []DecodeReport
	require.NoError(t, json.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Success)
	assert.Equal(t, 3, reports[0].Width)
	assert.Equal(t, 4, reports[0].Height)
	assert.Equal(t, "bmp", reports[0].Format)
}

func TestDecodeCommand_Stdin(t *testing.T) {
	ResetState()
	t.Cleanup(ResetState)

	var out strings.Builder
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&strings.Builder{})
	rootCmd.SetIn(bytes.NewReader(testutil.TwoByTwoPNG(t)))
	rootCmd.SetArgs([]string{"decode", "-"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "-: 2x2 ARGB_8888 png")
}

func TestDecodeCommand_Failures(t *testing.T) {
	good := writeTempFile(t, "good.png", testutil.TwoByTwoPNG(t))
	garbage := writeTempFile(t, "garbage.png", testutil.GarbageBytes)
	empty := writeTempFile(t, "empty.png", nil)
	missing := filepath.Join(t.TempDir(), "missing.png")

	output, stderr, err := executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"decode", "--format", "json", good, garbage, empty, missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 4")

	var reports []DecodeReport
	require.NoError(t, json.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 4)

	assert.True(t, reports[0].Success)
	assert.Equal(t, "malformed", reports[1].ErrorKind)
	assert.Equal(t, "empty", reports[2].ErrorKind)
	assert.Equal(t, "io", reports[3].ErrorKind)

	// Decode failures are logged as JSON on stderr
	assert.Contains(t, stderr, `"msg":"bitmap decode failed"`)
}

func TestDecodeCommand_InvalidFormat(t *testing.T) {
	path := writeTempFile(t, "fixture.png", testutil.TwoByTwoPNG(t))
	_, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"decode", "--format", "csv", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestDecodeCommand_NoArgs(t *testing.T) {
	_, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"decode"})
	require.Error(t, err)
}

func TestInfoCommand(t *testing.T) {
	tiff := writeTempFile(t, "scan.tiff", testutil.EncodeTIFF(t, testutil.SolidImage(9, 6, color.White)))
	garbage := writeTempFile(t, "garbage.bin", testutil.GarbageBytes)

	output, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"info", tiff})
	require.NoError(t, err)
	assert.Contains(t, output, tiff+": 9x6 tiff")

	output, _, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"info", tiff, garbage})
	require.Error(t, err)
	assert.Contains(t, output, garbage+": failed")
}

func TestDecodeCommand_Directory(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "a.png"), testutil.TwoByTwoPNG(t))
	testutil.WriteFile(t, filepath.Join(dir, "notes.txt"), []byte("not an image"))
	testutil.WriteFile(t, filepath.Join(dir, "nested", "b.bmp"), testutil.EncodeBMP(t, testutil.SolidImage(3, 3, color.White)))
	testutil.WriteFile(t, filepath.Join(dir, "nested", "b_thumb.png"), testutil.TwoByTwoPNG(t))

	output, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"decode", "--format", "json", dir})
	require.NoError(t, err)
	var reports []DecodeReport
	require.NoError(t, json.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 1, "non-recursive scan sees only a.png")

	output, _, err = executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"decode", "--format", "json", "--recursive", "--exclude", "*_thumb.*", "--workers", "2", dir})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.True(t, r.Success, r.File)
	}
}

func TestDecodeCommand_EmptyDirectory(t *testing.T) {
	_, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"decode", t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files found")
}

func TestDecodeCommand_NegativeWorkers(t *testing.T) {
	path := writeTempFile(t, "fixture.png", testutil.TwoByTwoPNG(t))
	_, _, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"decode", "--workers=-1", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid workers")
}
