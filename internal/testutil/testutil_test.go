package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestGetProjectRootValidated(t *testing.T) {
	root, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.True(t, DirExists(filepath.Join(root, "internal")))
}

func TestValidateProjectRoot(t *testing.T) {
	require.Error(t, ValidateProjectRoot(t.TempDir()))
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	require.NoError(t, EnsureDir(testDir))
	assert.True(t, DirExists(testDir))
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/non/existent/file"))

	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}
