package batch

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestFiles builds a small tree under a temp dir and returns its root.
func createTestFiles(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := []string{
		"a.png",
		"b.JPG",
		"notes.txt",
		"sub/c.gif",
		"sub/deeper/d.tiff",
		"sub/skip_me.png",
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	}
	return root
}

func rel(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	sort.Strings(out)
	return out
}

func TestDiscover(t *testing.T) {
	root := createTestFiles(t)

	tests := []struct {
		name      string
		recursive bool
		include   []string
		exclude   []string
		expected  []string
	}{
		{
			name:     "top level images only",
			expected: []string{"a.png", "b.JPG"},
		},
		{
			name:      "recursive",
			recursive: true,
			expected:  []string{"a.png", "b.JPG", "sub/c.gif", "sub/deeper/d.tiff", "sub/skip_me.png"},
		},
		{
			name:      "include pattern replaces extension filter",
			recursive: true,
			include:   []string{"*.txt"},
			expected:  []string{"notes.txt"},
		},
		{
			name:      "exclude pattern",
			recursive: true,
			exclude:   []string{"skip_*"},
			expected:  []string{"a.png", "b.JPG", "sub/c.gif", "sub/deeper/d.tiff"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := Discover([]string{root}, tt.recursive, tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rel(t, root, files))
		})
	}
}

func TestDiscover_ExplicitFiles(t *testing.T) {
	root := createTestFiles(t)
	notes := filepath.Join(root, "notes.txt")

	// Explicit files bypass the extension filter but not excludes
	files, err := Discover([]string{notes}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{notes}, files)

	files, err = Discover([]string{notes}, false, nil, []string{"*.txt"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_MissingPath(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "missing")}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestMatchesAnyPattern(t *testing.T) {
	assert.True(t, matchesAnyPattern("/x/y/photo.png", []string{"*.jpg", "*.png"}))
	assert.False(t, matchesAnyPattern("/x/y/photo.png", nil))
	assert.False(t, matchesAnyPattern("/x/png/photo.gif", []string{"*.png"}))
}
