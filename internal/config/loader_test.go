package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIsolatedLoader() *Loader {
	return &Loader{v: viper.New()}
}

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prevWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prevWd) })
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.GetViper() == nil {
		t.Error("Loader viper instance is nil")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	tmp := t.TempDir()
	chdir(t, tmp)
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", tmp)

	cfg, err := newIsolatedLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadFromSearchPath(t *testing.T) {
	tmp := t.TempDir()
	chdir(t, tmp)
	t.Setenv("HOME", tmp)

	content := "log_level: debug\nserver:\n  port: 9090\nencode:\n  format: jpeg\n  quality: 75\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "gobitmap.yaml"), []byte(content), 0o600))

	loader := newIsolatedLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "jpeg", cfg.Encode.Format)
	assert.Equal(t, 75, cfg.Encode.Quality)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset keys keep defaults")
	assert.Contains(t, loader.GetConfigFileUsed(), "gobitmap.yaml")
}

func TestLoadWithFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decode:\n  max_bytes: 1024\n"), 0o600))

	cfg, err := newIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), cfg.Decode.MaxBytes)

	_, err = newIsolatedLoader().LoadWithFile(filepath.Join(tmp, "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -4\n"), 0o600))

	_, err := newIsolatedLoader().LoadWithFile(path)
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestEnvironmentOverrides(t *testing.T) {
	tmp := t.TempDir()
	chdir(t, tmp)
	t.Setenv("HOME", tmp)
	t.Setenv("GOBITMAP_SERVER_PORT", "7070")
	t.Setenv("GOBITMAP_LOG_LEVEL", "warn")

	cfg, err := newIsolatedLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := newIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/xdg", "gobitmap"))
	assert.Equal(t, "/etc/gobitmap", paths[len(paths)-1])
}
