package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RenderConfig)
		wantErr string
	}{
		{"defaults", func(*RenderConfig) {}, ""},
		{"zero width", func(r *RenderConfig) { r.Video.Width = 0 }, "invalid video size"},
		{"negative height", func(r *RenderConfig) { r.Video.Height = -1 }, "invalid video size"},
		{"zero step", func(r *RenderConfig) { r.Video.Step = 0 }, "invalid step"},
		{"zero max duration", func(r *RenderConfig) { r.Video.MaxDuration = 0 }, "invalid max duration"},
		{"zero highlight", func(r *RenderConfig) { r.Video.HighlightDuration = 0 }, "invalid highlight duration"},
		{"negative faded width", func(r *RenderConfig) { r.Video.FadedWidth = -1 }, "invalid faded width"},
		{"zero faded width", func(r *RenderConfig) { r.Video.FadedWidth = 0 }, ""},
		{"negative highlighted width", func(r *RenderConfig) { r.Video.HighlightedWidth = -1 }, "invalid highlighted width"},
		{"bad faded color", func(r *RenderConfig) { r.Video.FadedColor = "#zz" }, "invalid faded color"},
		{"bad highlighted color", func(r *RenderConfig) { r.Video.HighlightedColor = "0x" }, "invalid highlighted color"},
		{"unprefixed color falls back", func(r *RenderConfig) { r.Video.FadedColor = "orange" }, ""},
		{"hex colors", func(r *RenderConfig) {
			r.Video.FadedColor = "#40ffa500"
			r.Video.HighlightedColor = "0xffff00ff"
		}, ""},
		{"zoom too deep", func(r *RenderConfig) { r.Map.Zoom = 20 }, "invalid zoom level"},
		{"negative zoom", func(r *RenderConfig) { r.Map.Zoom = -1 }, "invalid zoom level"},
		{"zoom bounds", func(r *RenderConfig) { r.Map.Zoom = MaxZoom }, ""},
		{"latitude north", func(r *RenderConfig) { r.Map.Latitude = 85.5 }, "invalid latitude"},
		{"latitude south", func(r *RenderConfig) { r.Map.Latitude = -86 }, "invalid latitude"},
		{"latitude edge", func(r *RenderConfig) { r.Map.Latitude = -85 }, ""},
		{"longitude", func(r *RenderConfig) { r.Map.Longitude = 180.1 }, "invalid longitude"},
		{"longitude edge", func(r *RenderConfig) { r.Map.Longitude = -180 }, ""},
		{"density", func(r *RenderConfig) { r.Map.Density = 0 }, "invalid density"},
		{"bad filter", func(r *RenderConfig) { r.InputFilter = "run-(" }, "invalid input filter"},
		{"filter", func(r *RenderConfig) { r.InputFilter = `run-\d+\.gpx` }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := DefaultRenderConfig()
			tt.mutate(&rc)
			err := rc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRenderConfig_CheckInput(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "tracks.ZIP")
	require.NoError(t, os.WriteFile(archive, []byte("PK"), 0o600))
	plain := filepath.Join(dir, "track.gpx")
	require.NoError(t, os.WriteFile(plain, []byte("<gpx/>"), 0o600))

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"directory", dir, ""},
		{"zip any case", archive, ""},
		{"plain file", plain, "is not a zip file"},
		{"missing", filepath.Join(dir, "nope"), "not found"},
		{"empty", "", "no input given"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := DefaultRenderConfig()
			rc.Input = tt.input
			err := rc.CheckInput()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadRenderSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gobitmap.yaml")
	yaml := "render:\n  input: tracks.zip\n  video:\n    step: 30\n    highlighted_color: \"#ffff0000\"\n  map:\n    zoom: 14\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := newIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tracks.zip", cfg.Render.Input)
	assert.Equal(t, 30, cfg.Render.Video.Step)
	assert.Equal(t, "#ffff0000", cfg.Render.Video.HighlightedColor)
	assert.Equal(t, 14, cfg.Render.Map.Zoom)
	assert.Equal(t, 1920, cfg.Render.Video.Width, "unset keys keep their defaults")
	assert.Equal(t, 2, cfg.Render.Map.Density)
}

func TestLoadRejectsInvalidRenderSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gobitmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  map:\n    latitude: 89\n"), 0o600))

	_, err := newIsolatedLoader().LoadWithFile(path)
	assert.ErrorContains(t, err, "invalid latitude")
}
