package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MeKo-Tech/gobitmap/internal/graphics"
)

// RenderConfig contains settings for turning GPX tracks into map frames.
type RenderConfig struct {
	// Input is a zip archive or a directory holding .gpx files.
	Input string `mapstructure:"input" yaml:"input" json:"input"`
	// InputFilter is a regular expression every file name must match in full.
	InputFilter  string `mapstructure:"input_filter" yaml:"input_filter" json:"input_filter"`
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	RunCommand   string `mapstructure:"run_command" yaml:"run_command" json:"run_command"`
	DeleteFrames bool   `mapstructure:"delete_frames" yaml:"delete_frames" json:"delete_frames"`

	Video VideoConfig `mapstructure:"video" yaml:"video" json:"video"`
	Map   MapConfig   `mapstructure:"map" yaml:"map" json:"map"`
}

// VideoConfig controls frame size, timing and track styling.
// Durations are in seconds. Empty colors use the theme defaults.
type VideoConfig struct {
	MaxDuration       int    `mapstructure:"max_duration" yaml:"max_duration" json:"max_duration"`
	HighlightDuration int    `mapstructure:"highlight_duration" yaml:"highlight_duration" json:"highlight_duration"`
	Step              int    `mapstructure:"step" yaml:"step" json:"step"`
	Width             int    `mapstructure:"width" yaml:"width" json:"width"`
	Height            int    `mapstructure:"height" yaml:"height" json:"height"`
	FadedColor        string `mapstructure:"faded_color" yaml:"faded_color" json:"faded_color"`
	FadedWidth        int    `mapstructure:"faded_width" yaml:"faded_width" json:"faded_width"`
	HighlightedColor  string `mapstructure:"highlighted_color" yaml:"highlighted_color" json:"highlighted_color"`
	HighlightedWidth  int    `mapstructure:"highlighted_width" yaml:"highlighted_width" json:"highlighted_width"`
}

// MapConfig places the map. Zoom 0 shows the whole world.
type MapConfig struct {
	Latitude     float64 `mapstructure:"latitude" yaml:"latitude" json:"latitude"`
	Longitude    float64 `mapstructure:"longitude" yaml:"longitude" json:"longitude"`
	Zoom         int     `mapstructure:"zoom" yaml:"zoom" json:"zoom"`
	InvertColors bool    `mapstructure:"invert_colors" yaml:"invert_colors" json:"invert_colors"`
	Density      int     `mapstructure:"density" yaml:"density" json:"density"`
	// Background is an optional image drawn under the tracks.
	Background string `mapstructure:"background" yaml:"background" json:"background"`
}

// MaxZoom is the deepest supported zoom level.
const MaxZoom = 19

// DefaultRenderConfig returns the render defaults: six hours of track in
// one minute steps with a five minute highlight at 1920x1080.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		OutputDir: "frames",
		Video: VideoConfig{
			MaxDuration:       6 * 60 * 60,
			HighlightDuration: 5 * 60,
			Step:              60,
			Width:             1920,
			Height:            1080,
			FadedWidth:        1,
			HighlightedWidth:  1,
		},
		Map: MapConfig{
			Zoom:         12,
			InvertColors: true,
			Density:      2,
		},
	}
}

// Validate checks the numeric ranges, colors and filter. It does not touch
// the filesystem; see CheckInput.
func (r *RenderConfig) Validate() error {
	v := r.Video
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("invalid video size: %dx%d (must be > 0)", v.Width, v.Height)
	}
	if v.Step <= 0 {
		return fmt.Errorf("invalid step: %d (must be > 0)", v.Step)
	}
	if v.MaxDuration <= 0 {
		return fmt.Errorf("invalid max duration: %d (must be > 0)", v.MaxDuration)
	}
	if v.HighlightDuration <= 0 {
		return fmt.Errorf("invalid highlight duration: %d (must be > 0)", v.HighlightDuration)
	}
	if v.FadedWidth < 0 {
		return fmt.Errorf("invalid faded width: %d (must be >= 0)", v.FadedWidth)
	}
	if v.HighlightedWidth < 0 {
		return fmt.Errorf("invalid highlighted width: %d (must be >= 0)", v.HighlightedWidth)
	}
	if _, _, err := graphics.ParseColor(v.FadedColor); err != nil {
		return fmt.Errorf("invalid faded color: %w", err)
	}
	if _, _, err := graphics.ParseColor(v.HighlightedColor); err != nil {
		return fmt.Errorf("invalid highlighted color: %w", err)
	}

	m := r.Map
	if m.Zoom < 0 || m.Zoom > MaxZoom {
		return fmt.Errorf("invalid zoom level: %d (must be between 0 and %d)", m.Zoom, MaxZoom)
	}
	if m.Latitude < -85 || m.Latitude > 85 {
		return fmt.Errorf("invalid latitude: %g (must be between -85 and 85)", m.Latitude)
	}
	if m.Longitude < -180 || m.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %g (must be between -180 and 180)", m.Longitude)
	}
	if m.Density <= 0 {
		return fmt.Errorf("invalid density: %d (must be > 0)", m.Density)
	}

	if r.InputFilter != "" {
		if _, err := regexp.Compile(r.InputFilter); err != nil {
			return fmt.Errorf("invalid input filter: %w", err)
		}
	}
	return nil
}

// CheckInput verifies that Input exists and is either a directory or a
// zip archive.
func (r *RenderConfig) CheckInput() error {
	if r.Input == "" {
		return errors.New("no input given (set render.input or pass --input)")
	}
	info, err := os.Stat(r.Input)
	if err != nil {
		return fmt.Errorf("input file/directory %s not found: %w", r.Input, err)
	}
	if !info.IsDir() && !strings.EqualFold(filepath.Ext(r.Input), ".zip") {
		return fmt.Errorf("input file %s is not a zip file", r.Input)
	}
	return nil
}
