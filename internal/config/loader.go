package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "gobitmap"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "GOBITMAP"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	// Use the global viper instance so flag bindings from the root command apply
	return &Loader{v: viper.GetViper()}
}

// Load loads configuration from files, environment variables, and sets defaults.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars still apply
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshal()
}

// Reload re-reads the current viper state (including bound flags) into a Config.
func (l *Loader) Reload() (*Config, error) {
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// GOBITMAP_SERVER_PORT maps to server.port
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("decode.max_bytes", defaults.Decode.MaxBytes)
	l.v.SetDefault("decode.max_pixels", defaults.Decode.MaxPixels)
	l.v.SetDefault("decode.workers", defaults.Decode.Workers)

	l.v.SetDefault("encode.format", defaults.Encode.Format)
	l.v.SetDefault("encode.quality", defaults.Encode.Quality)

	l.v.SetDefault("output.format", defaults.Output.Format)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)

	r := defaults.Render
	l.v.SetDefault("render.input", r.Input)
	l.v.SetDefault("render.input_filter", r.InputFilter)
	l.v.SetDefault("render.output_dir", r.OutputDir)
	l.v.SetDefault("render.run_command", r.RunCommand)
	l.v.SetDefault("render.delete_frames", r.DeleteFrames)
	l.v.SetDefault("render.video.max_duration", r.Video.MaxDuration)
	l.v.SetDefault("render.video.highlight_duration", r.Video.HighlightDuration)
	l.v.SetDefault("render.video.step", r.Video.Step)
	l.v.SetDefault("render.video.width", r.Video.Width)
	l.v.SetDefault("render.video.height", r.Video.Height)
	l.v.SetDefault("render.video.faded_color", r.Video.FadedColor)
	l.v.SetDefault("render.video.faded_width", r.Video.FadedWidth)
	l.v.SetDefault("render.video.highlighted_color", r.Video.HighlightedColor)
	l.v.SetDefault("render.video.highlighted_width", r.Video.HighlightedWidth)
	l.v.SetDefault("render.map.latitude", r.Map.Latitude)
	l.v.SetDefault("render.map.longitude", r.Map.Longitude)
	l.v.SetDefault("render.map.zoom", r.Map.Zoom)
	l.v.SetDefault("render.map.invert_colors", r.Map.InvertColors)
	l.v.SetDefault("render.map.density", r.Map.Density)
	l.v.SetDefault("render.map.background", r.Map.Background)
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes the default configuration to filename
// (gobitmap.yaml when empty).
func GenerateDefaultConfigFile(filename string) error {
	loader := &Loader{v: viper.New()}
	loader.setDefaults()

	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}

	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "gobitmap"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gobitmap"))
	}

	paths = append(paths, "/etc/gobitmap")

	return paths
}
