package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
)

// Config represents the complete configuration for the gobitmap tool.
// It is loaded from configuration files, environment variables and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Decoding limits
	Decode DecodeConfig `mapstructure:"decode" yaml:"decode" json:"decode"`

	// Encoding defaults for convert and the /convert endpoint
	Encode EncodeConfig `mapstructure:"encode" yaml:"encode" json:"encode"`

	// Output formatting for the decode command
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Track rendering (for render command)
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`
}

// DecodeConfig contains stream decoding settings.
type DecodeConfig struct {
	// MaxBytes caps how much of a stream is read; 0 disables the cap.
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes" json:"max_bytes"`
	// MaxPixels rejects images whose header declares more pixels; 0 disables it.
	MaxPixels int64 `mapstructure:"max_pixels" yaml:"max_pixels" json:"max_pixels"`
	// Workers bounds concurrent decodes in batch runs; 0 means one per CPU.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// EncodeConfig contains bitmap compression settings.
type EncodeConfig struct {
	Format  string `mapstructure:"format" yaml:"format" json:"format"`
	Quality int    `mapstructure:"quality" yaml:"quality" json:"quality"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Decode: DecodeConfig{
			MaxBytes:  64 << 20,
			MaxPixels: 100_000_000,
			Workers:   0,
		},
		Encode: EncodeConfig{
			Format:  "png",
			Quality: 90,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		Render: DefaultRenderConfig(),
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Decode.MaxBytes < 0 {
		return fmt.Errorf("invalid decode max bytes: %d (must not be negative)", c.Decode.MaxBytes)
	}
	if c.Decode.MaxPixels < 0 {
		return fmt.Errorf("invalid decode max pixels: %d (must not be negative)", c.Decode.MaxPixels)
	}
	if c.Decode.Workers < 0 {
		return fmt.Errorf("invalid decode workers: %d (must not be negative)", c.Decode.Workers)
	}

	format, err := bitmap.ParseCompressFormat(c.Encode.Format)
	if err != nil {
		return fmt.Errorf("invalid encode format: %w", err)
	}
	if format != bitmap.CompressJPEG && format != bitmap.CompressPNG {
		return fmt.Errorf("invalid encode format: %s (only png and jpeg can be written)", c.Encode.Format)
	}
	if c.Encode.Quality < 0 || c.Encode.Quality > 100 {
		return fmt.Errorf("invalid encode quality: %d (must be between 0 and 100)", c.Encode.Quality)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}

	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	return nil
}

// CompressFormat returns the parsed encode format, falling back to PNG.
func (c *Config) CompressFormat() bitmap.CompressFormat {
	f, err := bitmap.ParseCompressFormat(c.Encode.Format)
	if err != nil {
		return bitmap.CompressPNG
	}
	return f
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
