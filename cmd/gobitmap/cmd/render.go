package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/MeKo-Tech/gobitmap/internal/config"
	"github.com/MeKo-Tech/gobitmap/internal/render"
	"github.com/MeKo-Tech/gobitmap/internal/track"
	"github.com/spf13/cobra"
)

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render GPX tracks into map frames for a video",
	Long: `Load every GPX track from a zip archive or a directory and render one PNG
frame per time step. All tracks start together; each frame highlights the
most recent part of every track over the faded history drawn so far.

Frames are written as map_00000.png, map_00001.png, ... into the output
directory, which is cleared of PNG files first. Frame 0 is the bare map.

After rendering, --run-command is executed with ${width}, ${height} and
${tmpDirectory} substituted, for example to stitch the frames with ffmpeg.

Examples:
  gobitmap render --input tracks.zip --lat 48.14 --lon 11.58 --zoom 12
  gobitmap render --input ./gpx --filter "2024-.*" --step 30 --highlight 120
  gobitmap render --input tracks.zip --run-command "ffmpeg -y -i ${tmpDirectory}/map_%05d.png -s ${width}x${height} out.mp4"`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rc, err := renderConfigFromFlags(cmd, cfg.Render)
		if err != nil {
			return err
		}
		if err := rc.Validate(); err != nil {
			return err
		}
		if err := rc.CheckInput(); err != nil {
			return err
		}

		opts, err := generatorOptions(cfg, rc)
		if err != nil {
			return err
		}
		generator, err := render.NewGenerator(opts)
		if err != nil {
			return err
		}

		filter, err := track.CompileFilter(rc.InputFilter)
		if err != nil {
			return err
		}
		timelines, err := track.NewLoader(track.Options{
			Source: rc.Input,
			Filter: filter,
			Logger: slog.Default(),
		}).Load()
		if err != nil {
			return err
		}
		if len(timelines) == 0 {
			return render.ErrNoTracks
		}

		start := time.Now()
		frames, err := generator.Generate(cmd.Context(), timelines)
		if err != nil {
			return fmt.Errorf("failed to render frames: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Generated %d frames from %d tracks in %s (%s)\n",
			len(frames), len(timelines), rc.OutputDir, time.Since(start).Round(time.Millisecond))

		if rc.RunCommand == "" {
			return nil
		}
		runErr := render.RunCommand(cmd.Context(), rc.RunCommand, render.CommandVars{
			Width:  rc.Video.Width,
			Height: rc.Video.Height,
			Dir:    rc.OutputDir,
		}, cmd.OutOrStdout(), cmd.ErrOrStderr(), slog.Default())

		if rc.DeleteFrames {
			if err := render.RemoveFrames(frames); err != nil {
				return errors.Join(runErr, fmt.Errorf("failed to delete frames: %w", err))
			}
			slog.Debug("Deleted frames", "count", len(frames))
		}
		return runErr
	},
}

// renderConfigFromFlags applies explicitly set flags on top of rc.
func renderConfigFromFlags(cmd *cobra.Command, rc config.RenderConfig) (config.RenderConfig, error) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	float := func(name string, dst *float64) {
		if f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}

	str("input", &rc.Input)
	str("filter", &rc.InputFilter)
	str("output-dir", &rc.OutputDir)
	str("run-command", &rc.RunCommand)
	str("background", &rc.Map.Background)
	str("highlight-color", &rc.Video.HighlightedColor)
	str("faded-color", &rc.Video.FadedColor)
	num("width", &rc.Video.Width)
	num("height", &rc.Video.Height)
	num("step", &rc.Video.Step)
	num("highlight", &rc.Video.HighlightDuration)
	num("max-duration", &rc.Video.MaxDuration)
	num("highlight-width", &rc.Video.HighlightedWidth)
	num("faded-width", &rc.Video.FadedWidth)
	num("zoom", &rc.Map.Zoom)
	num("density", &rc.Map.Density)
	float("lat", &rc.Map.Latitude)
	float("lon", &rc.Map.Longitude)
	if f.Changed("invert") {
		rc.Map.InvertColors, _ = f.GetBool("invert")
	}
	if f.Changed("delete-frames") {
		rc.DeleteFrames, _ = f.GetBool("delete-frames")
	}

	if rc.OutputDir == "" {
		return rc, errors.New("output directory is required (use --output-dir)")
	}
	return rc, nil
}

func generatorOptions(cfg *config.Config, rc config.RenderConfig) (render.Options, error) {
	theme, err := render.ThemeFromColors(rc.Video.HighlightedColor, rc.Video.FadedColor, rc.Map.InvertColors)
	if err != nil {
		return render.Options{}, err
	}

	opts := render.Options{
		Width:          rc.Video.Width,
		Height:         rc.Video.Height,
		Latitude:       rc.Map.Latitude,
		Longitude:      rc.Map.Longitude,
		Zoom:           rc.Map.Zoom,
		Density:        rc.Map.Density,
		OutputDir:      rc.OutputDir,
		MaxDuration:    time.Duration(rc.Video.MaxDuration) * time.Second,
		Step:           time.Duration(rc.Video.Step) * time.Second,
		Highlight:      time.Duration(rc.Video.HighlightDuration) * time.Second,
		HighlightWidth: float32(rc.Video.HighlightedWidth),
		FadedWidth:     float32(rc.Video.FadedWidth),
		Theme:          theme,
		Workers:        cfg.Decode.Workers,
		Logger:         slog.Default(),
	}

	if rc.Map.Background != "" {
		bg, err := loadBackground(cfg, rc.Map.Background)
		if err != nil {
			return render.Options{}, err
		}
		opts.Background = bg
	}
	return opts, nil
}

func loadBackground(cfg *config.Config, path string) (*bitmap.Bitmap, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open background: %w", err)
	}
	defer func() { _ = f.Close() }()

	res := newDecoder(cfg).DecodeStream(f)
	b, ok := res.Bitmap()
	if !ok {
		return nil, fmt.Errorf("failed to decode background %s: %w", path, res.Err())
	}
	return b, nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	d := config.DefaultRenderConfig()
	f := renderCmd.Flags()
	f.StringP("input", "i", "", "zip archive or directory of .gpx files")
	f.String("filter", "", "regular expression the whole file name must match")
	f.StringP("output-dir", "o", d.OutputDir, "directory receiving the frames")
	f.String("background", "", "image drawn as the map under the tracks")
	f.Int("width", d.Video.Width, "frame width in pixels")
	f.Int("height", d.Video.Height, "frame height in pixels")
	f.Int("step", d.Video.Step, "seconds of track per frame")
	f.Int("highlight", d.Video.HighlightDuration, "seconds of track drawn highlighted")
	f.Int("max-duration", d.Video.MaxDuration, "seconds of track to render at most")
	f.Int("highlight-width", d.Video.HighlightedWidth, "highlighted line width in pixels")
	f.Int("faded-width", d.Video.FadedWidth, "faded line width in pixels")
	f.String("highlight-color", "", "highlighted line color (#AARRGGBB or 0xAARRGGBB)")
	f.String("faded-color", "", "faded line color (#AARRGGBB or 0xAARRGGBB)")
	f.Float64("lat", d.Map.Latitude, "map centre latitude")
	f.Float64("lon", d.Map.Longitude, "map centre longitude")
	f.Int("zoom", d.Map.Zoom, "map zoom level (0-19)")
	f.Int("density", d.Map.Density, "map scale factor")
	f.Bool("invert", d.Map.InvertColors, "draw a dark map")
	f.String("run-command", "", "command to run once the frames are written")
	f.Bool("delete-frames", false, "delete the frames after --run-command")
}
