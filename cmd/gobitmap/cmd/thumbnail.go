package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/MeKo-Tech/gobitmap/internal/graphics"
	"github.com/spf13/cobra"
)

// thumbnailCmd represents the thumbnail command.
var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail <input>",
	Short: "Scale an image down and optionally frame it",
	Long: `Decode an image, draw it scaled onto a new bitmap and encode the result.

When only one of --width and --height is given the other follows the
source aspect ratio. A border is stroked around the edge when
--border-width is positive.

Examples:
  gobitmap thumbnail photo.jpg -o thumb.png --width 128
  gobitmap thumbnail photo.jpg -o thumb.jpg --width 64 --height 64 --border-width 2 --border-color "#ffff0000"`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return errors.New("output path is required (use -o, or - for stdout)")
		}

		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		if width < 0 || height < 0 || (width == 0 && height == 0) {
			return fmt.Errorf("invalid thumbnail size %dx%d: set --width and/or --height", width, height)
		}

		borderWidth, _ := cmd.Flags().GetFloat32("border-width")
		if borderWidth < 0 {
			return fmt.Errorf("invalid border width: %g", borderWidth)
		}
		colorFlag, _ := cmd.Flags().GetString("border-color")
		borderColor, err := flagColor(colorFlag)
		if err != nil {
			return err
		}

		format, err := targetFormat(cmd, output, cfg.CompressFormat())
		if err != nil {
			return err
		}
		quality := cfg.Encode.Quality
		if cmd.Flags().Changed("quality") {
			quality, _ = cmd.Flags().GetInt("quality")
			if quality < 1 || quality > 100 {
				return fmt.Errorf("invalid quality: %d (must be between 1 and 100)", quality)
			}
		}

		r, closeFn, err := openInput(cmd, args[0])
		if err != nil {
			return err
		}
		defer closeFn()

		decoder := newDecoder(cfg)
		src, ok := decoder.DecodeStream(r).Bitmap()
		if !ok {
			return fmt.Errorf("failed to decode %s", args[0])
		}

		thumb, err := renderThumbnail(src, width, height, borderWidth, borderColor)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		written, err := thumb.Compress(format, quality, &buf)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", format, err)
		}
		if !written {
			return fmt.Errorf("encoding to %s is not supported", format)
		}

		if err := writeOutput(cmd.OutOrStdout(), output, buf.Bytes()); err != nil {
			return err
		}

		slog.Debug("Wrote thumbnail",
			"input", args[0],
			"output", output,
			"width", thumb.Width(),
			"height", thumb.Height(),
			"format", format.String(),
		)
		return nil
	},
}

// thumbnailSize fills in a zero dimension from the source aspect ratio.
func thumbnailSize(srcW, srcH, width, height int) (int, int) {
	switch {
	case width == 0:
		width = max(1, srcW*height/srcH)
	case height == 0:
		height = max(1, srcH*width/srcW)
	}
	return width, height
}

func renderThumbnail(src *bitmap.Bitmap, width, height int, borderWidth float32, borderColor uint32) (*bitmap.Bitmap, error) {
	width, height = thumbnailSize(src.Width(), src.Height(), width, height)

	dst, err := bitmap.Create(width, height, src.Config())
	if err != nil {
		return nil, err
	}

	canvas := graphics.NewCanvas(dst)
	canvas.DrawBitmap(src,
		bitmap.NewRect(0, 0, src.Width(), src.Height()),
		bitmap.NewRect(0, 0, width, height),
		nil,
	)

	if borderWidth > 0 {
		paint := graphics.NewPaint()
		paint.StrokeWidth = borderWidth
		paint.StrokeJoin = graphics.JoinMiter
		paint.Color = borderColor

		// Inset by half the stroke so the whole border lands inside the bitmap.
		inset := borderWidth/2 - 0.5
		right := float32(width-1) - inset
		bottom := float32(height-1) - inset

		var path graphics.Path
		path.MoveTo(inset, inset)
		path.LineTo(right, inset)
		path.LineTo(right, bottom)
		path.LineTo(inset, bottom)
		path.LineTo(inset, inset)
		canvas.DrawPath(&path, paint)
	}

	return canvas.Bitmap(), nil
}

// flagColor parses an argb color flag; unlike config values it has no
// default to fall back to, so a missing prefix is an error.
func flagColor(s string) (uint32, error) {
	c, ok, err := graphics.ParseColor(s)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("invalid color %q: expected #AARRGGBB or 0xAARRGGBB", s)
	}
	return c, nil
}

func init() {
	rootCmd.AddCommand(thumbnailCmd)
	thumbnailCmd.Flags().StringP("output", "o", "", "output file path (- for stdout)")
	thumbnailCmd.Flags().Int("width", 0, "thumbnail width in pixels (0 keeps aspect ratio)")
	thumbnailCmd.Flags().Int("height", 0, "thumbnail height in pixels (0 keeps aspect ratio)")
	thumbnailCmd.Flags().Float32("border-width", 0, "border stroke width in pixels")
	thumbnailCmd.Flags().String("border-color", "#ff000000", "border color (#AARRGGBB or 0xAARRGGBB)")
	thumbnailCmd.Flags().String("to", "png", "target format (png, jpeg)")
	thumbnailCmd.Flags().IntP("quality", "q", 90, "JPEG quality (1-100)")
}
