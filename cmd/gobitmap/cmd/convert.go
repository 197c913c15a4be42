package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/spf13/cobra"
)

// convertCmd represents the convert command.
var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Decode an image and re-encode it as PNG or JPEG",
	Long: `Decode an image and write it back out as PNG or JPEG.

The target format comes from --to, then from the output file extension,
then from the encode.format configuration value. WebP can be read but
not written.

Examples:
  gobitmap convert input.gif -o output.png
  gobitmap convert input.png -o output.jpg --quality 80
  gobitmap convert - -o - --to jpeg < in.bmp > out.jpg`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return errors.New("output path is required (use -o, or - for stdout)")
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
		b, ok := decoder.DecodeStream(r).Bitmap()
		if !ok {
			return fmt.Errorf("failed to decode %s", args[0])
		}

		var buf bytes.Buffer
		written, err := b.Compress(format, quality, &buf)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", format, err)
		}
		if !written {
			return fmt.Errorf("encoding to %s is not supported", format)
		}

		if err := writeOutput(cmd.OutOrStdout(), output, buf.Bytes()); err != nil {
			return err
		}

		slog.Debug("Converted image",
			"input", args[0],
			"output", output,
			"format", format.String(),
			"bytes", buf.Len(),
		)
		return nil
	},
}

// targetFormat picks the encode format from --to, the output extension or
// the configured fallback.
func targetFormat(cmd *cobra.Command, output string, fallback bitmap.CompressFormat) (bitmap.CompressFormat, error) {
	if cmd.Flags().Changed("to") {
		to, _ := cmd.Flags().GetString("to")
		return bitmap.ParseCompressFormat(to)
	}

	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), "."); ext != "" {
		if f, err := bitmap.ParseCompressFormat(ext); err == nil {
			return f, nil
		}
	}
	return fallback, nil
}

func writeOutput(stdout io.Writer, output string, data []byte) error {
	if output == stdinArg {
		_, err := stdout.Write(data)
		return err
	}

	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("output", "o", "", "output file path (- for stdout)")
	convertCmd.Flags().String("to", "png", "target format (png, jpeg)")
	convertCmd.Flags().IntP("quality", "q", 90, "JPEG quality (1-100)")
}
