package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/gobitmap/internal/batch"
	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/MeKo-Tech/gobitmap/internal/config"
	"github.com/spf13/cobra"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"

	stdinArg = "-"
)

// DecodeReport describes the outcome of decoding one input.
type DecodeReport struct {
	File      string `json:"file"`
	Success   bool   `json:"success"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Format    string `json:"format,omitempty"`
	Config    string `json:"config,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// decodeCmd represents the decode command.
var decodeCmd = &cobra.Command{
	Use:   "decode [file...]",
	Short: "Decode image files into bitmaps and report their dimensions",
	Long: `Decode one or more image files and print width, height, pixel config and
detected format for each. Directories are scanned for image files
(--recursive to descend). Use "-" to read from standard input.

Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP

Examples:
  gobitmap decode photo.jpg
  gobitmap decode *.png --format json
  gobitmap decode ./photos --recursive --exclude "*_thumb.*"
  cat photo.gif | gobitmap decode -`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		if format != outputFormatText && format != outputFormatJSON {
			return fmt.Errorf("invalid output format: %s (must be one of: %s, %s)", format, outputFormatText, outputFormatJSON)
		}

		workers := cfg.Decode.Workers
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
			if workers < 0 {
				return fmt.Errorf("invalid workers: %d (must not be negative)", workers)
			}
		}
		recursive, _ := cmd.Flags().GetBool("recursive")
		include, _ := cmd.Flags().GetStringSlice("include")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")

		sources, err := collectSources(cmd, args, recursive, include, exclude)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return errors.New("no image files found")
		}

		decoder := newDecoder(cfg)
		res, err := batch.Run(cmd.Context(), decoder, sources, workers)
		if err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}

		reports := make([]DecodeReport, 0, len(res.Items))
		for _, it := range res.Items {
			reports = append(reports, reportFor(it))
		}

		if err := writeReports(cmd.OutOrStdout(), format, reports); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		stats := res.Stats()
		slog.Debug("Decode finished",
			"total", stats.Total,
			"decoded", stats.Decoded,
			"failed", stats.Failed,
			"workers", stats.Workers,
			"duration", stats.TotalDuration,
		)

		if stats.Failed > 0 {
			return fmt.Errorf("%d of %d input(s) could not be decoded", stats.Failed, stats.Total)
		}
		return nil
	},
}

// collectSources maps arguments to decode sources. Directories are expanded,
// "-" reads stdin and any other argument is opened as a file when decoded.
func collectSources(cmd *cobra.Command, args []string, recursive bool, include, exclude []string) ([]batch.Source, error) {
	var sources []batch.Source
	for _, arg := range args {
		if arg == stdinArg {
			stdin := cmd.InOrStdin()
			sources = append(sources, batch.Source{
				Name: stdinArg,
				Open: func() (io.ReadCloser, error) { return io.NopCloser(stdin), nil },
			})
			continue
		}

		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			files, err := batch.Discover([]string{arg}, recursive, include, exclude)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				sources = append(sources, batch.FileSource(f))
			}
			continue
		}

		sources = append(sources, batch.FileSource(arg))
	}
	return sources, nil
}

func reportFor(it batch.Item) DecodeReport {
	report := DecodeReport{File: it.Name}

	if it.OpenErr != nil {
		report.Error = fmt.Sprintf("failed to open %s: %v", it.Name, it.OpenErr)
		report.ErrorKind = bitmap.KindIO.String()
		return report
	}

	b, ok := it.Result.Bitmap()
	if !ok {
		report.Error = it.Result.Err().Error()
		var derr *bitmap.DecodeError
		if errors.As(it.Result.Err(), &derr) {
			report.ErrorKind = derr.Kind.String()
		}
		return report
	}

	report.Success = true
	report.Width = b.Width()
	report.Height = b.Height()
	report.Format = it.Result.Format()
	report.Config = b.Config().String()
	return report
}

// newDecoder builds a decoder with the configured stream and pixel limits.
func newDecoder(cfg *config.Config) *bitmap.Decoder {
	return bitmap.NewDecoder(
		bitmap.WithLogger(slog.Default()),
		bitmap.WithMaxBytes(cfg.Decode.MaxBytes),
		bitmap.WithMaxPixels(cfg.Decode.MaxPixels),
	)
}

// openInput opens path for reading, "-" meaning the command's stdin.
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == stdinArg {
		return cmd.InOrStdin(), func() {}, nil
	}

	f, err := os.Open(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func writeReports(w io.Writer, format string, reports []DecodeReport) error {
	if format == outputFormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	for _, r := range reports {
		var err error
		if r.Success {
			_, err = fmt.Fprintf(w, "%s: %dx%d %s %s\n", r.File, r.Width, r.Height, r.Config, r.Format)
		} else {
			_, err = fmt.Fprintf(w, "%s: failed (%s): %s\n", r.File, r.ErrorKind, r.Error)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
	decodeCmd.Flags().IntP("workers", "w", 0, "concurrent decodes (0 = one per CPU)")
	decodeCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	decodeCmd.Flags().StringSlice("include", nil, "glob patterns of file names to include from directories")
	decodeCmd.Flags().StringSlice("exclude", nil, "glob patterns of file names to exclude")
}
