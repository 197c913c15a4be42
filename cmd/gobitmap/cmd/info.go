package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/spf13/cobra"
)

// infoCmd reads only image headers.
var infoCmd = &cobra.Command{
	Use:   "info [file...]",
	Short: "Print image dimensions from headers without decoding pixels",
	Long: `Read only the header of each image to report its format and dimensions.
This is cheaper than decode for large files.

Examples:
  gobitmap info photo.jpg scan.tiff`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			r, closeFn, err := openInput(cmd, path)
			if err != nil {
				failed++
				_, _ = fmt.Fprintf(out, "%s: failed: %v\n", path, err)
				continue
			}

			cfg, format, err := bitmap.DecodeBounds(r)
			closeFn()
			if err != nil {
				failed++
				_, _ = fmt.Fprintf(out, "%s: failed: %v\n", path, err)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s: %dx%d %s\n", path, cfg.Width, cfg.Height, format)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d input(s) could not be read", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
