package bitmap

import (
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Compress encodes the bitmap to w. JPEG and PNG are supported; the WebP
// formats report false without writing anything since no WebP encoder is
// available. quality only applies to JPEG and is clamped to 1..100, with 0
// selecting the default.
func (b *Bitmap) Compress(format CompressFormat, quality int, w io.Writer) (bool, error) {
	if w == nil {
		return false, ErrNilWriter
	}

	var (
		f    imaging.Format
		opts []imaging.EncodeOption
	)
	switch format {
	case CompressJPEG:
		f = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(clampQuality(quality)))
	case CompressPNG:
		f = imaging.PNG
	case CompressWEBP, CompressWEBPLossy, CompressWEBPLossless:
		return false, nil
	default:
		return false, fmt.Errorf("unsupported compress format: %v", format)
	}

	if err := imaging.Encode(w, b.img, f, opts...); err != nil {
		return false, fmt.Errorf("encode %s: %w", format, err)
	}
	return true, nil
}

func clampQuality(q int) int {
	switch {
	case q == 0:
		return defaultJPEGQuality
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}
