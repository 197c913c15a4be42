package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Config describes the pixel layout a bitmap was requested with.
// The backing buffer is always 32-bit non-premultiplied RGBA.
type Config int

const (
	ConfigAlpha8 Config = iota
	ConfigRGB565
	ConfigARGB4444
	ConfigARGB8888
	ConfigRGBAF16
	ConfigHardware
	ConfigRGBA1010102
)

var configNames = map[Config]string{
	ConfigAlpha8:      "ALPHA_8",
	ConfigRGB565:      "RGB_565",
	ConfigARGB4444:    "ARGB_4444",
	ConfigARGB8888:    "ARGB_8888",
	ConfigRGBAF16:     "RGBA_F16",
	ConfigHardware:    "HARDWARE",
	ConfigRGBA1010102: "RGBA_1010102",
}

func (c Config) String() string {
	if name, ok := configNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Config(%d)", int(c))
}

// ParseConfig parses a config name such as "ARGB_8888" (case-insensitive).
func ParseConfig(s string) (Config, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for c, name := range configNames {
		if name == want {
			return c, nil
		}
	}
	return ConfigARGB8888, fmt.Errorf("unknown bitmap config: %q", s)
}

// CompressFormat selects the encoder used by Compress.
type CompressFormat int

const (
	CompressJPEG         CompressFormat = 0
	CompressPNG          CompressFormat = 1
	CompressWEBP         CompressFormat = 2
	CompressWEBPLossy    CompressFormat = 3
	CompressWEBPLossless CompressFormat = 4
)

const defaultJPEGQuality = 90

func (f CompressFormat) String() string {
	switch f {
	case CompressJPEG:
		return "jpeg"
	case CompressPNG:
		return "png"
	case CompressWEBP:
		return "webp"
	case CompressWEBPLossy:
		return "webp_lossy"
	case CompressWEBPLossless:
		return "webp_lossless"
	default:
		return fmt.Sprintf("CompressFormat(%d)", int(f))
	}
}

// ParseCompressFormat accepts jpeg/jpg, png, webp, webp_lossy and webp_lossless.
func ParseCompressFormat(s string) (CompressFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return CompressJPEG, nil
	case "png":
		return CompressPNG, nil
	case "webp":
		return CompressWEBP, nil
	case "webp_lossy":
		return CompressWEBPLossy, nil
	case "webp_lossless":
		return CompressWEBPLossless, nil
	default:
		return CompressPNG, fmt.Errorf("unknown compress format: %q", s)
	}
}

// Bitmap is an in-memory decoded image. The caller owns it once returned.
type Bitmap struct {
	img    *image.NRGBA
	config Config
}

// New wraps img in a Bitmap. Images that are not already zero-origin NRGBA
// are copied into a fresh NRGBA buffer.
func New(img image.Image) *Bitmap {
	if img == nil {
		return nil
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	return &Bitmap{img: nrgba, config: ConfigARGB8888}
}

// Create returns a fully transparent bitmap of the given size.
func Create(width, height int, cfg Config) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid bitmap size %dx%d", width, height)
	}
	return &Bitmap{
		img:    image.NewNRGBA(image.Rect(0, 0, width, height)),
		config: cfg,
	}, nil
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.img.Rect.Dx() }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.img.Rect.Dy() }

// Config returns the config the bitmap was created with.
func (b *Bitmap) Config() Config { return b.config }

// Image exposes the backing pixel buffer. Writes through it are visible in
// the bitmap.
func (b *Bitmap) Image() *image.NRGBA { return b.img }

// At returns the pixel at (x, y). Out-of-range coordinates yield transparent black.
func (b *Bitmap) At(x, y int) color.NRGBA {
	return b.img.NRGBAAt(x, y)
}

// ErrNilWriter is returned by Compress when no output stream is given.
var ErrNilWriter = errors.New("nil output writer")
