package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// KnownPixels is the content of the 2x2 fixture returned by TwoByTwoPNG,
// in row-major order.
var KnownPixels = []color.NRGBA{
	{R: 255, G: 0, B: 0, A: 255},
	{R: 0, G: 255, B: 0, A: 255},
	{R: 0, G: 0, B: 255, A: 255},
	{R: 10, G: 20, B: 30, A: 128},
}

// GarbageBytes is data that no registered codec recognises.
var GarbageBytes = []byte("definitely not an image \x00\x01\x02\x03\xfe\xff")

// TwoByTwoImage returns the 2x2 NRGBA image described by KnownPixels.
func TwoByTwoImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i, c := range KnownPixels {
		img.SetNRGBA(i%2, i/2, c)
	}
	return img
}

// TwoByTwoPNG returns TwoByTwoImage encoded as PNG.
func TwoByTwoPNG(t testing.TB) []byte {
	t.Helper()
	return EncodePNG(t, TwoByTwoImage())
}

// SolidImage returns a w x h image filled with c.
func SolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// Encode encodes img in one of the fixture formats: png, jpeg, gif, bmp
// or tiff.
func Encode(format string, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(&buf, img, &gif.Options{NumColors: len(palette.Plan9)})
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("unsupported fixture format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mustEncode(t testing.TB, format string, img image.Image) []byte {
	t.Helper()
	data, err := Encode(format, img)
	require.NoError(t, err)
	return data
}

// EncodePNG encodes img as PNG.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	return mustEncode(t, "png", img)
}

// EncodeJPEG encodes img as JPEG at quality 90.
func EncodeJPEG(t testing.TB, img image.Image) []byte {
	t.Helper()
	return mustEncode(t, "jpeg", img)
}

// EncodeGIF encodes img as a single-frame GIF using the Plan9 palette.
func EncodeGIF(t testing.TB, img image.Image) []byte {
	t.Helper()
	return mustEncode(t, "gif", img)
}

// EncodeBMP encodes img as BMP.
func EncodeBMP(t testing.TB, img image.Image) []byte {
	t.Helper()
	return mustEncode(t, "bmp", img)
}

// EncodeTIFF encodes img as uncompressed TIFF.
func EncodeTIFF(t testing.TB, img image.Image) []byte {
	t.Helper()
	return mustEncode(t, "tiff", img)
}

// TruncateJPEG returns a JPEG of the given size cut off halfway through
// its entropy-coded data.
func TruncateJPEG(w, h int) ([]byte, error) {
	full, err := Encode("jpeg", SolidImage(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255}))
	if err != nil {
		return nil, err
	}
	if len(full) <= 64 {
		return nil, fmt.Errorf("jpeg too small to truncate: %d bytes", len(full))
	}
	return full[:len(full)/2], nil
}

// TruncatedJPEG is TruncateJPEG failing t on error.
func TruncatedJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	data, err := TruncateJPEG(w, h)
	require.NoError(t, err)
	return data
}

// LosslessWebP is a 1x1 fully transparent VP8L image.
var LosslessWebP = []byte{
	0x52, 0x49, 0x46, 0x46, 0x14, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50,
	0x56, 0x50, 0x38, 0x4c, 0x08, 0x00, 0x00, 0x00,
	0x2f, 0x00, 0x00, 0x00, 0x10, 0x88, 0x88, 0x08,
}

// PNGHeader returns a PNG signature and IHDR chunk declaring a w x h RGBA
// image with no pixel data. It is enough for image.DecodeConfig.
func PNGHeader(w, h uint32) []byte {
	ihdr := make([]byte, 0, 17)
	ihdr = append(ihdr, "IHDR"...)
	ihdr = binary.BigEndian.AppendUint32(ihdr, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 6, 0, 0, 0) // 8-bit RGBA, no interlace

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)-4))
	buf.Write(ihdr)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return buf.Bytes()
}
