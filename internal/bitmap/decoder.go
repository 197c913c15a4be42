package bitmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
)

// Decoder turns encoded image streams into bitmaps. The zero value is not
// usable; use NewDecoder. A Decoder holds no mutable state and may be shared
// between goroutines.
type Decoder struct {
	logger    *slog.Logger
	maxBytes  int64
	maxPixels int64
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMaxBytes limits how many bytes are read from a stream. Streams longer
// than n fail with KindIO. n <= 0 means unlimited.
func WithMaxBytes(n int64) DecoderOption {
	return func(d *Decoder) { d.maxBytes = n }
}

// WithMaxPixels rejects images whose header declares more than n pixels
// before any pixel buffer is allocated. Such streams fail with
// KindMalformed. n <= 0 means unlimited.
func WithMaxPixels(n int64) DecoderOption {
	return func(d *Decoder) { d.maxPixels = n }
}

// NewDecoder creates a Decoder. Without WithLogger it logs to slog.Default().
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Decoder) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// DecodeStream reads r to the end and decodes it. Failures are logged and
// reported as an absent result; they never escape as a panic.
func (d *Decoder) DecodeStream(r io.Reader) DecodeResult {
	b, format, err := d.decode(r)
	if err != nil {
		d.log().Error("bitmap decode failed", "kind", err.Kind.String(), "error", err.Err)
		return absent(err)
	}
	return present(b, format)
}

// DecodeStreamWithOptions is DecodeStream with the platform signature.
// outPadding and opts are ignored.
func (d *Decoder) DecodeStreamWithOptions(r io.Reader, outPadding *Rect, opts *Options) DecodeResult {
	return d.DecodeStream(r)
}

func (d *Decoder) decode(r io.Reader) (b *Bitmap, format string, derr *DecodeError) {
	if r == nil {
		return nil, "", &DecodeError{Kind: KindIO, Err: errors.New("nil reader")}
	}

	data, err := d.readAll(r)
	if err != nil {
		return nil, "", &DecodeError{Kind: KindIO, Err: err}
	}
	if len(data) == 0 {
		return nil, "", &DecodeError{Kind: KindEmpty, Err: io.ErrUnexpectedEOF}
	}

	defer func() {
		if p := recover(); p != nil {
			b, format = nil, ""
			derr = &DecodeError{Kind: KindMalformed, Err: fmt.Errorf("decoder panic: %v", p)}
		}
	}()

	if err := d.checkPixels(data); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Kind: KindMalformed, Err: err}
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, "", &DecodeError{
			Kind: KindMalformed,
			Err:  fmt.Errorf("decoded %s image has no pixels (%dx%d)", format, bounds.Dx(), bounds.Dy()),
		}
	}
	return New(img), format, nil
}

func (d *Decoder) readAll(r io.Reader) ([]byte, error) {
	if d.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("stream exceeds %d bytes", d.maxBytes)
	}
	return data, nil
}

func (d *Decoder) checkPixels(data []byte) *DecodeError {
	if d.maxPixels <= 0 {
		return nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &DecodeError{Kind: KindMalformed, Err: err}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > d.maxPixels {
		return &DecodeError{
			Kind: KindMalformed,
			Err:  fmt.Errorf("%s image of %dx%d exceeds the %d pixel limit", format, cfg.Width, cfg.Height, d.maxPixels),
		}
	}
	return nil
}

// DecodeBounds reads only the image header and returns its dimensions and
// format name. It is independent of Options.InJustDecodeBounds, which stays
// inert. Failures are *DecodeError values classified like DecodeStream.
func DecodeBounds(r io.Reader) (image.Config, string, error) {
	if r == nil {
		return image.Config{}, "", &DecodeError{Kind: KindIO, Err: errors.New("nil reader")}
	}

	cr := &recordingReader{r: r}
	cfg, format, err := image.DecodeConfig(cr)
	switch {
	case err == nil:
		return cfg, format, nil
	case cr.err != nil:
		return image.Config{}, "", &DecodeError{Kind: KindIO, Err: cr.err}
	case cr.n == 0:
		return image.Config{}, "", &DecodeError{Kind: KindEmpty, Err: io.ErrUnexpectedEOF}
	default:
		return image.Config{}, "", &DecodeError{Kind: KindMalformed, Err: err}
	}
}

// recordingReader remembers how much was read and the first non-EOF error,
// so reader failures can be told apart from bad data.
type recordingReader struct {
	r   io.Reader
	n   int64
	err error
}

func (c *recordingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if err != nil && err != io.EOF && c.err == nil {
		c.err = err
	}
	return n, err
}

var defaultDecoder = NewDecoder()

// DecodeStream decodes r with a decoder logging to slog.Default().
func DecodeStream(r io.Reader) DecodeResult {
	return defaultDecoder.DecodeStream(r)
}

// DecodeStreamWithOptions forwards to DecodeStream; outPadding and opts have
// no effect.
func DecodeStreamWithOptions(r io.Reader, outPadding *Rect, opts *Options) DecodeResult {
	return defaultDecoder.DecodeStreamWithOptions(r, outPadding, opts)
}
