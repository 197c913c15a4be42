package bitmap

// DecodeResult is the outcome of a decode: either a bitmap or absent.
// An absent result never carries a partially built bitmap.
type DecodeResult struct {
	bitmap *Bitmap
	format string
	err    *DecodeError
}

func present(b *Bitmap, format string) DecodeResult {
	return DecodeResult{bitmap: b, format: format}
}

func absent(err *DecodeError) DecodeResult { return DecodeResult{err: err} }

// OK reports whether the decode produced a bitmap.
func (r DecodeResult) OK() bool { return r.bitmap != nil }

// Bitmap returns the decoded bitmap and true, or nil and false when absent.
func (r DecodeResult) Bitmap() (*Bitmap, bool) {
	return r.bitmap, r.bitmap != nil
}

// Format returns the detected encoding name ("png", "jpeg", ...) of a
// successful decode, or "" when absent.
func (r DecodeResult) Format() string { return r.format }

// Err returns the failure behind an absent result, or nil.
func (r DecodeResult) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// OrNil returns the bitmap or nil, matching the nullable platform return.
func (r DecodeResult) OrNil() *Bitmap { return r.bitmap }
