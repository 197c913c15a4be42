package bitmap

// Options mirrors the decode options of the platform bitmap factory.
//
// None of the fields change how a stream is decoded. They are accepted so
// callers written against the platform signature keep compiling; bitmap
// reuse, sub-sampling, mutability and bounds-only decoding are not
// implemented.
type Options struct {
	InBitmap           *Bitmap
	InMutable          bool
	InJustDecodeBounds bool
	InSampleSize       int
	InPreferredConfig  Config
}

// NewOptions returns Options with the preferred config set to ARGB_8888.
func NewOptions() *Options {
	return &Options{InPreferredConfig: ConfigARGB8888}
}
