package bitmap

import (
	// Registered codecs; image.Decode picks one by magic bytes.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedFormats lists the encodings DecodeStream can read.
var SupportedFormats = []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"}
