package bitmap

import (
	"errors"
	"fmt"
)

// ErrDecode matches every DecodeError via errors.Is.
var ErrDecode = errors.New("bitmap decode failed")

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	// KindMalformed covers unknown formats, corrupt or truncated data and
	// images with no pixels.
	KindMalformed ErrorKind = iota
	// KindIO means reading the input stream failed.
	KindIO
	// KindEmpty means the stream held no bytes at all.
	KindEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindIO:
		return "io"
	case KindEmpty:
		return "empty"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecodeError describes why a stream could not be turned into a bitmap.
type DecodeError struct {
	Kind ErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bitmap decode failed (%s)", e.Kind)
	}
	return fmt.Sprintf("bitmap decode failed (%s): %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) succeed for any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
