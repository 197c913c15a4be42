package graphics

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseColor parses a hex color written as "#AARRGGBB" or "0xAARRGGBB".
// Only the low 32 bits are kept, so "#RRGGBB" yields a fully transparent
// color. ok is false when s carries neither prefix; callers then fall back
// to their default.
func ParseColor(s string) (c uint32, ok bool, err error) {
	var digits string
	switch {
	case strings.HasPrefix(s, "#"):
		digits = s[1:]
	case strings.HasPrefix(s, "0x"):
		digits = s[2:]
	default:
		return 0, false, nil
	}

	v, err := strconv.ParseInt(digits, 16, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid color %q: expected an argb hex value", s)
	}
	return uint32(v), true, nil //nolint:gosec // G115: keeping the low 32 bits is the point
}
