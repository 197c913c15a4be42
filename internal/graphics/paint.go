package graphics

import (
	"fmt"
	"image/color"
)

// Style selects whether a path is filled, stroked or both.
type Style int

const (
	StyleFill Style = iota
	StyleStroke
	StyleFillAndStroke
)

func (s Style) String() string {
	switch s {
	case StyleFill:
		return "FILL"
	case StyleStroke:
		return "STROKE"
	case StyleFillAndStroke:
		return "FILL_AND_STROKE"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// Cap is the shape drawn at the open ends of a stroked path.
type Cap int

const (
	CapButt Cap = iota
	CapRound
	CapSquare
)

func (c Cap) String() string {
	switch c {
	case CapButt:
		return "BUTT"
	case CapRound:
		return "ROUND"
	case CapSquare:
		return "SQUARE"
	default:
		return fmt.Sprintf("Cap(%d)", int(c))
	}
}

// Join is the shape drawn where two stroked segments meet.
type Join int

const (
	JoinMiter Join = iota
	JoinRound
	JoinBevel
)

func (j Join) String() string {
	switch j {
	case JoinMiter:
		return "MITER"
	case JoinRound:
		return "ROUND"
	case JoinBevel:
		return "BEVEL"
	default:
		return fmt.Sprintf("Join(%d)", int(j))
	}
}

// Paint holds the style used when drawing paths. Color is packed as
// 0xAARRGGBB.
type Paint struct {
	Style       Style
	StrokeCap   Cap
	StrokeJoin  Join
	StrokeWidth float32
	Color       uint32
	AntiAlias   bool
}

// NewPaint returns a Paint with the platform defaults: stroke style, square
// caps, bevel joins, width 1 and a fully transparent color.
func NewPaint() *Paint {
	return &Paint{
		Style:       StyleStroke,
		StrokeCap:   CapSquare,
		StrokeJoin:  JoinBevel,
		StrokeWidth: 1,
	}
}

// NRGBA unpacks Color.
func (p *Paint) NRGBA() color.NRGBA {
	return ARGB(p.Color)
}

// ARGB unpacks a 0xAARRGGBB color.
func ARGB(c uint32) color.NRGBA {
	return color.NRGBA{
		A: uint8(c >> 24),
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
	}
}

// PackARGB packs a color as 0xAARRGGBB.
func PackARGB(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
