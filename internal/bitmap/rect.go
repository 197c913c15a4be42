package bitmap

import "image"

// Rect is an integer rectangle given by its edges. Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// NewRect builds a Rect from its four edges.
func NewRect(left, top, right, bottom int) Rect {
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Width returns Right - Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Image converts r to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}
