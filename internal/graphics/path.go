package graphics

// Point is a position in canvas pixel space.
type Point struct {
	X, Y float32
}

// Path is an open polyline built with MoveTo and LineTo.
type Path struct {
	points []Point
}

// MoveTo appends a point. Paths hold a single polyline, so MoveTo and LineTo
// behave the same.
func (p *Path) MoveTo(x, y float32) {
	p.points = append(p.points, Point{X: x, Y: y})
}

// LineTo appends a point connected to the previous one.
func (p *Path) LineTo(x, y float32) {
	p.points = append(p.points, Point{X: x, Y: y})
}

// Points returns the polyline vertices.
func (p *Path) Points() []Point { return p.points }

// IsEmpty reports whether no points were added.
func (p *Path) IsEmpty() bool { return len(p.points) == 0 }

// Reset removes all points.
func (p *Path) Reset() { p.points = p.points[:0] }
