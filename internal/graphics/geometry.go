package graphics

import "math"

type vec struct{ x, y float64 }

func (a vec) add(b vec) vec       { return vec{a.x + b.x, a.y + b.y} }
func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y} }
func (a vec) scale(s float64) vec { return vec{a.x * s, a.y * s} }
func (a vec) dot(b vec) float64   { return a.x*b.x + a.y*b.y }
func (a vec) length() float64     { return math.Hypot(a.x, a.y) }
func (a vec) perp() vec           { return vec{-a.y, a.x} }
func (a vec) equal(b vec) bool    { return a.x == b.x && a.y == b.y }
func (a vec) normalize() vec      { return a.scale(1 / a.length()) }

func (a vec) finite() bool {
	return !math.IsInf(a.x, 0) && !math.IsNaN(a.x) && !math.IsInf(a.y, 0) && !math.IsNaN(a.y)
}

type polygon []vec

// signedArea is positive for counter-clockwise polygons in a y-up system.
func (p polygon) signedArea() float64 {
	var s float64
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		s += a.x*b.y - b.x*a.y
	}
	return s / 2
}

func (p polygon) finite() bool {
	for _, v := range p {
		if !v.finite() {
			return false
		}
	}
	return true
}

// oriented returns p with a positive signed area so overlapping pieces of
// one stroke accumulate instead of cancelling.
func (p polygon) oriented() polygon {
	if p.signedArea() >= 0 {
		return p
	}
	out := make(polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// clip returns p clipped to the rectangle [0,w]x[0,h]
// (Sutherland-Hodgman).
func (p polygon) clip(w, h float64) polygon {
	out := p
	edges := []struct {
		inside func(vec) bool
		cross  func(a, b vec) vec
	}{
		{func(v vec) bool { return v.x >= 0 }, func(a, b vec) vec { return lerpX(a, b, 0) }},
		{func(v vec) bool { return v.x <= w }, func(a, b vec) vec { return lerpX(a, b, w) }},
		{func(v vec) bool { return v.y >= 0 }, func(a, b vec) vec { return lerpY(a, b, 0) }},
		{func(v vec) bool { return v.y <= h }, func(a, b vec) vec { return lerpY(a, b, h) }},
	}
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = make(polygon, 0, len(in)+2)
		for i, cur := range in {
			prev := in[(i+len(in)-1)%len(in)]
			curIn, prevIn := e.inside(cur), e.inside(prev)
			switch {
			case curIn && prevIn:
				out = append(out, cur)
			case curIn && !prevIn:
				out = append(out, e.cross(prev, cur), cur)
			case !curIn && prevIn:
				out = append(out, e.cross(prev, cur))
			}
		}
	}
	return out
}

func lerpX(a, b vec, x float64) vec {
	t := (x - a.x) / (b.x - a.x)
	return vec{x, a.y + t*(b.y-a.y)}
}

func lerpY(a, b vec, y float64) vec {
	t := (y - a.y) / (b.y - a.y)
	return vec{a.x + t*(b.x-a.x), y}
}

const circleSegments = 32

func circle(c vec, r float64) polygon {
	p := make(polygon, circleSegments)
	for i := range p {
		a := 2 * math.Pi * float64(i) / circleSegments
		p[i] = vec{c.x + r*math.Cos(a), c.y + r*math.Sin(a)}
	}
	return p
}
