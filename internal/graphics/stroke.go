package graphics

// miterLimit is the maximum ratio of miter length to half the stroke width
// before a miter join falls back to a bevel.
const miterLimit = 4.0

// strokePolygons converts a polyline into convex pieces covering its stroke.
func strokePolygons(pts []vec, width float64, cp Cap, jn Join) []polygon {
	pts = dedupe(pts)
	if len(pts) == 0 {
		return nil
	}
	if width <= 0 {
		width = 1
	}
	half := width / 2

	if len(pts) == 1 {
		switch cp {
		case CapRound:
			return []polygon{circle(pts[0], half)}
		case CapSquare:
			p := pts[0]
			return []polygon{{
				{p.x - half, p.y - half}, {p.x + half, p.y - half},
				{p.x + half, p.y + half}, {p.x - half, p.y + half},
			}}
		default:
			return nil
		}
	}

	var out []polygon
	last := len(pts) - 2
	for i := 0; i <= last; i++ {
		a, b := pts[i], pts[i+1]
		d := b.sub(a).normalize()
		n := d.perp().scale(half)
		if cp == CapSquare {
			if i == 0 {
				a = a.sub(d.scale(half))
			}
			if i == last {
				b = b.add(d.scale(half))
			}
		}
		out = append(out, polygon{a.add(n), b.add(n), b.sub(n), a.sub(n)})
	}

	if cp == CapRound {
		out = append(out, circle(pts[0], half), circle(pts[len(pts)-1], half))
	}

	for i := 1; i < len(pts)-1; i++ {
		out = append(out, joinPolygons(pts[i-1], pts[i], pts[i+1], half, jn)...)
	}
	return out
}

func joinPolygons(prev, v, next vec, half float64, jn Join) []polygon {
	if jn == JoinRound {
		return []polygon{circle(v, half)}
	}

	n1 := v.sub(prev).normalize().perp()
	n2 := next.sub(v).normalize().perp()
	bevel := []polygon{
		{v, v.add(n1.scale(half)), v.add(n2.scale(half))},
		{v, v.sub(n1.scale(half)), v.sub(n2.scale(half))},
	}
	if jn != JoinMiter {
		return bevel
	}

	sum := n1.add(n2)
	if sum.length() < 1e-9 {
		return bevel
	}
	m := sum.normalize()
	cos := m.dot(n1)
	if cos <= 0 || 1/cos > miterLimit {
		return bevel
	}
	tip := m.scale(half / cos)
	return []polygon{
		{v, v.add(n1.scale(half)), v.add(tip), v.add(n2.scale(half))},
		{v, v.sub(n1.scale(half)), v.sub(tip), v.sub(n2.scale(half))},
	}
}

func dedupe(pts []vec) []vec {
	out := make([]vec, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].equal(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}
