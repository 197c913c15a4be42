package render

import "math"

// TileSize is the edge of a map tile at density 1.
const TileSize = 256

// Projector maps coordinates onto a frame with spherical Mercator, centred
// on a fixed point at a fixed zoom level.
type Projector struct {
	mapSize      float64
	centerX      float64
	centerY      float64
	halfW, halfH int
}

// NewProjector returns a projector for a width x height frame. density
// scales the tile size, so density 2 draws the map twice as large.
func NewProjector(lat, lon float64, zoom, density, width, height int) *Projector {
	p := &Projector{
		mapSize: float64(int64(TileSize*density) << zoom),
		halfW:   width / 2,
		halfH:   height / 2,
	}
	p.centerX, p.centerY = p.Pixel(lat, lon)
	return p
}

// MapSize returns the width and height of the whole world in pixels.
func (p *Projector) MapSize() float64 { return p.mapSize }

// Pixel returns the absolute map pixel of a coordinate. y is clamped to
// the map so the poles stay finite.
func (p *Projector) Pixel(lat, lon float64) (x, y float64) {
	x = (lon + 180) / 360 * p.mapSize

	sin := math.Sin(lat * math.Pi / 180)
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * p.mapSize
	if math.IsNaN(y) {
		y = 0
	}
	y = min(max(y, 0), p.mapSize)
	return x, y
}

// Project returns the frame pixel of a coordinate. The offset from the
// centre is truncated toward zero.
func (p *Projector) Project(lat, lon float64) (x, y int) {
	px, py := p.Pixel(lat, lon)
	return int(px-p.centerX) + p.halfW, int(py-p.centerY) + p.halfH
}
