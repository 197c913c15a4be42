// Package graphics draws onto bitmaps: compositing other bitmaps and
// stroking or filling polylines.
package graphics

import (
	"image"
	"image/draw"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// Canvas draws into a target bitmap. It is not safe for concurrent use.
type Canvas struct {
	dst *bitmap.Bitmap
}

// NewCanvas returns a canvas drawing into b.
func NewCanvas(b *bitmap.Bitmap) *Canvas {
	return &Canvas{dst: b}
}

// Bitmap returns the target bitmap.
func (c *Canvas) Bitmap() *bitmap.Bitmap { return c.dst }

// DrawBitmap scales the srcRect region of src into dstRect and composites it
// over the canvas. Parts of srcRect outside src are skipped, and the
// matching part of dstRect is left untouched. paint is ignored.
func (c *Canvas) DrawBitmap(src *bitmap.Bitmap, srcRect, dstRect bitmap.Rect, paint *Paint) {
	if src == nil || srcRect.Empty() || dstRect.Empty() {
		return
	}

	full := srcRect.Image()
	visible := full.Intersect(src.Image().Bounds())
	if visible.Empty() {
		return
	}

	sx := float64(dstRect.Width()) / float64(full.Dx())
	sy := float64(dstRect.Height()) / float64(full.Dy())
	target := image.Rect(
		dstRect.Left+int(float64(visible.Min.X-full.Min.X)*sx),
		dstRect.Top+int(float64(visible.Min.Y-full.Min.Y)*sy),
		dstRect.Left+int(float64(visible.Max.X-full.Min.X)*sx),
		dstRect.Top+int(float64(visible.Max.Y-full.Min.Y)*sy),
	)
	if target.Empty() {
		return
	}

	piece := imaging.Crop(src.Image(), visible)
	if piece.Bounds().Dx() != target.Dx() || piece.Bounds().Dy() != target.Dy() {
		piece = imaging.Resize(piece, target.Dx(), target.Dy(), imaging.Lanczos)
	}
	draw.Draw(c.dst.Image(), target, piece, image.Point{}, draw.Over)
}

// DrawBitmapAt composites src with its top-left corner at (left, top).
// Coordinates are truncated to whole pixels. paint is ignored.
func (c *Canvas) DrawBitmapAt(src *bitmap.Bitmap, left, top float32, paint *Paint) {
	if src == nil {
		return
	}
	r := src.Image().Bounds().Add(image.Pt(int(left), int(top)))
	draw.Draw(c.dst.Image(), r, src.Image(), image.Point{}, draw.Over)
}

// DrawPath fills and/or strokes path with paint, depending on paint.Style.
// Vertices address pixel centres. Infinite or NaN vertices are skipped.
func (c *Canvas) DrawPath(path *Path, paint *Paint) {
	if path == nil || path.IsEmpty() || paint == nil {
		return
	}
	col := paint.NRGBA()
	if col.A == 0 {
		return
	}

	pts := make([]vec, 0, len(path.Points()))
	for _, p := range path.Points() {
		v := vec{float64(p.X) + 0.5, float64(p.Y) + 0.5}
		if !v.finite() {
			continue
		}
		pts = append(pts, v)
	}
	if len(pts) == 0 {
		return
	}

	bounds := c.dst.Image().Bounds()
	mask := image.NewAlpha(bounds)
	if paint.Style == StyleFill || paint.Style == StyleFillAndStroke {
		if len(pts) >= 3 {
			rasterize(mask, []polygon{pts})
		}
	}
	if paint.Style == StyleStroke || paint.Style == StyleFillAndStroke {
		rasterize(mask, strokePolygons(pts, float64(paint.StrokeWidth), paint.StrokeCap, paint.StrokeJoin))
	}
	if !paint.AntiAlias {
		for i, a := range mask.Pix {
			if a >= 0x80 {
				mask.Pix[i] = 0xff
			} else {
				mask.Pix[i] = 0
			}
		}
	}

	draw.DrawMask(c.dst.Image(), bounds, image.NewUniform(col), image.Point{}, mask, bounds.Min, draw.Over)
}

// rasterize adds the coverage of polys to mask.
func rasterize(mask *image.Alpha, polys []polygon) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	z := vector.NewRasterizer(w, h)
	drawn := false
	for _, p := range polys {
		p = p.oriented().clip(float64(w), float64(h))
		if len(p) < 3 || !p.finite() {
			continue
		}
		z.MoveTo(float32(p[0].x), float32(p[0].y))
		for _, v := range p[1:] {
			z.LineTo(float32(v.x), float32(v.y))
		}
		z.ClosePath()
		drawn = true
	}
	if drawn {
		z.Draw(mask, b, image.Opaque, image.Point{})
	}
}
