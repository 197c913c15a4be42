// Package render turns timelines of GPS tracks into numbered PNG frames of
// tracks growing over a map, ready to be stitched into a video.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/MeKo-Tech/gobitmap/internal/graphics"
	"github.com/MeKo-Tech/gobitmap/internal/track"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// FramePattern names the frame files. Frame 0 is the bare background.
const FramePattern = "map_%05d.png"

// ErrNoTracks is returned when there is nothing to draw.
var ErrNoTracks = errors.New("no tracks loaded")

// Options configures a Generator.
type Options struct {
	Width, Height int

	// Map centre and zoom level (0 shows the whole world).
	Latitude  float64
	Longitude float64
	Zoom      int
	Density   int

	OutputDir string

	// Frames advance by Step; each highlights the trailing Highlight of
	// every track. Nothing past MaxDuration is drawn.
	MaxDuration time.Duration
	Step        time.Duration
	Highlight   time.Duration

	HighlightWidth float32
	FadedWidth     float32
	Theme          Theme

	// Background is drawn scaled under the tracks. A blank map is used
	// when nil.
	Background *bitmap.Bitmap

	// Workers bounds concurrent PNG writes; 0 means one per CPU.
	Workers int
	Logger  *slog.Logger
}

// DefaultOptions returns six hours of track in one minute steps with a
// five minute highlight, drawn at 1920x1080.
func DefaultOptions() Options {
	return Options{
		Width:          1920,
		Height:         1080,
		Zoom:           12,
		Density:        2,
		OutputDir:      "frames",
		MaxDuration:    6 * time.Hour,
		Step:           time.Minute,
		Highlight:      5 * time.Minute,
		HighlightWidth: 1,
		FadedWidth:     1,
		Theme:          DefaultTheme,
	}
}

// Generator draws frames.
type Generator struct {
	opts   Options
	proj   *Projector
	logger *slog.Logger
}

// NewGenerator checks opts and returns a generator.
func NewGenerator(opts Options) (*Generator, error) {
	switch {
	case opts.Width <= 0 || opts.Height <= 0:
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	case opts.Step <= 0 || opts.Highlight <= 0 || opts.MaxDuration <= 0:
		return nil, errors.New("step, highlight and max duration must be positive")
	case opts.Zoom < 0 || opts.Density <= 0:
		return nil, fmt.Errorf("invalid zoom %d or density %d", opts.Zoom, opts.Density)
	case opts.OutputDir == "":
		return nil, errors.New("no output directory")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		opts:   opts,
		proj:   NewProjector(opts.Latitude, opts.Longitude, opts.Zoom, opts.Density, opts.Width, opts.Height),
		logger: logger,
	}, nil
}

// Projector returns the projection used for drawing.
func (g *Generator) Projector() *Projector { return g.proj }

// FramePath returns the file written for frame n.
func (g *Generator) FramePath(n int) string {
	return filepath.Join(g.opts.OutputDir, fmt.Sprintf(FramePattern, n))
}

// Generate removes old PNG files from the output directory and writes
// frame 0 with the background followed by one frame per step. Faded
// track lines accumulate on the background; the current window is drawn
// highlighted on top. Generation stops at the first step past MaxDuration
// or the first step where no track has any point. The written paths are
// returned in frame order.
func (g *Generator) Generate(ctx context.Context, timelines []*track.Timeline) ([]string, error) {
	if len(timelines) == 0 {
		return nil, ErrNoTracks
	}
	if err := g.prepareOutputDir(); err != nil {
		return nil, err
	}

	background := g.background()

	var maxTS time.Duration
	for _, tl := range timelines {
		maxTS = max(maxTS, tl.Duration())
	}
	numFrames := int((min(maxTS, g.opts.MaxDuration) + g.opts.Highlight) / g.opts.Step)
	g.logger.Info("Generating frames", "frames", numFrames, "tracks", len(timelines), "output", g.opts.OutputDir)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)

	paths := []string{g.FramePath(0)}
	g.write(eg, clone(background), paths[0])

	highlight := g.paint(g.opts.Theme.TrackColor, g.opts.HighlightWidth)
	faded := g.paint(g.opts.Theme.TrackFadedColor, g.opts.FadedWidth)
	bgCanvas := graphics.NewCanvas(background)

	frame, lastPercent := 0, 0
	for {
		if err := egCtx.Err(); err != nil {
			break
		}

		to := time.Duration(frame+1) * g.opts.Step
		from := to - g.opts.Highlight
		if from >= g.opts.MaxDuration {
			break
		}

		windows := visibleWindows(timelines, from, to)
		if len(windows) == 0 {
			break
		}
		frame++

		img := clone(background)
		canvas := graphics.NewCanvas(img)
		for _, w := range windows {
			canvas.DrawPath(g.path(w), highlight)
		}
		path := g.FramePath(frame)
		paths = append(paths, path)
		g.write(eg, img, path)

		for _, w := range windows {
			bgCanvas.DrawPath(g.path(w), faded)
		}

		if numFrames > 0 {
			if percent := min(100, max(0, frame*100/numFrames)); percent != lastPercent {
				lastPercent = percent
				g.logger.Debug("Generating frame", "percent", percent, "frames", frame)
			}
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.logger.Info("Generated frames", "frames", len(paths), "output", g.opts.OutputDir)
	return paths, nil
}

func visibleWindows(timelines []*track.Timeline, from, to time.Duration) [][]track.TimedPoint {
	var out [][]track.TimedPoint
	for _, tl := range timelines {
		if w := tl.Window(from, to); len(w) > 0 {
			out = append(out, w)
		}
	}
	return out
}

func (g *Generator) paint(c uint32, width float32) *graphics.Paint {
	p := graphics.NewPaint()
	p.Style = graphics.StyleStroke
	p.StrokeCap = graphics.CapRound
	p.StrokeJoin = graphics.JoinRound
	p.StrokeWidth = width
	p.AntiAlias = true
	p.Color = c
	return p
}

func (g *Generator) path(pts []track.TimedPoint) *graphics.Path {
	var p graphics.Path
	for _, pt := range pts {
		x, y := g.proj.Project(pt.Lat(), pt.Lon())
		if p.IsEmpty() {
			p.MoveTo(float32(x), float32(y))
		} else {
			p.LineTo(float32(x), float32(y))
		}
	}
	return &p
}

// background returns the grayscale map, inverted for dark themes.
func (g *Generator) background() *bitmap.Bitmap {
	b := bitmap.New(imaging.New(g.opts.Width, g.opts.Height, color.White))

	if src := g.opts.Background; src != nil {
		graphics.NewCanvas(b).DrawBitmap(src,
			bitmap.NewRect(0, 0, src.Width(), src.Height()),
			bitmap.NewRect(0, 0, g.opts.Width, g.opts.Height),
			nil,
		)
	}

	gray := imaging.Grayscale(b.Image())
	if g.opts.Theme.DarkMap {
		gray = imaging.Invert(gray)
	}
	return bitmap.New(gray)
}

func (g *Generator) prepareOutputDir() error {
	if err := os.MkdirAll(g.opts.OutputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	entries, err := os.ReadDir(g.opts.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	g.logger.Info("Deleting old images", "output", g.opts.OutputDir)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		if err := os.Remove(filepath.Join(g.opts.OutputDir, e.Name())); err != nil {
			return fmt.Errorf("failed to delete %s: %w", e.Name(), err)
		}
	}
	return nil
}

// write encodes b to path in the background.
func (g *Generator) write(eg *errgroup.Group, b *bitmap.Bitmap, path string) {
	eg.Go(func() error {
		f, err := os.Create(path) //nolint:gosec // G304: path is built from the output directory
		if err != nil {
			return fmt.Errorf("failed to create frame: %w", err)
		}
		if _, err := b.Compress(bitmap.CompressPNG, 0, f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return f.Close()
	})
}

func clone(b *bitmap.Bitmap) *bitmap.Bitmap {
	return bitmap.New(imaging.Clone(b.Image()))
}
