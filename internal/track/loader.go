package track

import (
	"archive/zip"
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

const gpxExt = ".gpx"

// TimedPoint is a point placed on a timeline.
type TimedPoint struct {
	Point
	// Offset is the time since the first point of the timeline.
	Offset time.Duration
}

// Timeline is a single flattened track whose first point is at offset zero.
// Points are ordered by Offset.
type Timeline struct {
	Name   string
	Points []TimedPoint
}

// Duration returns the offset of the last point.
func (t *Timeline) Duration() time.Duration {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[len(t.Points)-1].Offset
}

// Window returns the points with from <= Offset < to.
func (t *Timeline) Window(from, to time.Duration) []TimedPoint {
	byOffset := func(p TimedPoint, d time.Duration) int { return cmp.Compare(p.Offset, d) }
	lo, _ := slices.BinarySearchFunc(t.Points, from, byOffset)
	hi, _ := slices.BinarySearchFunc(t.Points, to, byOffset)
	if hi < lo {
		hi = lo
	}
	return t.Points[lo:hi]
}

// Options configures a Loader.
type Options struct {
	// Source is a .zip archive or a directory of .gpx files.
	Source string
	// Filter, when set, must match a file name in full.
	Filter *regexp.Regexp
	Logger *slog.Logger
}

// Loader reads every matching GPX file of a source into timelines.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader returns a loader for opts.
func NewLoader(opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger}
}

// CompileFilter compiles expr so that it only matches whole names.
// An empty expr yields a nil filter.
func CompileFilter(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil //nolint:nilnil // no filter
	}
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	return re, nil
}

func (l *Loader) matches(name string) bool {
	if !strings.EqualFold(filepath.Ext(name), gpxExt) {
		return false
	}
	return l.opts.Filter == nil || l.opts.Filter.MatchString(name)
}

// Load reads the source. Files that fail to parse, hold no points or span
// no time are skipped with a warning.
func (l *Loader) Load() ([]*Timeline, error) {
	info, err := os.Stat(l.opts.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open track source: %w", err)
	}

	switch {
	case info.IsDir():
		return l.loadDir()
	case strings.EqualFold(filepath.Ext(l.opts.Source), ".zip"):
		return l.loadZip()
	default:
		return nil, fmt.Errorf("track source %s is neither a directory nor a zip file", l.opts.Source)
	}
}

func (l *Loader) loadZip() ([]*Timeline, error) {
	zr, err := zip.OpenReader(l.opts.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip %s: %w", l.opts.Source, err)
	}
	defer func() { _ = zr.Close() }()

	l.logger.Info("Importing tracks", "zip", l.opts.Source)
	var out []*Timeline
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !l.matches(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			l.logger.Warn("Skipping zip entry", "entry", f.Name, "error", err)
			continue
		}
		tl := l.load(f.Name, rc)
		_ = rc.Close()
		if tl != nil {
			out = append(out, tl)
		}
	}
	return out, nil
}

func (l *Loader) loadDir() ([]*Timeline, error) {
	entries, err := os.ReadDir(l.opts.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", l.opts.Source, err)
	}

	l.logger.Info("Importing tracks", "directory", l.opts.Source)
	var out []*Timeline
	for _, e := range entries {
		if e.IsDir() || !l.matches(e.Name()) {
			continue
		}
		f, err := os.Open(filepath.Join(l.opts.Source, e.Name()))
		if err != nil {
			l.logger.Warn("Skipping file", "file", e.Name(), "error", err)
			continue
		}
		tl := l.load(e.Name(), f)
		_ = f.Close()
		if tl != nil {
			out = append(out, tl)
		}
	}
	return out, nil
}

func (l *Loader) load(name string, r io.Reader) *Timeline {
	t, err := Parse(r)
	if err == nil {
		var tl *Timeline
		tl, err = NewTimeline(t, name)
		if err == nil {
			l.logger.Info("Loaded track", "name", tl.Name, "file", name, "points", len(tl.Points))
			return tl
		}
	}
	l.logger.Warn("Skipping track", "file", name, "error", err)
	return nil
}

// NewTimeline flattens t, orders its points by time and rebases them so
// the first one is at offset zero. fallbackName is used when t has no name.
// Tracks whose first and last points share a timestamp are rejected.
func NewTimeline(t *Track, fallbackName string) (*Timeline, error) {
	pts := t.Points()
	if len(pts) == 0 {
		return nil, ErrNoTrack
	}
	slices.SortStableFunc(pts, func(a, b Point) int { return a.Time.Compare(b.Time) })

	first, last := pts[0].Time, pts[len(pts)-1].Time
	if first.Equal(last) {
		return nil, errors.New("track spans no time")
	}

	tl := &Timeline{Name: t.Name, Points: make([]TimedPoint, len(pts))}
	if tl.Name == "" {
		tl.Name = fallbackName
	}
	for i, p := range pts {
		tl.Points[i] = TimedPoint{Point: p, Offset: p.Time.Sub(first)}
	}
	return tl, nil
}
