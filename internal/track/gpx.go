// Package track reads GPS tracks from GPX files and lines them up on a
// shared timeline for rendering.
package track

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// GPX element names.
const (
	elemMetadata = "metadata"
	elemAuthor   = "author"
	elemName     = "name"
	elemTrk      = "trk"
	elemRte      = "rte"
	elemTrkseg   = "trkseg"
	elemTrkpt    = "trkpt"
	elemRtept    = "rtept"
	elemWpt      = "wpt"
	elemEle      = "ele"
	elemTime     = "time"

	// Garmin route extensions carry the routed shape between rtept elements.
	gpxxNamespace           = "http://www.garmin.com/xmlschemas/GpxExtensions/v3"
	gpxxRoutePointExtension = "RoutePointExtension"
	gpxxRpt                 = "rpt"
)

const microDegrees = 1e6

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05",
}

// ErrNoTrack is returned when a GPX document holds no usable points.
var ErrNoTrack = errors.New("no track points")

// Point is a single GPX track point. Coordinates are stored in
// micro-degrees, truncated toward zero. Time is zero when the point has no
// parseable <time> element.
type Point struct {
	LatE6     int32
	LonE6     int32
	Elevation *int
	Time      time.Time
}

// Lat returns the latitude in degrees.
func (p Point) Lat() float64 { return float64(p.LatE6) / microDegrees }

// Lon returns the longitude in degrees.
func (p Point) Lon() float64 { return float64(p.LonE6) / microDegrees }

// Segment is a contiguous run of points.
type Segment struct {
	Points []Point
}

// Track is a named list of segments.
type Track struct {
	Name     string
	Segments []Segment
}

// Points returns all points of all segments in document order.
func (t *Track) Points() []Point {
	var out []Point
	for _, s := range t.Segments {
		out = append(out, s.Points...)
	}
	return out
}

type kind int

const (
	kindTrack kind = iota
	kindRoute
)

type pending struct {
	track *Track
	kind  kind
	named bool
}

type parser struct {
	stack   []string
	tracks  []*pending
	gpxName string
	text    strings.Builder
	// index of the point receiving <ele> and <time>, or -1
	current int
}

// Parse reads a GPX 1.0 or 1.1 document. Tracks and routes become one
// merged Track; routes are only used when the document has no tracks.
// Empty segments are dropped.
func Parse(r io.Reader) (*Track, error) {
	p := &parser{current: -1}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse gpx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t)
			p.stack = append(p.stack, t.Name.Local)
			p.text.Reset()
		case xml.EndElement:
			if err := p.end(t); err != nil {
				return nil, err
			}
			p.text.Reset()
			if len(p.stack) > 0 {
				p.stack = p.stack[:len(p.stack)-1]
			}
		case xml.CharData:
			p.text.Write(t)
		}
	}
	return p.merge(), nil
}

func (p *parser) inside(name string) bool {
	return slices.Contains(p.stack, name)
}

func (p *parser) segment() *Segment {
	if len(p.tracks) == 0 {
		return nil
	}
	t := p.tracks[len(p.tracks)-1].track
	return &t.Segments[len(t.Segments)-1]
}

func (p *parser) start(el xml.StartElement) {
	if el.Name.Space == gpxxNamespace {
		if el.Name.Local == gpxxRpt && p.inside(gpxxRoutePointExtension) {
			if pt, ok := pointAttrs(el); ok && p.segment() != nil {
				seg := p.segment()
				seg.Points = append(seg.Points, pt)
			}
		}
		return
	}

	switch el.Name.Local {
	case elemTrk, elemRte:
		k := kindTrack
		if el.Name.Local == elemRte {
			k = kindRoute
		}
		p.tracks = append(p.tracks, &pending{track: &Track{Segments: []Segment{{}}}, kind: k})
	case elemTrkseg:
		if len(p.tracks) > 0 {
			t := p.tracks[len(p.tracks)-1].track
			t.Segments = append(t.Segments, Segment{})
		}
	case elemTrkpt, elemRtept:
		seg := p.segment()
		if seg == nil {
			return
		}
		if pt, ok := pointAttrs(el); ok {
			seg.Points = append(seg.Points, pt)
			p.current = len(seg.Points) - 1
		}
	}
}

func (p *parser) end(el xml.EndElement) error {
	text := strings.TrimSpace(p.text.String())

	switch el.Name.Local {
	case elemName:
		if text == "" {
			return nil
		}
		switch {
		case p.inside(elemMetadata) && !p.inside(elemAuthor):
			p.gpxName = text
		case p.inside(elemTrkpt) || p.inside(elemRtept):
		case p.inside(elemTrk) || p.inside(elemRte):
			if n := len(p.tracks); n > 0 && !p.tracks[n-1].named {
				p.tracks[n-1].track.Name = text
				p.tracks[n-1].named = true
			}
		}
	case elemEle:
		pt := p.currentPoint()
		if text == "" || pt == nil {
			return nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("failed to parse gpx: invalid elevation %q", text)
		}
		ele := int(f)
		pt.Elevation = &ele
	case elemTime:
		pt := p.currentPoint()
		if text == "" || pt == nil {
			return nil
		}
		if p.inside(elemTrkpt) || p.inside(elemRtept) || p.inside(elemWpt) {
			pt.Time = parseTime(text)
		}
	case elemWpt, elemTrkpt, elemRtept:
		p.current = -1
	}
	return nil
}

func (p *parser) currentPoint() *Point {
	seg := p.segment()
	if seg == nil || p.current < 0 || p.current >= len(seg.Points) {
		return nil
	}
	return &seg.Points[p.current]
}

func (p *parser) merge() *Track {
	keep := p.ofKind(kindTrack)
	if len(keep) == 0 {
		keep = p.ofKind(kindRoute)
	}

	out := &Track{}
	for _, t := range keep {
		segs := slices.DeleteFunc(t.track.Segments, func(s Segment) bool { return len(s.Points) == 0 })
		if len(segs) == 0 {
			continue
		}
		if t.named {
			out.Name = t.track.Name
		} else {
			out.Name = p.gpxName
		}
		out.Segments = append(out.Segments, segs...)
	}
	return out
}

func (p *parser) ofKind(k kind) []*pending {
	var out []*pending
	for _, t := range p.tracks {
		if t.kind == k {
			out = append(out, t)
		}
	}
	return out
}

func pointAttrs(el xml.StartElement) (Point, bool) {
	var lat, lon float64
	var haveLat, haveLon bool
	for _, a := range el.Attr {
		if a.Name.Space != "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		switch a.Name.Local {
		case "lat":
			lat, haveLat = v, true
		case "lon":
			lon, haveLon = v, true
		}
	}
	if !haveLat || !haveLon {
		return Point{}, false
	}
	return Point{LatE6: toMicro(lat), LonE6: toMicro(lon)}, true
}

func toMicro(deg float64) int32 {
	v := math.Trunc(deg * microDegrees)
	return int32(max(math.MinInt32, min(math.MaxInt32, v)))
}

// parseTime returns the zero time when s matches none of the layouts.
// Times without a zone are taken as UTC.
func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
