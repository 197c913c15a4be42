package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TrackStart is the timestamp of the first point produced by LineTrack.
var TrackStart = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

// GPXPoint is a track point for GPX.
type GPXPoint struct {
	Lat, Lon float64
	Time     time.Time
}

// LineTrack returns n points heading east along latitude lat from lon,
// dLon degrees and step apart.
func LineTrack(n int, lat, lon, dLon float64, step time.Duration) []GPXPoint {
	pts := make([]GPXPoint, n)
	for i := range pts {
		pts[i] = GPXPoint{
			Lat:  lat,
			Lon:  lon + float64(i)*dLon,
			Time: TrackStart.Add(time.Duration(i) * step),
		}
	}
	return pts
}

// GPX renders a GPX 1.1 document with one track holding one segment.
func GPX(name string, pts []GPXPoint) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<gpx version="1.1" creator="gobitmap tests" xmlns="http://www.topografix.com/GPX/1/1">` + "\n")
	b.WriteString("  <trk>\n")
	if name != "" {
		fmt.Fprintf(&b, "    <name>%s</name>\n", name)
	}
	b.WriteString("    <trkseg>\n")
	for _, p := range pts {
		fmt.Fprintf(&b, `      <trkpt lat="%.6f" lon="%.6f"><ele>100</ele><time>%s</time></trkpt>`+"\n",
			p.Lat, p.Lon, p.Time.UTC().Format(time.RFC3339))
	}
	b.WriteString("    </trkseg>\n  </trk>\n</gpx>\n")
	return []byte(b.String())
}

// ZipBytes returns a zip archive holding files.
func ZipBytes(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteZip writes files into a new zip archive at path.
func WriteZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	data, err := ZipBytes(files)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// WriteFiles writes files into dir.
func WriteFiles(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
}
