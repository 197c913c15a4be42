// Package batch decodes many inputs concurrently with a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
)

// Source is one input to decode.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource returns a Source reading the file at path.
func FileSource(path string) Source {
	return Source{
		Name: path,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path) //nolint:gosec // G304: path comes from the command line
		},
	}
}

// Item is the outcome for one Source. OpenErr is set when the source could
// not be opened, in which case Result is absent.
type Item struct {
	Name    string
	Result  bitmap.DecodeResult
	OpenErr error
}

// OK reports whether the item produced a bitmap.
func (it Item) OK() bool {
	return it.OpenErr == nil && it.Result.OK()
}

// Result holds the ordered outcome of a batch run.
type Result struct {
	Items    []Item
	Duration time.Duration
	Workers  int
}

// Stats summarises a batch run.
type Stats struct {
	Total            int           `json:"total"`
	Decoded          int           `json:"decoded"`
	Failed           int           `json:"failed"`
	Workers          int           `json:"workers"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerImage  time.Duration `json:"average_per_image_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// Stats calculates counts and throughput for r.
func (r *Result) Stats() Stats {
	s := Stats{
		Total:         len(r.Items),
		Workers:       r.Workers,
		TotalDuration: r.Duration,
	}
	for _, it := range r.Items {
		if it.OK() {
			s.Decoded++
		} else {
			s.Failed++
		}
	}
	if s.Decoded > 0 && r.Duration > 0 {
		s.AveragePerImage = r.Duration / time.Duration(s.Decoded)
		s.ThroughputPerSec = float64(s.Decoded) / r.Duration.Seconds()
	}
	return s
}

type job struct {
	index  int
	source Source
}

// Run decodes sources with up to workers goroutines (0 means
// runtime.NumCPU()). Items are returned in input order. A decode failure is
// recorded on its Item and does not stop the batch; only context
// cancellation makes Run return an error.
func Run(ctx context.Context, decoder *bitmap.Decoder, sources []Source, workers int) (*Result, error) {
	if len(sources) == 0 {
		return nil, errors.New("no inputs provided")
	}
	if decoder == nil {
		decoder = bitmap.NewDecoder()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	start := time.Now()
	items := make([]Item, len(sources))

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				// Each index is written by exactly one worker
				items[j.index] = decodeSource(decoder, j.source)
			}
		}()
	}

	var cancelled error
	for i, src := range sources {
		select {
		case jobs <- job{index: i, source: src}:
		case <-ctx.Done():
			cancelled = ctx.Err()
		}
		if cancelled != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	return &Result{
		Items:    items,
		Duration: time.Since(start),
		Workers:  workers,
	}, nil
}

func decodeSource(decoder *bitmap.Decoder, src Source) Item {
	item := Item{Name: src.Name}

	rc, err := src.Open()
	if err != nil {
		item.OpenErr = err
		return item
	}
	defer func() { _ = rc.Close() }()

	item.Result = decoder.DecodeStream(rc)
	return item
}
