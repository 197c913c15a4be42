package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobitmap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gobitmap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Decode metrics
	decodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobitmap_decode_requests_total",
			Help: "Total number of decode requests",
		},
		[]string{"source", "status"}, // source: http, convert, websocket
	)

	decodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobitmap_decode_failures_total",
			Help: "Decode failures by kind",
		},
		[]string{"kind"}, // kind: malformed, io, empty
	)

	decodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gobitmap_decode_duration_seconds",
			Help:    "Decode duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"format"},
	)

	decodedPixels = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gobitmap_decoded_pixels",
			Help:    "Pixel count of decoded bitmaps",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gobitmap_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gobitmap_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobitmap_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
