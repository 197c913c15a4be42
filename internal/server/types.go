package server

import (
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	decoder       *bitmap.Decoder
	logger        *slog.Logger
	corsOrigin    string
	maxUploadMB   int64
	encodeFormat  bitmap.CompressFormat
	encodeQuality int
	version       string
}

// Config holds server configuration.
type Config struct {
	Host          string
	Port          int
	CORSOrigin    string
	MaxUploadMB   int64
	MaxPixels     int64
	TimeoutSec    int
	EncodeFormat  bitmap.CompressFormat
	EncodeQuality int
	Version       string
	Logger        *slog.Logger
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// FormatsResponse is returned by GET /formats.
type FormatsResponse struct {
	Decode []string `json:"decode"`
	Encode []string `json:"encode"`
}

// BitmapInfo describes a decoded bitmap.
type BitmapInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Config string `json:"config"`
}

// DecodeResponse is the JSON body of POST /decode.
type DecodeResponse struct {
	Success   bool        `json:"success"`
	Result    *BitmapInfo `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
}

// NewServer creates a new decode server instance.
func NewServer(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 50
	}
	return &Server{
		decoder: bitmap.NewDecoder(
			bitmap.WithLogger(logger),
			bitmap.WithMaxBytes(maxUpload*1024*1024),
			bitmap.WithMaxPixels(config.MaxPixels),
		),
		logger:        logger,
		corsOrigin:    config.CORSOrigin,
		maxUploadMB:   maxUpload,
		encodeFormat:  config.EncodeFormat,
		encodeQuality: config.EncodeQuality,
		version:       config.Version,
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/formats", s.corsMiddleware(s.formatsHandler))
	mux.HandleFunc("/decode", s.corsMiddleware(s.decodeHandler))
	mux.HandleFunc("/convert", s.corsMiddleware(s.convertHandler))
	mux.HandleFunc("/ws/decode", s.decodeWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

func infoFor(b *bitmap.Bitmap, format string) *BitmapInfo {
	return &BitmapInfo{
		Width:  b.Width(),
		Height: b.Height(),
		Format: format,
		Config: b.Config().String(),
	}
}
