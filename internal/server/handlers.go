package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
)

// errUploadTooLarge is returned by readUpload; the caller answers 413.
var errUploadTooLarge = errors.New("file too large")

const (
	// multipartOverhead is the slack allowed for boundaries and part headers.
	multipartOverhead = 64 * 1024
	// maxMultipartMemory is how much of a form is held in memory; the rest
	// spills to temporary files.
	maxMultipartMemory = 32 << 20
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// formatsHandler lists the encodings the server reads and writes.
func (s *Server) formatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, FormatsResponse{
		Decode: bitmap.SupportedFormats,
		Encode: []string{bitmap.CompressPNG.String(), bitmap.CompressJPEG.String()},
	})
}

// decodeHandler decodes an uploaded image and reports its dimensions.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, ok := s.readUpload(w, r)
	if !ok {
		decodeRequestsTotal.WithLabelValues("http", "error").Inc()
		return
	}

	res := s.decode("http", data)
	b, ok := res.Bitmap()
	if !ok {
		s.writeDecodeError(w, res.Err())
		return
	}

	s.writeJSON(w, http.StatusOK, DecodeResponse{
		Success: true,
		Result:  infoFor(b, res.Format()),
	})
}

// convertHandler decodes an uploaded image and re-encodes it.
// Query parameters: to=png|jpeg, quality=1..100.
func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := s.encodeFormat
	if to := r.URL.Query().Get("to"); to != "" {
		f, err := bitmap.ParseCompressFormat(to)
		if err != nil {
			s.writeErrorResponse(w, err.Error(), "", http.StatusBadRequest)
			return
		}
		format = f
	}

	quality := s.encodeQuality
	if q := r.URL.Query().Get("quality"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 || v > 100 {
			s.writeErrorResponse(w, "quality must be an integer between 1 and 100", "", http.StatusBadRequest)
			return
		}
		quality = v
	}

	data, ok := s.readUpload(w, r)
	if !ok {
		decodeRequestsTotal.WithLabelValues("convert", "error").Inc()
		return
	}

	res := s.decode("convert", data)
	b, ok := res.Bitmap()
	if !ok {
		s.writeDecodeError(w, res.Err())
		return
	}

	var buf bytes.Buffer
	written, err := b.Compress(format, quality, &buf)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Encoding failed: %v", err), "", http.StatusInternalServerError)
		return
	}
	if !written {
		s.writeErrorResponse(w, fmt.Sprintf("Cannot encode to %s", format), "", http.StatusUnsupportedMediaType)
		return
	}

	w.Header().Set("Content-Type", "image/"+format.String())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("Failed to write converted image", "error", err)
	}
}

// decode runs the decoder and records metrics for source.
func (s *Server) decode(source string, data []byte) bitmap.DecodeResult {
	uploadSizeBytes.Observe(float64(len(data)))

	start := time.Now()
	res := s.decoder.DecodeStream(bytes.NewReader(data))
	duration := time.Since(start)

	b, ok := res.Bitmap()
	if !ok {
		decodeRequestsTotal.WithLabelValues(source, "error").Inc()
		decodeFailuresTotal.WithLabelValues(errorKind(res.Err())).Inc()
		return res
	}

	decodeRequestsTotal.WithLabelValues(source, "success").Inc()
	decodeDuration.WithLabelValues(res.Format()).Observe(duration.Seconds())
	decodedPixels.Observe(float64(b.Width() * b.Height()))
	return res
}

// readUpload returns the image bytes from a multipart "image" field or the
// raw request body. On failure the response has already been written.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := s.maxUploadMB * 1024 * 1024
	// The body may carry multipart framing on top of a file of up to limit bytes.
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	data, err := s.uploadBytes(r, limit)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, errUploadTooLarge) {
			s.writeErrorResponse(w, "File too large", "", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		s.writeErrorResponse(w, err.Error(), "", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func (s *Server) uploadBytes(r *http.Request, limit int64) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > limit {
			return nil, errUploadTooLarge
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(min(limit, maxMultipartMemory)); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, errors.New("failed to parse form data")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, errors.New("no image file provided")
	}
	defer func() { _ = file.Close() }()

	if header.Size > limit {
		return nil, errUploadTooLarge
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read image data")
	}
	return data, nil
}

func errorKind(err error) string {
	var derr *bitmap.DecodeError
	if errors.As(err, &derr) {
		return derr.Kind.String()
	}
	return "unknown"
}

// writeDecodeError answers an absent decode result.
func (s *Server) writeDecodeError(w http.ResponseWriter, err error) {
	s.writeErrorResponse(w, "Invalid image data", errorKind(err), http.StatusBadRequest)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message, kind string, statusCode int) {
	s.writeJSON(w, statusCode, DecodeResponse{
		Success:   false,
		Error:     message,
		ErrorKind: kind,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone already, all we can do is log
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}
