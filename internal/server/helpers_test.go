package server

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/stretchr/testify/require"
)

// newTestServer returns a server that logs nowhere.
func newTestServer(maxUploadMB int64) *Server {
	return NewServer(Config{
		CORSOrigin:    "*",
		MaxUploadMB:   maxUploadMB,
		EncodeFormat:  bitmap.CompressPNG,
		EncodeQuality: 90,
		Version:       "test",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// multipartImageRequest builds a POST with data in the "image" form field.
func multipartImageRequest(t *testing.T, target string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
