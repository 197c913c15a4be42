package server

import (
	"bytes"
	"encoding/json"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/MeKo-Tech/gobitmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthHandler(t *testing.T) {
	server := newTestServer(1)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
		checkResponse  bool
	}{
		{"GET request success", http.MethodGet, http.StatusOK, true},
		{"POST request not allowed", http.MethodPost, http.StatusMethodNotAllowed, false},
		{"PUT request not allowed", http.MethodPut, http.StatusMethodNotAllowed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse {
				var response HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "healthy", response.Status)
				assert.Equal(t, "test", response.Version)
				assert.NotEmpty(t, response.Time)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_FormatsHandler(t *testing.T) {
	server := newTestServer(1)
	w := httptest.NewRecorder()
	server.formatsHandler(w, httptest.NewRequest(http.MethodGet, "/formats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response FormatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Decode, "png")
	assert.Contains(t, response.Decode, "webp")
	assert.Equal(t, []string{"png", "jpeg"}, response.Encode)
}

func TestServer_DecodeHandler(t *testing.T) {
	server := newTestServer(1)
	pngData := testutil.TwoByTwoPNG(t)

	tests := []struct {
		name           string
		req            func() *http.Request
		expectedStatus int
		expectedKind   string
		expectedFormat string
	}{
		{
			name: "multipart png",
			req: func() *http.Request {
				return multipartImageRequest(t, "/decode", pngData)
			},
			expectedStatus: http.StatusOK,
			expectedFormat: "png",
		},
		{
			name: "raw jpeg body",
			req: func() *http.Request {
				data := testutil.EncodeJPEG(t, testutil.SolidImage(2, 2, color.White))
				return httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(data))
			},
			expectedStatus: http.StatusOK,
			expectedFormat: "jpeg",
		},
		{
			name: "garbage",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(testutil.GarbageBytes))
			},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "malformed",
		},
		{
			name: "empty body",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/decode", http.NoBody)
			},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "empty",
		},
		{
			name: "truncated jpeg",
			req: func() *http.Request {
				return multipartImageRequest(t, "/decode", testutil.TruncatedJPEG(t, 64, 64))
			},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "malformed",
		},
		{
			name: "multipart without image field",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader("--x--\r\n"))
				req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
				return req
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.decodeHandler(w, tt.req())

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			var response DecodeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedStatus == http.StatusOK {
				require.True(t, response.Success)
				require.NotNil(t, response.Result)
				assert.Equal(t, 2, response.Result.Width)
				assert.Equal(t, 2, response.Result.Height)
				assert.Equal(t, tt.expectedFormat, response.Result.Format)
				assert.Equal(t, "ARGB_8888", response.Result.Config)
				return
			}
			assert.False(t, response.Success)
			assert.NotEmpty(t, response.Error)
			assert.Equal(t, tt.expectedKind, response.ErrorKind)
		})
	}
}

func TestServer_DecodeHandler_MethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(1).decodeHandler(w, httptest.NewRequest(http.MethodGet, "/decode", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_DecodeHandler_TooLarge(t *testing.T) {
	server := newTestServer(1)
	big := bytes.Repeat([]byte{0xAB}, 1024*1024+10)

	w := httptest.NewRecorder()
	server.decodeHandler(w, httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(big)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_ConvertHandler(t *testing.T) {
	server := newTestServer(1)
	pngData := testutil.TwoByTwoPNG(t)

	t.Run("default format is png", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.convertHandler(w, multipartImageRequest(t, "/convert", pngData))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

		b, ok := bitmap.DecodeStream(w.Body).Bitmap()
		require.True(t, ok)
		for i, want := range testutil.KnownPixels {
			assert.Equal(t, want, b.At(i%2, i/2))
		}
	})

	t.Run("to jpeg with quality", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.convertHandler(w, multipartImageRequest(t, "/convert?to=jpeg&quality=70", pngData))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
		res := bitmap.DecodeStream(w.Body)
		require.True(t, res.OK())
		assert.Equal(t, "jpeg", res.Format())
	})

	errorCases := []struct {
		name   string
		target string
		data   []byte
		status int
	}{
		{"webp cannot be written", "/convert?to=webp", pngData, http.StatusUnsupportedMediaType},
		{"unknown format", "/convert?to=heic", pngData, http.StatusBadRequest},
		{"bad quality", "/convert?to=jpeg&quality=0", pngData, http.StatusBadRequest},
		{"non numeric quality", "/convert?quality=high", pngData, http.StatusBadRequest},
		{"undecodable input", "/convert", testutil.GarbageBytes, http.StatusBadRequest},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.convertHandler(w, multipartImageRequest(t, tc.target, tc.data))
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestServer_SetupRoutes(t *testing.T) {
	server := newTestServer(1)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/decode", "image/png", bytes.NewReader(testutil.TwoByTwoPNG(t)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "gobitmap_decode_requests_total")
	assert.Contains(t, body.String(), "gobitmap_http_requests_total")
}

func TestServer_DecodeHandler_UploadAtLimit(t *testing.T) {
	server := newTestServer(1)
	limit := 1024 * 1024

	// PNG decoding stops at IEND, so trailing padding keeps the image valid.
	atLimit := append(testutil.TwoByTwoPNG(t), make([]byte, limit)...)[:limit]
	require.True(t, bitmap.DecodeStream(bytes.NewReader(atLimit)).OK())

	tests := []struct {
		name     string
		request  func() *http.Request
		expected int
	}{
		{"multipart file of exactly the limit", func() *http.Request {
			return multipartImageRequest(t, "/decode", atLimit)
		}, http.StatusOK},
		{"raw body of exactly the limit", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(atLimit))
		}, http.StatusOK},
		{"multipart file one byte over", func() *http.Request {
			return multipartImageRequest(t, "/decode", append(append([]byte{}, atLimit...), 0))
		}, http.StatusRequestEntityTooLarge},
		{"raw body one byte over", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(append(append([]byte{}, atLimit...), 0)))
		}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.decodeHandler(w, tt.request())
			assert.Equal(t, tt.expected, w.Code, w.Body.String())
		})
	}
}

func TestServer_DecodeHandler_PixelLimit(t *testing.T) {
	server := NewServer(Config{
		MaxUploadMB: 1,
		MaxPixels:   1 << 20,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	w := httptest.NewRecorder()
	server.decodeHandler(w, multipartImageRequest(t, "/decode", testutil.PNGHeader(40000, 40000)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp DecodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "malformed", resp.ErrorKind)
}
