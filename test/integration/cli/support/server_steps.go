package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/MeKo-Tech/gobitmap/internal/server"
	"github.com/cucumber/godog"
)

// theDecodeServerIsRunning starts the real handlers on an httptest server.
func (testCtx *TestContext) theDecodeServerIsRunning() error {
	return testCtx.startServer(50)
}

// theDecodeServerIsRunningWithUploadLimit replaces any running server.
func (testCtx *TestContext) theDecodeServerIsRunningWithUploadLimit(mb int) error {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Close()
		testCtx.HTTPTestServer = nil
	}
	return testCtx.startServer(int64(mb))
}

func (testCtx *TestContext) startServer(maxUploadMB int64) error {
	if testCtx.HTTPTestServer != nil {
		return nil
	}

	srv := server.NewServer(server.Config{
		CORSOrigin:    "*",
		MaxUploadMB:   maxUploadMB,
		EncodeFormat:  bitmap.CompressPNG,
		EncodeQuality: 90,
		Version:       "test",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPTestServer = httptest.NewServer(mux)
	return nil
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = body
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) serverURL(endpoint string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("server is not running")
	}
	return testCtx.HTTPTestServer.URL + endpoint, nil
}

// iGETEndpoint issues a GET request.
func (testCtx *TestContext) iGETEndpoint(endpoint string) error {
	url, err := testCtx.serverURL(endpoint)
	if err != nil {
		return err
	}
	resp, err := http.Get(url) //nolint:gosec,noctx // G107: test server URL
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", endpoint, err)
	}
	return testCtx.recordResponse(resp)
}

// iUploadTheFileTo posts a temp file as the multipart "image" field.
func (testCtx *TestContext) iUploadTheFileTo(name, endpoint string) error {
	data, err := os.ReadFile(testCtx.TempPath(name))
	if err != nil {
		return err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	url, err := testCtx.serverURL(endpoint)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, writer.FormDataContentType(), &body) //nolint:gosec,noctx // G107: test server URL
	if err != nil {
		return fmt.Errorf("POST %s failed: %w", endpoint, err)
	}
	return testCtx.recordResponse(resp)
}

// iPostRawBytesTo posts n raw bytes as the request body.
func (testCtx *TestContext) iPostRawBytesTo(n int, endpoint string) error {
	url, err := testCtx.serverURL(endpoint)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(bytes.Repeat([]byte{0x42}, n))) //nolint:gosec,noctx // G107: test server URL
	if err != nil {
		return fmt.Errorf("POST %s failed: %w", endpoint, err)
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) theResponseStatusShouldBe(expected int) error {
	if testCtx.LastHTTPStatusCode != expected {
		return fmt.Errorf("expected status %d, got %d\nBody: %s",
			expected, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	if got := testCtx.LastHTTPHeaders[name]; got != expected {
		return fmt.Errorf("expected header %s=%q, got %q", name, expected, got)
	}
	return nil
}

// theResponseJSONFieldShouldBe walks a dotted path and compares the
// value's string form.
func (testCtx *TestContext) theResponseJSONFieldShouldBe(path, expected string) error {
	var data any
	if err := json.Unmarshal(testCtx.LastHTTPResponse, &data); err != nil {
		return fmt.Errorf("response is not valid JSON: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}

	current := data
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot navigate into non-object at '%s'", part)
		}
		current, ok = obj[part]
		if !ok {
			return fmt.Errorf("field '%s' not found in response", path)
		}
	}

	if got := fmt.Sprint(current); got != expected {
		return fmt.Errorf("field %s is %q, want %q", path, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theResponseBodyShouldDecodeAs(w, h int, format string) error {
	res := bitmap.DecodeStream(bytes.NewReader(testCtx.LastHTTPResponse))
	b, ok := res.Bitmap()
	if !ok {
		return fmt.Errorf("response body did not decode: %w", res.Err())
	}
	if b.Width() != w || b.Height() != h || res.Format() != format {
		return fmt.Errorf("response decoded as %dx%d %s, want %dx%d %s",
			b.Width(), b.Height(), res.Format(), w, h, format)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(testCtx.LastHTTPResponse), text) {
		return fmt.Errorf("response does not contain %q\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

// RegisterServerSteps registers HTTP server steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the decode server is running$`, testCtx.theDecodeServerIsRunning)
	sc.Step(`^the decode server is running with an upload limit of (\d+) MB$`, testCtx.theDecodeServerIsRunningWithUploadLimit)

	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGETEndpoint)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTheFileTo)
	sc.Step(`^I POST (\d+) raw bytes to "([^"]*)"$`, testCtx.iPostRawBytesTo)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response body should decode as a (\d+)x(\d+) "([^"]*)" bitmap$`, testCtx.theResponseBodyShouldDecodeAs)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
}
