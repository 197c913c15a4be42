package support

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"

	"github.com/MeKo-Tech/gobitmap/internal/bitmap"
	"github.com/MeKo-Tech/gobitmap/internal/testutil"
	"github.com/cucumber/godog"
)

type decodeReport struct {
	File      string `json:"file"`
	Success   bool   `json:"success"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	ErrorKind string `json:"error_kind"`
}

func (testCtx *TestContext) writeFixture(name string, data []byte) error {
	if err := os.WriteFile(testCtx.TempPath(name), data, 0o600); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	return nil
}

// aTwoByTwoPNGFixture writes the 2x2 known-pixel PNG.
func (testCtx *TestContext) aTwoByTwoPNGFixture(name string) error {
	data, err := testutil.Encode("png", testutil.TwoByTwoImage())
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, data)
}

// aSolidImage writes a solid grey image in format.
func (testCtx *TestContext) aSolidImage(format, name string, w, h int) error {
	data, err := testutil.Encode(format, testutil.SolidImage(w, h, color.Gray{Y: 128}))
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, data)
}

func (testCtx *TestContext) aGarbageFile(name string) error {
	return testCtx.writeFixture(name, testutil.GarbageBytes)
}

func (testCtx *TestContext) anEmptyFile(name string) error {
	return testCtx.writeFixture(name, nil)
}

func (testCtx *TestContext) aTruncatedJPEG(name string) error {
	data, err := testutil.TruncateJPEG(64, 64)
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, data)
}

func (testCtx *TestContext) reports() ([]decodeReport, error) {
	var reports []decodeReport
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &reports); err != nil {
		return nil, fmt.Errorf("failed to parse decode output: %w\nOutput: %s", err, testCtx.LastStdout)
	}
	return reports, nil
}

// reportShouldDescribe checks report index (1-based) of the JSON output.
func (testCtx *TestContext) reportShouldDescribe(index, w, h int, format string) error {
	reports, err := testCtx.reports()
	if err != nil {
		return err
	}
	if index < 1 || index > len(reports) {
		return fmt.Errorf("report %d out of range (%d reports)", index, len(reports))
	}
	r := reports[index-1]
	if !r.Success || r.Width != w || r.Height != h || r.Format != format {
		return fmt.Errorf("report %d is %+v, want %dx%d %s", index, r, w, h, format)
	}
	return nil
}

func (testCtx *TestContext) reportShouldHaveFailedWithKind(index int, kind string) error {
	reports, err := testCtx.reports()
	if err != nil {
		return err
	}
	if index < 1 || index > len(reports) {
		return fmt.Errorf("report %d out of range (%d reports)", index, len(reports))
	}
	r := reports[index-1]
	if r.Success || r.ErrorKind != kind {
		return fmt.Errorf("report %d is %+v, want failure of kind %s", index, r, kind)
	}
	return nil
}

// theFileShouldDecodeAs opens a temp file and decodes it.
func (testCtx *TestContext) theFileShouldDecodeAs(name string, w, h int, format string) error {
	f, err := os.Open(testCtx.TempPath(name))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	res := bitmap.DecodeStream(f)
	b, ok := res.Bitmap()
	if !ok {
		return fmt.Errorf("%s did not decode: %w", name, res.Err())
	}
	if b.Width() != w || b.Height() != h || res.Format() != format {
		return fmt.Errorf("%s decoded as %dx%d %s, want %dx%d %s",
			name, b.Width(), b.Height(), res.Format(), w, h, format)
	}
	return nil
}

// theFileShouldHoldTheKnownPixels compares against the 2x2 fixture.
func (testCtx *TestContext) theFileShouldHoldTheKnownPixels(name string) error {
	f, err := os.Open(testCtx.TempPath(name))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	b, ok := bitmap.DecodeStream(f).Bitmap()
	if !ok {
		return fmt.Errorf("%s did not decode", name)
	}
	for i, want := range testutil.KnownPixels {
		if got := b.At(i%2, i/2); got != want {
			return fmt.Errorf("pixel %d is %v, want %v", i, got, want)
		}
	}
	return nil
}

// RegisterImageSteps registers fixture and decode result steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a 2x2 PNG fixture "([^"]*)"$`, testCtx.aTwoByTwoPNGFixture)
	sc.Step(`^a solid (png|jpeg|gif|bmp|tiff) image "([^"]*)" of size (\d+)x(\d+)$`, testCtx.aSolidImage)
	sc.Step(`^a garbage file "([^"]*)"$`, testCtx.aGarbageFile)
	sc.Step(`^an empty file "([^"]*)"$`, testCtx.anEmptyFile)
	sc.Step(`^a truncated JPEG "([^"]*)"$`, testCtx.aTruncatedJPEG)

	sc.Step(`^report (\d+) should describe a (\d+)x(\d+) "([^"]*)" bitmap$`, testCtx.reportShouldDescribe)
	sc.Step(`^report (\d+) should have failed with kind "([^"]*)"$`, testCtx.reportShouldHaveFailedWithKind)
	sc.Step(`^the file "([^"]*)" should decode as a (\d+)x(\d+) "([^"]*)" bitmap$`, testCtx.theFileShouldDecodeAs)
	sc.Step(`^the file "([^"]*)" should hold the known pixels$`, testCtx.theFileShouldHoldTheKnownPixels)
}
