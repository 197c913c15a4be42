package support

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/gobitmap/internal/testutil"
	"github.com/cucumber/godog"
)

func lineGPX(name string, points int) []byte {
	return testutil.GPX(name, testutil.LineTrack(points, 0, 0, 0.01, time.Minute))
}

// aGPXTrack writes a track heading east along the equator.
func (testCtx *TestContext) aGPXTrack(name string, points int) error {
	path := testCtx.TempPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return testCtx.writeFixture(name, lineGPX(filepath.Base(name), points))
}

// aZipArchiveOfTracks writes count tracks named track-N.gpx into a zip.
func (testCtx *TestContext) aZipArchiveOfTracks(name string, count, points int) error {
	files := make(map[string][]byte, count)
	for i := 1; i <= count; i++ {
		entry := fmt.Sprintf("track-%d.gpx", i)
		files[entry] = lineGPX(entry, points)
	}
	data, err := testutil.ZipBytes(files)
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, data)
}

func (testCtx *TestContext) theDirectoryShouldHoldFrames(dir string, count int) error {
	matches, err := filepath.Glob(filepath.Join(testCtx.TempPath(dir), "map_*.png"))
	if err != nil {
		return err
	}
	if len(matches) != count {
		return fmt.Errorf("expected %d frames in %s, found %d", count, dir, len(matches))
	}
	return nil
}

// RegisterTrackSteps registers GPX fixture and frame steps.
func (testCtx *TestContext) RegisterTrackSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a GPX track "([^"]*)" with (\d+) points one minute apart$`, testCtx.aGPXTrack)
	sc.Step(`^a zip archive "([^"]*)" of (\d+) GPX tracks with (\d+) points each$`, testCtx.aZipArchiveOfTracks)
	sc.Step(`^the directory "([^"]*)" should hold (\d+) frames$`, testCtx.theDirectoryShouldHoldFrames)
}
