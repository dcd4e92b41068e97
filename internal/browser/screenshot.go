package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-zhipin-automation/internal/logger"
)

// ScreenshotDebugger captures full-page screenshots when the crawl hits
// something unexpected, so a blocked run can be diagnosed after the fact.
type ScreenshotDebugger struct {
	dir string
}

func NewScreenshotDebugger(dir string) *ScreenshotDebugger {
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.WithError(err).Warnf("cannot create screenshot directory %s", dir)
	}
	return &ScreenshotDebugger{dir: dir}
}

// CaptureAndLog writes a timestamped screenshot of the page and logs the
// given message with its location, so a blocked run can be diagnosed later.
func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, label, message string) error {
	if page == nil {
		return nil
	}
	name := fmt.Sprintf("%s_%s.png", label, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		logger.WithError(err).Warnf("screenshot %s failed", label)
		return err
	}
	logger.WithField("path", path).Warnf("%s", message)
	return nil
}
