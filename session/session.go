// Package session launches and tears down one browser session per test. It
// registers the harness command-line options, prepares the output
// directories and report environment, captures a screenshot when the test
// fails, and guarantees the browser is closed whatever the outcome.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"ae_automation/config"
	"ae_automation/pages"
	"ae_automation/report"
)

// Output directories, created idempotently at session start.
const (
	ScreenshotDir = "screenshots"
	ReportDir     = "test-reports"
	ResultsDir    = "allure-results"
)

var storageStatePath = filepath.Join(ReportDir, "storage-state.json")

// Session owns one live browser instance for the duration of one test.
type Session struct {
	PW      *playwright.Playwright
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	Config   *config.Config
	Options  Options
	Reporter *report.Reporter
	Logger   *logrus.Logger
}

// New launches a session using the command-line options. Teardown and the
// failure screenshot hook are registered on t; the session is closed at test
// end regardless of outcome.
func New(t *testing.T, cfg *config.Config) *Session {
	t.Helper()
	return NewWithOptions(t, cfg, FlagOptions())
}

// NewWithOptions launches a session with explicit options.
func NewWithOptions(t *testing.T, cfg *config.Config, opts Options) *Session {
	t.Helper()

	logger := newLogger()

	// Configuration problems fail the test before anything is launched.
	if err := validateBrowser(opts.Browser); err != nil {
		t.Fatalf("Browser configuration error: %v", err)
	}
	width, height, err := parseWindowSize(opts.WindowSize)
	if err != nil {
		t.Fatalf("Window size configuration error: %v", err)
	}
	headless := resolveHeadless(opts.Headless, os.Getenv("CI"))

	ensureDirectories(logger)
	if err := writeEnvironmentProperties(cfg, opts.Browser, headless); err != nil {
		logger.Warnf("Failed to write environment.properties: %v", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("Failed to start playwright: %v", err)
	}

	browser, err := launchBrowser(pw, opts.Browser, headless, width, height)
	if err != nil {
		pw.Stop()
		t.Fatalf("Failed to launch browser: %v", err)
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: width, Height: height},
	}
	if opts.ReuseState {
		if _, statErr := os.Stat(storageStatePath); statErr == nil {
			contextOptions.StorageStatePath = playwright.String(storageStatePath)
		}
	}

	context, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		pw.Stop()
		t.Fatalf("Failed to create browser context: %v", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		t.Fatalf("Failed to create page: %v", err)
	}
	page.SetDefaultTimeout(float64(pages.DefaultTimeout.Milliseconds()))

	reporter := report.NewReporter(ResultsDir, t.Name(), logger)
	reporter.Attach("Browser Info", report.MimeText, []byte(fmt.Sprintf(
		"Browser: %s\nHeadless: %t\nWindow Size: %s", opts.Browser, headless, opts.WindowSize)))

	s := &Session{
		PW:       pw,
		Browser:  browser,
		Context:  context,
		Page:     page,
		Config:   cfg,
		Options:  opts,
		Reporter: reporter,
		Logger:   logger,
	}

	// Cleanups run LIFO: failure screenshot first, then teardown, then the
	// report result. A broken screenshot can never mask the test failure.
	t.Cleanup(func() {
		status := report.StatusPassed
		if t.Failed() {
			status = report.StatusFailed
		} else if t.Skipped() {
			status = report.StatusSkipped
		}
		reporter.Finish(status, "")
	})
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			logger.Warnf("Failed to close browser session: %v", err)
		}
	})
	t.Cleanup(func() {
		if t.Failed() {
			s.CaptureFailureScreenshot(t.Name())
		}
	})

	logger.Infof("Browser session started: %s (headless=%t, %dx%d)", opts.Browser, headless, width, height)
	return s
}

// BasePage returns a page object bound to this session's page and reporter.
func (s *Session) BasePage() *pages.BasePage {
	return pages.NewBasePage(s.Page, s.Reporter, s.Logger)
}

// CaptureFailureScreenshot writes one FAILED_<test>_<timestamp> screenshot
// and attaches it to the report. All errors are logged and swallowed.
func (s *Session) CaptureFailureScreenshot(testName string) {
	name := fmt.Sprintf("FAILED_%s_%s", sanitizeTestName(testName), time.Now().Format("20060102_150405"))
	path := filepath.Join(ScreenshotDir, name+".png")

	data, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	if err != nil {
		s.Logger.Warnf("Failed to capture failure screenshot: %v", err)
		return
	}
	s.Reporter.Attach("Failure Screenshot: "+testName, report.MimePNG, data)
}

// Close tears the session down. "target closed" errors are tolerated since
// the browser may already be gone.
func (s *Session) Close() error {
	if s.Options.ReuseState && s.Context != nil {
		if _, err := s.Context.StorageState(storageStatePath); err != nil && !isClosedError(err) {
			s.Logger.Warnf("Failed to save storage state: %v", err)
		}
	}

	var closeErr error
	if s.Context != nil {
		if err := s.Context.Close(); err != nil && !isClosedError(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		s.Context = nil
	}
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil && !isClosedError(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to close browser: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		s.Browser = nil
	}
	if s.PW != nil {
		if err := s.PW.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		s.PW = nil
	}
	return closeErr
}

// InstallBrowsers downloads the Playwright driver and the browser binaries
// for the given family.
func InstallBrowsers(browser string) error {
	if err := validateBrowser(browser); err != nil {
		return err
	}
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{installName(browser)},
	})
}

// installName maps a browser family to its Playwright download name. Edge
// launches through the msedge channel, which the plain chromium download
// does not provide.
func installName(browser string) string {
	switch browser {
	case BrowserFirefox:
		return "firefox"
	case BrowserEdge:
		return "msedge"
	default:
		return "chromium"
	}
}

// EnsureDirectories creates the harness output directories. Safe to call
// repeatedly.
func EnsureDirectories() error {
	for _, dir := range []string{ScreenshotDir, ReportDir, ResultsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func ensureDirectories(logger *logrus.Logger) {
	if err := EnsureDirectories(); err != nil {
		logger.Warnf("Failed to prepare output directories: %v", err)
	}
}

func launchBrowser(pw *playwright.Playwright, browser string, headless bool, width, height int) (playwright.Browser, error) {
	switch browser {
	case BrowserChrome:
		return pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(headless),
			Args:     chromiumArgs(width, height),
		})
	case BrowserFirefox:
		return pw.Firefox.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(headless),
			Args: []string{
				fmt.Sprintf("--width=%d", width),
				fmt.Sprintf("--height=%d", height),
			},
		})
	case BrowserEdge:
		return pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(headless),
			Channel:  playwright.String("msedge"),
			Args:     chromiumArgs(width, height),
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBrowser, browser)
	}
}

func chromiumArgs(width, height int) []string {
	return []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--disable-extensions",
		fmt.Sprintf("--window-size=%d,%d", width, height),
	}
}

func writeEnvironmentProperties(cfg *config.Config, browser string, headless bool) error {
	return report.WriteEnvironment(ResultsDir, []report.EnvironmentProperty{
		{Key: "Base.URL", Value: cfg.BaseURL},
		{Key: "Browser", Value: browser},
		{Key: "Headless", Value: strconv.FormatBool(headless)},
		{Key: "Go.Version", Value: runtime.Version()},
		{Key: "Platform", Value: runtime.GOOS},
	})
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

func sanitizeTestName(name string) string {
	r := strings.NewReplacer("/", "_", "[", "_", "]", "_", " ", "_")
	return r.Replace(name)
}

// isClosedError reports whether err is the driver saying the target is
// already gone, as opposed to a genuine teardown failure.
func isClosedError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "browser has been closed") ||
		strings.Contains(msg, "context has been closed")
}
