package session

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Supported browser families.
const (
	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"
	BrowserEdge    = "edge"
)

const (
	DefaultBrowser    = BrowserChrome
	DefaultWindowSize = "1920,1080"
)

// ErrUnsupportedBrowser is returned for a browser value outside the
// supported families. It surfaces at session setup, before any launch.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Options selects how the browser session is launched.
type Options struct {
	// Browser is the browser family: chrome, firefox or edge.
	Browser string
	// Headless runs the browser without a visible window. Forced on when
	// the CI environment variable is set.
	Headless bool
	// WindowSize is "width,height" in pixels.
	WindowSize string
	// ReuseState persists the context storage state at teardown and
	// pre-loads it at the next launch, so logged-in sessions carry over.
	ReuseState bool
}

var (
	registerOnce   sync.Once
	flagBrowser    *string
	flagHeadless   *bool
	flagWindowSize *string
	flagReuseState *bool
)

// RegisterFlags installs the harness options on the test binary's flag set.
// Call it from TestMain before m.Run; go test parses the flags itself.
func RegisterFlags() {
	registerOnce.Do(func() {
		flagBrowser = flag.String("browser", DefaultBrowser, "Browser to run tests: chrome, firefox, edge")
		flagHeadless = flag.Bool("headless", false, "Run tests in headless mode")
		flagWindowSize = flag.String("window-size", DefaultWindowSize, "Browser window size (width,height)")
		flagReuseState = flag.Bool("reuse-state", false, "Reuse browser storage state across tests")
	})
}

// FlagOptions returns the options selected on the command line, falling back
// to defaults when RegisterFlags was never called.
func FlagOptions() Options {
	opts := Options{Browser: DefaultBrowser, WindowSize: DefaultWindowSize}
	if flagBrowser != nil {
		opts.Browser = strings.ToLower(*flagBrowser)
	}
	if flagHeadless != nil {
		opts.Headless = *flagHeadless
	}
	if flagWindowSize != nil {
		opts.WindowSize = *flagWindowSize
	}
	if flagReuseState != nil {
		opts.ReuseState = *flagReuseState
	}
	return opts
}

func validateBrowser(name string) error {
	switch name {
	case BrowserChrome, BrowserFirefox, BrowserEdge:
		return nil
	default:
		return fmt.Errorf("%w: %q (supported: chrome, firefox, edge)", ErrUnsupportedBrowser, name)
	}
}

// parseWindowSize parses "1920,1080" (also accepts "1920x1080").
func parseWindowSize(s string) (width, height int, err error) {
	sep := ","
	if !strings.Contains(s, sep) {
		sep = "x"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid window size %q, expected \"width,height\"", s)
	}
	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window width %q", parts[0])
	}
	height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window height %q", parts[1])
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid window size %q, dimensions must be positive", s)
	}
	return width, height, nil
}

// resolveHeadless forces headless mode under CI regardless of the requested
// mode.
func resolveHeadless(requested bool, ciEnv string) bool {
	return requested || ciEnv != ""
}
