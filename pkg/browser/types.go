package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/levelcheck/pkg/logging"
)

// Session is a launched browser with a single page. Every operation blocks
// until the browser answers or its bound elapses.
type Session interface {
	// OnConsole registers a handler that receives the text of every console
	// message the page emits, in arrival order, for the lifetime of the page.
	OnConsole(handler func(text string))

	// Navigate loads url in the page.
	Navigate(url string) error

	// WaitForSelector blocks until an element matching selector is visible
	// or timeout elapses.
	WaitForSelector(selector string, timeout time.Duration) error

	// ClickRole clicks the element with the given ARIA role and accessible name.
	ClickRole(role, name string) error

	// ExpectVisible asserts that selector becomes visible, polling up to the
	// assertion timeout.
	ExpectVisible(selector string) error

	// ScreenshotElement writes a PNG of the element's rendered bounds to path,
	// overwriting any existing file.
	ScreenshotElement(selector, path string) error

	// Close releases the page, context, browser and driver. Safe to call
	// multiple times.
	Close() error
}

// Driver names accepted by Launch.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

// Options configures a new browser session.
type Options struct {
	// Driver selects the automation backend (playwright or chromedp)
	Driver string

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Install downloads the playwright driver and chromium before launching
	Install bool

	// Viewport sets the page viewport size
	Viewport *Viewport

	// ActionTimeout bounds clicks and screenshots
	ActionTimeout time.Duration

	// AssertTimeout bounds visibility assertions
	AssertTimeout time.Duration

	// Logger receives driver chatter at debug level
	Logger *logging.Logger
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Default values for session options
const (
	DefaultActionTimeout  = 30 * time.Second
	DefaultAssertTimeout  = 5 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

func (o Options) withDefaults() Options {
	if o.Driver == "" {
		o.Driver = DriverPlaywright
	}
	if o.Viewport == nil {
		o.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = DefaultActionTimeout
	}
	if o.AssertTimeout <= 0 {
		o.AssertTimeout = DefaultAssertTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// Launch starts a browser session with the configured driver.
func Launch(ctx context.Context, opts Options) (Session, error) {
	opts = opts.withDefaults()

	switch opts.Driver {
	case DriverPlaywright:
		return LaunchPlaywright(opts)
	case DriverChromedp:
		return LaunchChrome(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported browser driver: %s", opts.Driver)
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
