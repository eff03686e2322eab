package browser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/levelcheck/pkg/logging"
)

// PlaywrightSession is a Session backed by playwright-go.
type PlaywrightSession struct {
	// Playwright is the running driver process
	Playwright *playwright.Playwright

	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated session)
	Context playwright.BrowserContext

	// Page is the page under test
	Page playwright.Page

	assertions playwright.PlaywrightAssertions
	closeOnce  sync.Once
	closeErr   error
}

// LaunchPlaywright starts the playwright driver, launches chromium and opens
// a single page.
func LaunchPlaywright(opts Options) (*PlaywrightSession, error) {
	opts = opts.withDefaults()

	// Keep driver output off stdout; stdout carries the run diagnostics
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  opts.Logger.Level() >= logging.LevelDebug,
		Stdout:   io.Discard,
		Stderr:   os.Stderr,
	}

	if opts.Install {
		opts.Logger.Debugf("installing playwright driver and chromium")
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(milliseconds(opts.ActionTimeout))
	opts.Logger.Debugf("chromium launched (headless=%v, viewport=%dx%d)",
		opts.Headless, opts.Viewport.Width, opts.Viewport.Height)

	return &PlaywrightSession{
		Playwright: pw,
		Browser:    browser,
		Context:    context,
		Page:       page,
		assertions: playwright.NewPlaywrightAssertions(milliseconds(opts.AssertTimeout)),
	}, nil
}

// OnConsole registers a console message observer on the page.
func (s *PlaywrightSession) OnConsole(handler func(text string)) {
	s.Page.OnConsole(func(msg playwright.ConsoleMessage) {
		handler(msg.Text())
	})
}

// Navigate navigates the page to url and waits for the load event.
func (s *PlaywrightSession) Navigate(url string) error {
	if _, err := s.Page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitForSelector waits for an element matching selector to be visible.
func (s *PlaywrightSession) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := s.Page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(milliseconds(timeout)),
	})
	return classify("wait for "+selector, err)
}

// ClickRole clicks the element located by ARIA role and accessible name.
func (s *PlaywrightSession) ClickRole(role, name string) error {
	locator := s.Page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{
		Name: name,
	})
	return classify(fmt.Sprintf("click %s %q", role, name), locator.Click())
}

// ExpectVisible asserts that selector is visible.
func (s *PlaywrightSession) ExpectVisible(selector string) error {
	err := s.assertions.Locator(s.Page.Locator(selector)).ToBeVisible()
	return classifyAssertion("expect "+selector+" visible", err)
}

// ScreenshotElement captures the element's bounds to path.
func (s *PlaywrightSession) ScreenshotElement(selector, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	_, err := s.Page.Locator(selector).Screenshot(playwright.LocatorScreenshotOptions{
		Path: playwright.String(path),
	})
	return classify("screenshot "+selector, err)
}

// Close closes the page, context, browser and stops the driver.
func (s *PlaywrightSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.Page.Close()    // Ignore errors, continue cleanup
		_ = s.Context.Close() // Ignore errors, continue cleanup
		if err := s.Browser.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		if err := s.Playwright.Stop(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	})
	return s.closeErr
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	return nil
}
