package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ChromeSession is a Session driving a local Chrome through the DevTools
// protocol with chromedp. Bounded waits are context deadlines.
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	actionTimeout time.Duration
	assertTimeout time.Duration

	mu       sync.Mutex
	handlers []func(text string)

	closeOnce sync.Once
	closeErr  error
}

// LaunchChrome starts a Chrome process and opens a tab.
func LaunchChrome(ctx context.Context, opts Options) (*ChromeSession, error) {
	opts = opts.withDefaults()

	allocCtx, allocCancel := chromedp.NewExecAllocator(
		ctx,
		append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
		)...,
	)

	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(opts.Logger.Printf),
		chromedp.WithErrorf(opts.Logger.Printf),
	)

	s := &ChromeSession{
		ctx:           browserCtx,
		cancel:        cancel,
		allocCancel:   allocCancel,
		actionTimeout: opts.ActionTimeout,
		assertTimeout: opts.AssertTimeout,
	}

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if ev, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			s.dispatch(consoleText(ev.Args))
		}
	})

	// The first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	opts.Logger.Debugf("chrome launched (headless=%v, window=%dx%d)",
		opts.Headless, opts.Viewport.Width, opts.Viewport.Height)
	return s, nil
}

func (s *ChromeSession) dispatch(text string) {
	s.mu.Lock()
	handlers := s.handlers
	s.mu.Unlock()

	for _, h := range handlers {
		h(text)
	}
}

// OnConsole registers a console message observer on the tab.
func (s *ChromeSession) OnConsole(handler func(text string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Navigate loads url and waits for the load event, bounded by the action
// timeout. Failures, including that deadline, are not classified as timeouts.
func (s *ChromeSession) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.actionTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitForSelector waits for selector to be visible.
func (s *ChromeSession) WaitForSelector(selector string, timeout time.Duration) error {
	return s.runBounded("wait for "+selector, timeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
	)
}

// ClickRole clicks the first visible element with the given role and name.
func (s *ChromeSession) ClickRole(role, name string) error {
	return s.runBounded(fmt.Sprintf("click %s %q", role, name), s.actionTimeout,
		chromedp.Click(roleXPath(role, name), chromedp.BySearch, chromedp.NodeVisible),
	)
}

// ExpectVisible waits for selector to become visible.
func (s *ChromeSession) ExpectVisible(selector string) error {
	return s.runBounded("expect "+selector+" visible", s.assertTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
	)
}

// ScreenshotElement captures the element's bounds to path.
func (s *ChromeSession) ScreenshotElement(selector, path string) error {
	var buf []byte
	err := s.runBounded("screenshot "+selector, s.actionTimeout,
		chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// Close closes the tab and the browser process.
func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}

func (s *ChromeSession) runBounded(op string, timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return classify(op, chromedp.Run(ctx, actions...))
}

// consoleText renders console arguments the way page.on("console") text
// does: string arguments unquoted, everything else by value or description,
// joined with spaces.
func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case len(arg.Value) > 0:
			var str string
			if err := json.Unmarshal([]byte(arg.Value), &str); err == nil {
				parts = append(parts, str)
			} else {
				parts = append(parts, string(arg.Value))
			}
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, arg.Type.String())
		}
	}
	return strings.Join(parts, " ")
}

const (
	xpathUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	xpathLower = "abcdefghijklmnopqrstuvwxyz"
)

// roleXPath matches elements that carry role either implicitly (element
// name) or explicitly (role attribute) and whose text or aria-label contains
// name, ignoring case, as getByRole does without exact matching.
func roleXPath(role, name string) string {
	r := xpathLiteral(role)
	n := xpathLiteral(strings.ToLower(name))
	lower := func(expr string) string {
		return fmt.Sprintf("translate(%s, '%s', '%s')", expr, xpathUpper, xpathLower)
	}
	return fmt.Sprintf("//*[(local-name()=%s or @role=%s) and (contains(%s, %s) or contains(%s, %s))]",
		r, r, lower("normalize-space(.)"), n, lower("@aria-label"), n)
}

// xpathLiteral quotes s as an XPath 1.0 string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
