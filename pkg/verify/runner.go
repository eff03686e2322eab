package verify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/entrhq/levelcheck/pkg/browser"
	"github.com/entrhq/levelcheck/pkg/config"
	"github.com/entrhq/levelcheck/pkg/logging"
)

// Diagnostic lines printed when a bounded wait expires.
const (
	TimeoutMessage = "Timeout while waiting for elements."
	ConsoleHeader  = "Console logs:"
)

// LaunchFunc acquires a browser session for one run.
type LaunchFunc func(ctx context.Context) (browser.Session, error)

// Runner drives the level-selection check against a target page.
type Runner struct {
	target config.TargetConfig
	launch LaunchFunc
	out    io.Writer
	logger *logging.Logger
	now    func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where timeout diagnostics are printed. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithLogger sets the progress logger. Defaults to a logger that discards.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner for target that opens sessions with launch.
func NewRunner(target config.TargetConfig, launch LaunchFunc, opts ...Option) *Runner {
	r := &Runner{
		target: target,
		launch: launch,
		out:    os.Stdout,
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type step struct {
	name string
	run  func(s browser.Session) error
}

// steps is the interaction sequence after navigation. A timeout in any of
// them is recovered; every other error aborts the run.
func (r *Runner) steps() []step {
	t := r.target
	return []step{
		{
			name: "wait for " + t.ReadySelector,
			run: func(s browser.Session) error {
				return s.WaitForSelector(t.ReadySelector, t.ReadyTimeout)
			},
		},
		{
			name: fmt.Sprintf("click %s %q", t.ButtonRole, t.ButtonName),
			run: func(s browser.Session) error {
				return s.ClickRole(t.ButtonRole, t.ButtonName)
			},
		},
		{
			name: "expect " + t.VisibleSelector + " visible",
			run: func(s browser.Session) error {
				return s.ExpectVisible(t.VisibleSelector)
			},
		},
		{
			name: "screenshot " + t.ScreenshotSelector,
			run: func(s browser.Session) error {
				return s.ScreenshotElement(t.ScreenshotSelector, t.ScreenshotPath)
			},
		},
	}
}

// Run performs one verification.
//
// A bounded-wait timeout after navigation is not an error: the diagnostic
// header and every buffered console line are printed, and the result reports
// StatusTimedOut. Launch and navigation failures, and any non-timeout step
// failure, are returned as errors. The session is closed on every path.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     r.logger.RunID(),
		URL:       r.target.URL,
		StartTime: r.now(),
		Steps:     []string{},
	}

	session, err := r.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			r.logger.Warnf("failed to close browser session: %v", closeErr)
		}
	}()

	logs := NewConsoleLog()
	session.OnConsole(logs.Append)

	r.logger.Infof("navigating to %s", r.target.URL)
	if err := session.Navigate(r.target.URL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", r.target.URL, err)
	}

	for _, st := range r.steps() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted before %s: %w", st.name, err)
		}

		r.logger.Verbosef("%s", st.name)
		err := st.run(session)
		if err == nil {
			result.Steps = append(result.Steps, st.name)
			continue
		}

		if !browser.IsTimeout(err) {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}

		r.logger.Debugf("%v", err)
		lines := logs.Lines()
		r.printDiagnostics(lines)

		result.Status = StatusTimedOut
		result.FailedStep = st.name
		result.Error = err.Error()
		return r.finish(result, lines), nil
	}

	result.Status = StatusPassed
	result.ScreenshotPath = r.target.ScreenshotPath
	r.logger.Infof("screenshot written to %s", result.ScreenshotPath)
	return r.finish(result, logs.Lines()), nil
}

func (r *Runner) printDiagnostics(lines []string) {
	fmt.Fprintln(r.out, TimeoutMessage)
	fmt.Fprintln(r.out, ConsoleHeader)
	for _, line := range lines {
		fmt.Fprintln(r.out, line)
	}
}

func (r *Runner) finish(result *Result, lines []string) *Result {
	result.ConsoleLogs = lines
	result.EndTime = r.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result
}
