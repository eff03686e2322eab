package verify

import "time"

// Status is the outcome of a run that completed without a fatal error.
type Status string

const (
	// StatusPassed means every step succeeded and the screenshot was written
	StatusPassed Status = "passed"
	// StatusTimedOut means a bounded wait expired and diagnostics were printed
	StatusTimedOut Status = "timed_out"
)

// Result describes a completed run.
type Result struct {
	RunID     string        `json:"run_id"`
	URL       string        `json:"url"`
	Status    Status        `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Steps lists the steps that completed, in order
	Steps []string `json:"steps"`

	// FailedStep and Error are set when Status is StatusTimedOut
	FailedStep string `json:"failed_step,omitempty"`
	Error      string `json:"error,omitempty"`

	// ScreenshotPath is set only when the screenshot was written
	ScreenshotPath string `json:"screenshot_path,omitempty"`

	ConsoleLogs []string `json:"console_logs"`
}

// Passed reports whether the run produced its screenshot.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}
