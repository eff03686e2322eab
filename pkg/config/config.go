package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default verification target. With no configuration file these reproduce the
// level-selection check exactly.
const (
	DefaultURL                = "http://localhost:8000/index.html"
	DefaultReadySelector      = ".level-btn"
	DefaultReadyTimeout       = 10 * time.Second
	DefaultButtonRole         = "button"
	DefaultButtonName         = "Level 1"
	DefaultVisibleSelector    = "#game-ui"
	DefaultScreenshotSelector = "#course"
	DefaultScreenshotPath     = "jules-scratch/verification/verification.png"
)

// Config represents the configuration for a verification run
type Config struct {
	// What to check
	Target TargetConfig `yaml:"target" json:"target"`

	// How to drive the browser
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Run report artifacts
	Report ReportConfig `yaml:"report" json:"report"`
}

// TargetConfig describes the page under test and the interaction sequence.
type TargetConfig struct {
	URL                string        `yaml:"url" json:"url"`
	ReadySelector      string        `yaml:"ready_selector" json:"ready_selector"`
	ReadyTimeout       time.Duration `yaml:"ready_timeout" json:"ready_timeout"`
	ButtonRole         string        `yaml:"button_role" json:"button_role"`
	ButtonName         string        `yaml:"button_name" json:"button_name"`
	VisibleSelector    string        `yaml:"visible_selector" json:"visible_selector"`
	ScreenshotSelector string        `yaml:"screenshot_selector" json:"screenshot_selector"`
	ScreenshotPath     string        `yaml:"screenshot_path" json:"screenshot_path"`
}

// BrowserConfig selects and tunes the browser backend.
type BrowserConfig struct {
	Driver   string         `yaml:"driver" json:"driver"` // playwright or chromedp
	Headless bool           `yaml:"headless" json:"headless"`
	Install  bool           `yaml:"install" json:"install"` // install the playwright driver before launching
	Viewport ViewportConfig `yaml:"viewport" json:"viewport"`

	// Zero keeps the driver defaults (30s actions, 5s assertions)
	ActionTimeout time.Duration `yaml:"action_timeout" json:"action_timeout"`
	AssertTimeout time.Duration `yaml:"assert_timeout" json:"assert_timeout"`
}

// ViewportConfig is the page viewport size in CSS pixels.
type ViewportConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ReportConfig defines run report generation
type ReportConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			URL:                DefaultURL,
			ReadySelector:      DefaultReadySelector,
			ReadyTimeout:       DefaultReadyTimeout,
			ButtonRole:         DefaultButtonRole,
			ButtonName:         DefaultButtonName,
			VisibleSelector:    DefaultVisibleSelector,
			ScreenshotSelector: DefaultScreenshotSelector,
			ScreenshotPath:     DefaultScreenshotPath,
		},
		Browser: BrowserConfig{
			Driver:   "playwright",
			Headless: true,
			Viewport: ViewportConfig{
				Width:  1280,
				Height: 720,
			},
		},
		Logging: LoggingConfig{
			Verbosity: "quiet",
		},
		Report: ReportConfig{
			Enabled:   false,
			OutputDir: "jules-scratch/verification/report",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	t := c.Target
	required := []struct {
		name  string
		value string
	}{
		{"target.url", t.URL},
		{"target.ready_selector", t.ReadySelector},
		{"target.button_role", t.ButtonRole},
		{"target.button_name", t.ButtonName},
		{"target.visible_selector", t.VisibleSelector},
		{"target.screenshot_selector", t.ScreenshotSelector},
		{"target.screenshot_path", t.ScreenshotPath},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if t.ReadyTimeout <= 0 {
		return fmt.Errorf("target.ready_timeout must be positive")
	}

	switch c.Browser.Driver {
	case "playwright", "chromedp":
	default:
		return fmt.Errorf("invalid browser driver: %s (must be 'playwright' or 'chromedp')", c.Browser.Driver)
	}

	if c.Browser.Viewport.Width < 0 || c.Browser.Viewport.Height < 0 {
		return fmt.Errorf("browser viewport cannot be negative")
	}
	if c.Browser.ActionTimeout < 0 || c.Browser.AssertTimeout < 0 {
		return fmt.Errorf("browser timeouts cannot be negative")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "quiet"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	if c.Report.Enabled && c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required when reports are enabled")
	}

	return nil
}

// Load reads a YAML configuration file over the defaults and validates the
// result. Keys the file omits keep their default values; unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
