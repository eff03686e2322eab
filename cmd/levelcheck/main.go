// Package main provides levelcheck, a headless browser check of a game's
// level-selection flow that leaves a screenshot of the course as evidence.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/levelcheck/pkg/browser"
	"github.com/entrhq/levelcheck/pkg/config"
	"github.com/entrhq/levelcheck/pkg/logging"
	"github.com/entrhq/levelcheck/pkg/report"
	"github.com/entrhq/levelcheck/pkg/verify"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	ShowVersion bool
}

func main() {
	cliConfig := parseFlags(os.Args[1:])

	if cliConfig.ShowVersion {
		fmt.Printf("levelcheck v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cliConfig, os.Stdout, os.Stderr); err != nil {
		cancel()
		log.Printf("Verification failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags(args []string) *CLIConfig {
	cliConfig := &CLIConfig{}

	fs := flag.NewFlagSet("levelcheck", flag.ExitOnError)
	fs.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML)")
	fs.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "levelcheck - verify a game's level selection in a headless browser\n\n")
		fmt.Fprintf(os.Stderr, "Usage: levelcheck [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nWith no options, checks %s and writes %s.\n",
			config.DefaultURL, config.DefaultScreenshotPath)
	}

	_ = fs.Parse(args)
	return cliConfig
}

// loadConfig returns the defaults, or the defaults overlaid by a config file
func loadConfig(cliConfig *CLIConfig) (*config.Config, error) {
	if cliConfig.ConfigFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(cliConfig.ConfigFile)
}

// run executes one verification. A timeout inside the page is reported on
// stdout and is not an error.
func run(ctx context.Context, cliConfig *CLIConfig, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cliConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Verbosity)
	if err != nil {
		return err
	}
	logger := logging.New("levelcheck", level, stderr)

	opts := browserOptions(cfg, logger.For("browser"))
	launch := func(ctx context.Context) (browser.Session, error) {
		return browser.Launch(ctx, opts)
	}

	runner := verify.NewRunner(cfg.Target, launch,
		verify.WithOutput(stdout),
		verify.WithLogger(logger.For("runner")),
	)

	logger.Infof("Starting verification (driver=%s)", cfg.Browser.Driver)
	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Verification finished: %s in %s", result.Status, result.Duration)

	if cfg.Report.Enabled {
		if err := report.NewWriter(cfg.Report.OutputDir).WriteAll(result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Infof("Report written to %s", cfg.Report.OutputDir)
	}

	return nil
}

func browserOptions(cfg *config.Config, logger *logging.Logger) browser.Options {
	opts := browser.Options{
		Driver:        cfg.Browser.Driver,
		Headless:      cfg.Browser.Headless,
		Install:       cfg.Browser.Install,
		ActionTimeout: cfg.Browser.ActionTimeout,
		AssertTimeout: cfg.Browser.AssertTimeout,
		Logger:        logger,
	}
	if cfg.Browser.Viewport.Width > 0 && cfg.Browser.Viewport.Height > 0 {
		opts.Viewport = &browser.Viewport{
			Width:  cfg.Browser.Viewport.Width,
			Height: cfg.Browser.Viewport.Height,
		}
	}
	return opts
}
