// Package report writes run artifacts describing a verification run.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/levelcheck/pkg/verify"
)

// Writer handles writing run artifacts
type Writer struct {
	outputDir string
}

// NewWriter creates a new artifact writer
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: outputDir,
	}
}

// WriteAll writes the JSON report and the markdown summary
func (w *Writer) WriteAll(result *verify.Result) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteJSON(result); err != nil {
		return fmt.Errorf("failed to write run JSON: %w", err)
	}

	if err := w.WriteMarkdown(result); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return nil
}

// WriteJSON writes the full result as run.json
func (w *Writer) WriteJSON(result *verify.Result) error {
	path := filepath.Join(w.outputDir, "run.json")

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write run JSON: %w", writeErr)
	}

	return nil
}

// WriteMarkdown writes a human-readable summary.md
func (w *Writer) WriteMarkdown(result *verify.Result) error {
	path := filepath.Join(w.outputDir, "summary.md")

	if err := os.WriteFile(path, []byte(Markdown(result)), 0600); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}
	return nil
}

// Markdown renders the summary document for result.
func Markdown(result *verify.Result) string {
	var md strings.Builder

	md.WriteString("# Level Selection Verification\n\n")
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", result.RunID))
	md.WriteString(fmt.Sprintf("**URL:** %s\n\n", result.URL))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", result.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", result.Duration.Round(time.Millisecond)))

	md.WriteString("## Result\n\n")
	if result.Passed() {
		md.WriteString("✅ **Passed**\n\n")
		md.WriteString(fmt.Sprintf("Screenshot: `%s`\n\n", result.ScreenshotPath))
	} else {
		md.WriteString(fmt.Sprintf("❌ **Timed out** at `%s`\n\n", result.FailedStep))
		if result.Error != "" {
			md.WriteString(fmt.Sprintf("   Error: %s\n\n", result.Error))
		}
	}

	if len(result.Steps) > 0 {
		md.WriteString("## Steps\n\n")
		for _, step := range result.Steps {
			md.WriteString(fmt.Sprintf("- %s\n", step))
		}
		md.WriteString("\n")
	}

	md.WriteString("## Console\n\n")
	if len(result.ConsoleLogs) == 0 {
		md.WriteString("_No console output._\n")
	} else {
		md.WriteString("```\n")
		for _, line := range result.ConsoleLogs {
			md.WriteString(line)
			md.WriteString("\n")
		}
		md.WriteString("```\n")
	}

	return md.String()
}
