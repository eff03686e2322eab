package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Level represents the logging verbosity level
type Level int

const (
	// LevelQuiet shows only warnings and errors
	LevelQuiet Level = iota
	// LevelNormal shows run progress
	LevelNormal
	// LevelVerbose shows each verification step
	LevelVerbose
	// LevelDebug shows browser internals
	LevelDebug
)

var levelNames = map[Level]string{
	LevelQuiet:   "quiet",
	LevelNormal:  "normal",
	LevelVerbose: "verbose",
	LevelDebug:   "debug",
}

// String returns the configuration name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a verbosity name (quiet, normal, verbose, debug) to a Level.
// An empty name selects LevelQuiet.
func ParseLevel(name string) (Level, error) {
	if name == "" {
		return LevelQuiet, nil
	}
	for level, n := range levelNames {
		if strings.EqualFold(n, name) {
			return level, nil
		}
	}
	return LevelQuiet, fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", name)
}

var (
	// Global run ID for the current process
	runID     string
	runIDOnce sync.Once
)

// getRunID returns or creates the run ID for this process
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// RunID returns the ID shared by every logger in this process.
func RunID() string {
	return getRunID()
}

// sink is shared between a logger and the loggers derived from it with For,
// so entries from different components never interleave mid-line.
type sink struct {
	mu       sync.Mutex
	writer   io.Writer
	renderer *lipgloss.Renderer
}

// Logger writes leveled, component-tagged entries for a verification run.
//
// Entries go to the configured writer (stderr by default), never to the
// runner's stdout, which carries only the timeout diagnostics.
type Logger struct {
	sink      *sink
	runID     string
	component string
	level     Level
}

// New creates a logger for a component. A nil writer selects os.Stderr.
func New(component string, level Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		sink: &sink{
			writer:   w,
			renderer: lipgloss.NewRenderer(w),
		},
		runID:     getRunID(),
		component: component,
		level:     level,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New("nop", LevelQuiet, io.Discard)
}

// For returns a logger for another component sharing this logger's
// writer, level and run ID.
func (l *Logger) For(component string) *Logger {
	return &Logger{
		sink:      l.sink,
		runID:     l.runID,
		component: component,
		level:     l.level,
	}
}

// Level returns the configured verbosity.
func (l *Logger) Level() Level {
	return l.level
}

// RunID returns the run ID stamped on every entry.
func (l *Logger) RunID() string {
	return l.runID
}

func (l *Logger) tag(level string) string {
	style := l.sink.renderer.NewStyle().Bold(true)
	switch level {
	case "ERROR":
		style = style.Foreground(lipgloss.Color("9"))
	case "WARN":
		style = style.Foreground(lipgloss.Color("11"))
	case "DEBUG":
		style = style.Foreground(lipgloss.Color("8"))
	default:
		style = style.Foreground(lipgloss.Color("14"))
	}
	return "[" + style.Render(level) + "]"
}

// formatLogEntry creates an entry with timestamp, run, component, and level
func (l *Logger) formatLogEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s %s", timestamp, shortID(l.runID), l.component, l.tag(level), message)
}

func (l *Logger) write(threshold Level, level, format string, v ...interface{}) {
	if l.level < threshold {
		return
	}
	message := fmt.Sprintf(format, v...)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	fmt.Fprintln(l.sink.writer, l.formatLogEntry(level, message))
}

// Infof logs run progress
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelNormal, "INFO", format, v...)
}

// Verbosef logs per-step detail
func (l *Logger) Verbosef(format string, v ...interface{}) {
	l.write(LevelVerbose, "STEP", format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelQuiet, "WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelQuiet, "ERROR", format, v...)
}

// Printf logs at debug level. It satisfies the func(string, ...interface{})
// hooks browser drivers accept for their own chatter.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Debugf(format, v...)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
