package verify

import "sync"

// ConsoleLog is the ordered, append-only record of console text emitted by
// the page under test. Console events arrive on the driver's goroutine while
// the runner reads on its own, so access is serialized.
type ConsoleLog struct {
	mu    sync.Mutex
	lines []string
}

// NewConsoleLog creates an empty log.
func NewConsoleLog() *ConsoleLog {
	return &ConsoleLog{}
}

// Append records a message. It has the signature browser.Session.OnConsole expects.
func (l *ConsoleLog) Append(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, text)
}

// Lines returns a copy of the messages in arrival order.
func (l *ConsoleLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
