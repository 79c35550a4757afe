// Package progress reports progress of long sync operations such as
// draining the pending queue.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Callback receives progress updates.
type Callback func(op string, current, total int, message string)

// Noop discards updates.
func Noop(op string, current, total int, message string) {}

// Progress tracks one operation and forwards every step to a Callback.
type Progress struct {
	Op      string
	Total   int
	current int
	cb      Callback
}

// New creates a tracker. A nil cb is replaced by Noop.
func New(op string, total int, cb Callback) *Progress {
	if cb == nil {
		cb = Noop
	}
	return &Progress{Op: op, Total: total, cb: cb}
}

// Increment advances by one.
func (p *Progress) Increment(message string) {
	p.current++
	p.cb(p.Op, p.current, p.Total, message)
}

// Done jumps to the total.
func (p *Progress) Done(message string) {
	p.current = p.Total
	p.cb(p.Op, p.current, p.Total, message)
}

// Current returns the number of steps taken.
func (p *Progress) Current() int { return p.current }

// Terminal draws a single-line bar. The total comes from each update, so
// one Terminal can follow several operations in turn.
type Terminal struct {
	mu       sync.Mutex
	w        io.Writer
	width    int
	lastLen  int
	disabled bool
}

// NewTerminal creates a bar on stderr.
func NewTerminal(enabled bool) *Terminal {
	return &Terminal{w: os.Stderr, width: 30, disabled: !enabled}
}

// SetWriter redirects output.
func (t *Terminal) SetWriter(w io.Writer) {
	t.mu.Lock()
	t.w = w
	t.mu.Unlock()
}

// Callback returns a Callback drawing to this terminal. The line is
// finished with a newline once current reaches total.
func (t *Terminal) Callback() Callback {
	return func(op string, current, total int, message string) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.disabled {
			return
		}
		t.render(op, current, total, message)
		if current >= total {
			fmt.Fprintln(t.w)
			t.lastLen = 0
		}
	}
}

func (t *Terminal) render(op string, current, total int, message string) {
	if total <= 0 {
		total = 1
	}
	if current > total {
		current = total
	}
	filled := t.width * current / total
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", t.width-filled)

	clear := "\r"
	if t.lastLen > 0 {
		clear = "\r" + strings.Repeat(" ", t.lastLen) + "\r"
	}
	line := fmt.Sprintf("%s [%s] %d/%d (%.0f%%)", op, bar, current, total, float64(current)/float64(total)*100)
	if message != "" {
		line += " " + message
	}
	fmt.Fprint(t.w, clear+line)
	t.lastLen = len(line)
}
