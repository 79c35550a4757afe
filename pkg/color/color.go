// Package color provides terminal color output for the SafeChecks CLI.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	fc "github.com/fatih/color"
)

var state struct {
	once    sync.Once
	enabled atomic.Bool
}

// Init initializes the color system based on environment and flags.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		disabled := noColorFlag
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			disabled = true
		}
		if os.Getenv("TERM") == "dumb" {
			disabled = true
		}
		state.enabled.Store(!disabled)
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	Init(false)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	Init(false)
	state.enabled.Store(true)
}

func paint(attrs ...fc.Attribute) func(string) string {
	c := fc.New(attrs...)
	c.EnableColor()
	return func(s string) string {
		if !Enabled() {
			return s
		}
		return c.Sprint(s)
	}
}

var (
	green  = paint(fc.FgGreen)
	red    = paint(fc.FgRed)
	yellow = paint(fc.FgYellow)
	cyan   = paint(fc.FgCyan)
	bold   = paint(fc.Bold)
	faint  = paint(fc.Faint)
	code   = paint(fc.Bold, fc.Faint)
)

// Success formats a success message in green.
func Success(s string) string { return green(s) }

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string { return green(fmt.Sprintf(format, args...)) }

// Error formats an error message in red.
func Error(s string) string { return red(s) }

// Errorf formats an error message with printf-style arguments.
func Errorf(format string, args ...any) string { return red(fmt.Sprintf(format, args...)) }

// Warning formats a warning message in yellow.
func Warning(s string) string { return yellow(s) }

// Warningf formats a warning message with printf-style arguments.
func Warningf(format string, args ...any) string { return yellow(fmt.Sprintf(format, args...)) }

// Info formats an informational message in cyan.
func Info(s string) string { return cyan(s) }

// Infof formats an informational message with printf-style arguments.
func Infof(format string, args ...any) string { return cyan(fmt.Sprintf(format, args...)) }

// Header formats a header in bold.
func Header(s string) string { return bold(s) }

// Dim formats dimmed text (for secondary information).
func Dim(s string) string { return faint(s) }

// Code formats command strings (bold + dim).
func Code(s string) string { return code(s) }

// Status colors a check outcome: OK and PASS green, WARNING yellow, FAIL red.
func Status(s string) string {
	switch s {
	case "OK", "PASS":
		return green(s)
	case "WARNING":
		return yellow(s)
	case "FAIL":
		return red(s)
	}
	return s
}
