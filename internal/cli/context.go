package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/logging"
	"github.com/safechecks/safechecks/pkg/metrics"
	"github.com/safechecks/safechecks/pkg/progress"
	"github.com/safechecks/safechecks/pkg/safechecks"
)

// requireClient opens the workspace containing the current directory, or
// exits with an init hint.
func requireClient(extra ...safechecks.Option) *safechecks.Client {
	cwd, err := os.Getwd()
	if err != nil {
		fmtErr("cannot get current directory: %v", err)
		os.Exit(1)
	}
	opts := []safechecks.Option{
		safechecks.WithProgress(progress.NewTerminal(!jsonOutput).Callback()),
	}
	if metrics.Enabled() {
		opts = append(opts, safechecks.WithMetrics(metrics.Default()))
	}
	c, err := safechecks.Open(cwd, append(opts, extra...)...)
	if err != nil {
		if errors.Is(err, errclass.ErrWorkspaceMissing) {
			fmt.Fprintln(os.Stderr, formatNotInWorkspaceError())
		} else {
			fmtErr("%v", err)
		}
		os.Exit(1)
	}
	configureLogging(c)
	return c
}

func configureLogging(c *safechecks.Client) {
	cfg := c.Config().Logging
	l := logging.Global()
	l.SetLevel(logging.ParseLevel(cfg.Level))
	l.SetFormat(logging.Format(cfg.Format))
}

// exitOn reports err and exits. The client is closed first so queued
// pushes are not lost.
func exitOn(c *safechecks.Client, err error, what string) {
	if err == nil {
		return
	}
	if c != nil {
		c.Close()
	}
	fmtErr("%s: %v", what, err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(os.Stderr, color.Dim("  "+hint))
	}
	os.Exit(1)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, errclass.ErrNotConfigured):
		return fmt.Sprintf("Run %s to set the sync endpoint.", color.Code("safechecks connect <url>"))
	case errors.Is(err, errclass.ErrTransport):
		return "The record is kept locally and will be retried."
	}
	return ""
}

func formatNotInWorkspaceError() string {
	var sb strings.Builder
	sb.WriteString(color.Error("not a SafeChecks workspace (or any parent)"))
	sb.WriteString("\n")
	sb.WriteString(color.Dim(fmt.Sprintf("  Run %s to set up this device.", color.Code("safechecks init --dept <dept>"))))
	return sb.String()
}

func fmtErr(format string, args ...any) {
	prefix := "safechecks: "
	if color.Enabled() {
		prefix = color.Error("safechecks:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
