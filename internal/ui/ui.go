package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

var (
	// Detect if we're in a terminal
	isTerminal   = isatty.IsTerminal(os.Stdout.Fd())
	colorEnabled = true
)

// DisableColors disables all color output
func DisableColors() {
	colorEnabled = false
	isTerminal = false
	initStyles()
}

// IsTerminal checks if stdout is a terminal
func IsTerminal() bool {
	return isTerminal && colorEnabled
}

// Section prints a section header
func Section(w io.Writer, title string) {
	fmt.Fprintln(w)
	if IsTerminal() {
		fmt.Fprintln(w, "━━━ "+strings.ToUpper(title)+" ━━━")
	} else {
		fmt.Fprintln(w, strings.ToUpper(title))
		fmt.Fprintln(w, strings.Repeat("=", len(title)+6))
	}
}

// FormatCount formats a count with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatTime formats a timestamp relative to now ("3 minutes ago")
func FormatTime(t time.Time) string {
	return humanize.Time(t)
}

// FormatDuration formats duration to human-readable format
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}
