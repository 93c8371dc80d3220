package tableprinter

import (
	"os"
	"regexp"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/rodaine/table"
)

// ANSI escape codes for terminal coloring.
const (
	ansiReset    = "\033[0m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiRed      = "\033[31m"
	ansiDarkGray = "\033[90m"
)

// Statuses understood by Colorize. The inspect table uses the first two to
// describe how a target handles a feature. The rest describe file changes.
const (
	StatusNative   = "native"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
	StatusNone     = "-"
)

// ansiPattern matches ANSI SGR escape sequences (e.g. \033[32m).
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// VisibleWidth returns the display width of s in terminal columns, excluding
// any ANSI SGR escape sequences. Wide characters such as emoji count as two
// columns.
func VisibleWidth(s string) int {
	stripped := ansiPattern.ReplaceAllString(s, "")
	return runewidth.StringWidth(stripped)
}

// StripANSI removes ANSI SGR escape sequences from s.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// NewTable creates a new table with the given column headers, pre-configured
// with an ANSI-aware width function so that colored cell values don't break
// column alignment.
func NewTable(headers ...interface{}) table.Table {
	return table.New(headers...).WithWidthFunc(VisibleWidth)
}

// UseColor reports whether output written to f should carry ANSI colors.
// NO_COLOR disables color regardless of the terminal.
func UseColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Colorize wraps a status string with ANSI color codes when enabled is true.
// Unknown statuses are returned unchanged.
func Colorize(status string, enabled bool) string {
	if !enabled {
		return status
	}
	switch status {
	case StatusNative:
		return ansiGreen + status + ansiReset
	case StatusDegraded:
		return ansiYellow + status + ansiReset
	case StatusFailed:
		return ansiRed + status + ansiReset
	case StatusNone:
		return ansiDarkGray + status + ansiReset
	default:
		return status
	}
}
