package render

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ANSI color codes
const (
	Reset     = "\033[0m"
	Bold      = "\033[1m"
	Dim       = "\033[2m"
	White     = "\033[37m"
	Cyan      = "\033[36m"
	Yellow    = "\033[33m"
	Magenta   = "\033[35m"
	Green     = "\033[32m"
	Red       = "\033[31m"
	BoldWhite = "\033[1;37m"
	DimWhite  = "\033[2;37m"
)

// ImportColor picks the color for an import source.
func ImportColor(imp string) string {
	switch {
	case strings.Contains(imp, "store"):
		return Magenta
	case strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../"):
		return Cyan
	case strings.HasPrefix(imp, "@/") || strings.HasPrefix(imp, "~/"):
		return Green
	default:
		return Yellow
	}
}

// GetTerminalWidth returns terminal width or default
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// CenterString centers a string in the given width
func CenterString(s string, width int) string {
	if len(s) >= width {
		return s
	}
	leftPad := (width - len(s)) / 2
	rightPad := width - len(s) - leftPad
	return strings.Repeat(" ", leftPad) + s + strings.Repeat(" ", rightPad)
}

// useColor reports whether w is a terminal that should get ANSI colors.
func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette hands out color codes, or empty strings when color is off.
type palette struct {
	on bool
}

func (p palette) c(code string) string {
	if !p.on {
		return ""
	}
	return code
}
