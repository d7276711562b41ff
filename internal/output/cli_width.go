package output

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

const defaultOutputWidth = 100

func ConstrainOutputWidth(text string, w io.Writer) string {
	return ConstrainWidth(text, detectOutputWidth(w))
}

func ConstrainWidth(text string, width int) string {
	if text == "" || width <= 0 {
		return text
	}

	parts := strings.SplitAfter(text, "\n")
	for i, part := range parts {
		line := part
		newline := ""
		if strings.HasSuffix(part, "\n") {
			line = strings.TrimSuffix(part, "\n")
			newline = "\n"
		}
		if line == "" {
			parts[i] = part
			continue
		}
		if ansi.StringWidth(line) > width {
			line = ansi.Truncate(line, width, "…")
		}
		parts[i] = line + newline
	}

	return strings.Join(parts, "")
}

// detectOutputWidth returns the terminal width of w, or 0 when w is not a terminal.
func detectOutputWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}

// TerminalWidth returns the width of stdout, falling back to a fixed width.
func TerminalWidth() int {
	if width := detectOutputWidth(os.Stdout); width > 0 {
		return width
	}
	return defaultOutputWidth
}
