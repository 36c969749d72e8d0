package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether fd refers to a terminal. The CLI uses it to
// drop ANSI colors and progress rendering when output is piped.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// GetTerminalWidth returns the current terminal width in columns, or 80
// when stdout is not a terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return width
}
