//go:build !windows

package main

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// terminalWidth returns the column count of f and whether f is a terminal.
// A terminal reporting zero columns falls back to $COLUMNS.
func terminalWidth(f *os.File) (int, bool) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws == nil {
		return 0, false
	}
	if ws.Col > 0 {
		return int(ws.Col), true
	}
	if cols, ok := os.LookupEnv("COLUMNS"); ok {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, true
}

func isTerminal(f *os.File) bool {
	_, ok := terminalWidth(f)
	return ok
}
