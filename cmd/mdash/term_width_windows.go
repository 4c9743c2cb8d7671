//go:build windows

package main

import (
	"os"
	"strconv"

	"golang.org/x/sys/windows"
)

func terminalWidth(f *os.File) (int, bool) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(windows.Handle(f.Fd()), &info); err != nil {
		return 0, false
	}
	if w := int(info.Window.Right-info.Window.Left) + 1; w > 0 {
		return w, true
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
