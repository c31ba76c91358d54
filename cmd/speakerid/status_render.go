package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func renderStatusCell(kind statusKind, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusError]
	}
	if !colorize {
		return style.label
	}
	return style.color + style.label + ansiReset
}

// shouldColorize reports whether out is a terminal and NO_COLOR is unset.
func shouldColorize(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
