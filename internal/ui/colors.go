// Package ui styles terminal output. Styling is dropped when stdout is not a
// terminal or NO_COLOR is set.
package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Enabled turns styling on or off for every helper below.
var Enabled = detect()

func detect() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Style wraps s in the given codes when styling is enabled.
func Style(s string, codes ...string) string {
	if !Enabled || len(codes) == 0 {
		return s
	}
	var prefix string
	for _, c := range codes {
		prefix += c
	}
	return prefix + s + ColorReset
}

func Bold(s string) string    { return Style(s, ColorBold) }
func Success(s string) string { return Style(s, ColorGreen) }
func Info(s string) string    { return Style(s, ColorDim, ColorYellow) }
func Error(s string) string   { return Style(s, ColorRed) }

// Help text pieces.
func Heading(s string) string     { return Style(s, ColorBold, ColorWhite) }
func Title(s string) string       { return Style(s, ColorBold, ColorCyan) }
func Command(s string) string     { return Style(s, ColorCyan) }
func Placeholder(s string) string { return Style(s, ColorYellow) }
func Flag(s string) string        { return Style(s, ColorGreen) }
func Dim(s string) string         { return Style(s, ColorDim) }
