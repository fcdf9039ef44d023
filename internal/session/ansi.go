package session

import (
	"fmt"
	"io"
	"os"
)

// ANSI escape codes for terminal styling. The renderer falls back to
// plain text when the output is not an interactive terminal.
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"

	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiWhite   = "\033[37m"

	ansiBrightRed    = "\033[91m"
	ansiBrightGreen  = "\033[92m"
	ansiBrightYellow = "\033[93m"
	ansiBrightCyan   = "\033[96m"
	ansiBrightWhite  = "\033[97m"
)

// colorize wraps text with the given ANSI code and a reset suffix.
func colorize(code, text string) string {
	return code + text + ansiReset
}

// colorf wraps a formatted string with the given ANSI code.
func colorf(code, format string, args ...any) string {
	return code + fmt.Sprintf(format, args...) + ansiReset
}

// stripANSI removes all \033[...m sequences, leaving the printable text.
func stripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}

// colorEnabled decides whether w should receive ANSI codes: it must be a
// character device, TERM must not be dumb, and NO_COLOR must be unset.
func colorEnabled(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
