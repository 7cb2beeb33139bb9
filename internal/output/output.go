package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	stdout       io.Writer = os.Stdout
	stderr       io.Writer = os.Stderr
	colorEnabled           = detectColorSupport()
)

// SetWriters redirects console output, mainly for tests.
func SetWriters(out, errOut io.Writer) {
	stdout = out
	stderr = errOut
}

func Printf(format string, args ...any) {
	fmt.Fprintf(stdout, format, args...)
}

func Println(msg string) {
	fmt.Fprintln(stdout, msg)
}

// Errorf writes to stderr.
func Errorf(format string, args ...any) {
	fmt.Fprintf(stderr, format, args...)
}

func SetColor(enabled bool) {
	colorEnabled = enabled
}

func ColorEnabled() bool {
	return colorEnabled
}

// Colorize wraps text in the ANSI sequence for role when color is enabled.
func Colorize(role, text string) string {
	if !colorEnabled {
		return text
	}
	code := ""
	switch role {
	case "title":
		code = "1;36"
	case "success":
		code = "1;32"
	case "warning":
		code = "1;33"
	case "danger":
		code = "1;31"
	case "dim":
		code = "2"
	default:
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}

func detectColorSupport() bool {
	if v := strings.TrimSpace(os.Getenv("FORCE_COLOR")); v != "" && v != "0" {
		return true
	}
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
