package cli

import (
	"fmt"
	"os"
)

const (
	Reset  = "\033[0m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
)

// Enabled reports whether ANSI colors should be emitted. NO_COLOR turns them
// off whatever its value.
func Enabled() bool {
	_, noColor := os.LookupEnv("NO_COLOR")
	return !noColor
}

// Style wraps text in a specific color code
func Style(text string, colorCode string) string {
	if !Enabled() {
		return text
	}
	return fmt.Sprintf("%s%s%s", colorCode, text, Reset)
}

func CheckMark() string {
	return Style("✔", Green)
}

func CrossMark() string {
	return Style("✘", Red)
}
