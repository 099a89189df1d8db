package display

import (
	"fmt"
	"io"
	"os"
)

// Terminal color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Yellow + text + Yellow + " > " + Reset
}

// Println writes a colored line to stdout
func Println(color, text string) {
	Fprintln(os.Stdout, color, text)
}

// Fprintln writes a colored line to w
func Fprintln(w io.Writer, color, text string) {
	fmt.Fprintf(w, "%s%s%s\n", color, text, Reset)
}
