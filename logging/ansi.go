package logging

import (
	"regexp"

	"github.com/acarl005/stripansi"
)

// sgrPattern matches Select Graphic Rendition sequences: ESC [ <params> m
var sgrPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// StripANSI removes terminal colour and style sequences from text.
// Every other character, including newlines and other escape sequences, is preserved.
// Removal repeats until nothing changes, so sequences joined by an earlier removal are stripped too.
func StripANSI(text string) string {
	return stripUntilStable(text, func(s string) string {
		return sgrPattern.ReplaceAllString(s, "")
	})
}

// StripAllEscapes removes every ANSI escape sequence, including cursor
// movement and erase sequences emitted by interactive test runners.
func StripAllEscapes(text string) string {
	return stripUntilStable(text, stripansi.Strip)
}

func stripUntilStable(text string, strip func(string) string) string {
	for {
		next := strip(text)
		if next == text {
			return text
		}
		text = next
	}
}

// Sanitizer cleans failure diagnostics before they are embedded in a report
type Sanitizer func(text string) string

// NewSanitizer returns StripAllEscapes when stripAll is set, otherwise StripANSI
func NewSanitizer(stripAll bool) Sanitizer {
	if stripAll {
		return StripAllEscapes
	}
	return StripANSI
}
