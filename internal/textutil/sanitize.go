package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// pathComponentReplacer maps characters that are unsafe in a single path
// component. Colons are handled separately so "Title: Subtitle" reads as
// "Title - Subtitle".
var pathComponentReplacer = strings.NewReplacer(
	": ", " - ",
	":", "-",
	"/", "_",
	"\\", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizePathComponent makes a metadata value safe to use as (part of) one
// directory or file name. The value is NFC-normalized, ": " becomes " - ",
// a bare ":" becomes "-", and / \ * ? " < > | become "_". The result is
// trimmed.
func SanitizePathComponent(value string) string {
	value = norm.NFC.String(value)
	return strings.TrimSpace(pathComponentReplacer.Replace(value))
}

// Truncate shortens s to at most width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
