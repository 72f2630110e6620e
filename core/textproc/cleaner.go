package textproc

import "strings"

// Clean normalizes raw per-page PDF text: words split across a line wrap
// by a hyphen are rejoined, remaining line breaks become single spaces and
// runs of whitespace collapse to one space. Always succeeds; an empty
// input yields an empty string.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "-\r\n", "")
	text = strings.ReplaceAll(text, "-\n", "")
	return strings.Join(strings.Fields(text), " ")
}
