package viewmodel

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// TextSanitizer turns untrusted text into something safe for one kind of sink.
type TextSanitizer func(string) string

// Sanitize makes s safe to interpolate into HTML: it renders as literal text.
func Sanitize(s string) string {
	return html.EscapeString(stripControl(s))
}

// SanitizeTerminal removes control characters, which is what terminal sinks
// need to keep escape sequences in backend text from reaching the tty.
func SanitizeTerminal(s string) string {
	return stripControl(s)
}

func stripControl(s string) string {
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
