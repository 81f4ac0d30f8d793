package listing

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxStringLength bounds literal strings read for annotations.
const MaxStringLength = 64

// EscapeUnprintable keeps printable runes and escapes the rest as \uXXXX,
// or \xXX for invalid UTF-8.
func EscapeUnprintable(s string) string {
	var sb strings.Builder
	b := []byte(s)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&sb, "\\x%02X", b[0])
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		default:
			fmt.Fprintf(&sb, "\\u%04X", r)
		}
		b = b[size:]
	}
	return sb.String()
}

// printable reports whether s looks like text rather than arbitrary bytes.
func printable(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
