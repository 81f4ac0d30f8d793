// Package colorize highlights disassembly listings for terminals.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"archstone/internal/listing"
)

// EnvNoColor disables colour output when set to any non-empty value.
const EnvNoColor = "ARCHSTONE_NO_COLOR"

const (
	addrColor  = "\033[38;2;79;79;79m"
	rawColor   = "\033[38;2;110;110;110m"
	noteColor  = "\033[38;2;235;194;237m"
	labelColor = "\033[38;2;255;215;0m"
	reset      = "\033[0m"
)

// Enabled reports whether colour output is allowed by the environment.
func Enabled() bool {
	return os.Getenv(EnvNoColor) == ""
}

// getAssemblyLexer returns an assembly lexer, preferring ARM syntax.
func getAssemblyLexer() chroma.Lexer {
	for _, name := range []string{"armasm", "gas", "nasm"} {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

func getDisasmStyle() *chroma.Style {
	for _, name := range []string{StyleName, "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Assembly highlights a block of assembly text with chroma. On failure the
// input is returned along with the error.
func Assembly(code string) (string, error) {
	if !Enabled() {
		return code, nil
	}
	lexer := getAssemblyLexer()
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}
	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return code, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Line colours one listing row while keeping its column layout: the address
// and raw encoding dimmed, the instruction highlighted, annotations muted.
func Line(l listing.Line) string {
	if !Enabled() {
		return l.String()
	}
	if l.Label != "" {
		return fmt.Sprintf("%s%08x%s %s<%s>:%s", addrColor, l.Addr, reset, labelColor, l.Label, reset)
	}

	raw := fmt.Sprintf("%-8s", fmt.Sprintf("%0*x", 2*l.Size, l.Raw))
	text := fmt.Sprintf("%-8s %-30s", l.Mnemonic, l.Operands)
	if len(l.Annotations) == 0 {
		text = strings.TrimRight(text, " ")
	}
	if colored, err := Assembly(text); err == nil {
		// the lexer terminates its input with a newline, possibly inside an escape
		text = strings.ReplaceAll(colored, "\n", "")
	}

	out := fmt.Sprintf("%s%08x%s  %s%s%s  %s", addrColor, l.Addr, reset, rawColor, raw, reset, text)
	if len(l.Annotations) > 0 {
		out += fmt.Sprintf(" %s; %s%s", noteColor, strings.Join(l.Annotations, ", "), reset)
	}
	return out
}

// Listing colours every row and joins them with newlines.
func Listing(lines []listing.Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(Line(l))
		b.WriteByte('\n')
	}
	return b.String()
}

// Strip removes ANSI colour sequences.
func Strip(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
