package cmd

import (
	"errors"
	"fmt"
	"strings"

	"archstone/internal/archstone/styles"
	"archstone/internal/disasm"
	"archstone/internal/isa"
)

// InvalidFormat is printed by the shell for tokens it cannot use.
const InvalidFormat = "Invalid format! Please try again."

// session is the state of an interactive shell, shared by the line-based
// loop and the TUI.
type session struct {
	mode      disasm.Mode
	style     isa.Style
	reference bool
	color     bool
}

// Banner is the greeting printed when the shell starts.
func (s *session) Banner() string {
	if s.mode == disasm.ModeThumb {
		return strings.Repeat("=", 7) + " ArchStone Thumb-1 Disassembler CLI " + strings.Repeat("=", 7)
	}
	return strings.Repeat("=", 11) + " ArchStone Disassembler CLI " + strings.Repeat("=", 11)
}

// Eval handles one input line. It returns the text to print (possibly
// empty) and whether the shell should exit.
func (s *session) Eval(line string) (string, bool) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return "", false
	case "exit", "quit":
		return "", true
	case ":arm", ":thumb":
		s.mode, _ = disasm.ParseMode(line[1:])
		return fmt.Sprintf("mode: %s", s.mode), false
	}

	res, err := Disassemble(line, s.mode, s.style, s.reference)
	if err != nil {
		if s.color {
			return styles.Error.Render(InvalidFormat), false
		}
		return InvalidFormat, false
	}
	if s.color && res.Reference == "" {
		return styles.Result(res.Prefix(), res.Text), false
	}
	return res.String(), false
}

// errorLine formats a token error for batch output.
func errorLine(tok string, err error) string {
	if errors.Is(err, isa.ErrOutOfRange) {
		return fmt.Sprintf("%s: %v", tok, err)
	}
	return fmt.Sprintf("%s: %s", tok, InvalidFormat)
}
