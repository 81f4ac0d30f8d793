package cmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/arch/arm/armasm"

	"archstone/internal/arm"
	"archstone/internal/disasm"
	"archstone/internal/isa"
	"archstone/internal/thumb"
)

// ErrInvalidToken reports a token that is not a number in any accepted base.
var ErrInvalidToken = errors.New("invalid token")

// ParseToken reads an instruction word. Hex is the default base; 0x, 0o and
// 0b prefixes select hex, octal and binary. Numbers too large for an int64
// are reported as isa.ErrOutOfRange.
func ParseToken(s string) (int64, error) {
	tok := strings.ToLower(strings.TrimSpace(s))
	neg := strings.HasPrefix(tok, "-")
	tok = strings.TrimPrefix(tok, "-")

	base := 16
	switch {
	case strings.HasPrefix(tok, "0x"):
		tok = tok[2:]
	case strings.HasPrefix(tok, "0o"):
		base, tok = 8, tok[2:]
	case strings.HasPrefix(tok, "0b"):
		base, tok = 2, tok[2:]
	}

	if tok == "" || strings.ContainsAny(tok, "+-") {
		return 0, fmt.Errorf("%w %q", ErrInvalidToken, s)
	}
	v, err := strconv.ParseInt(tok, base, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%q: %w", s, isa.ErrOutOfRange)
	}
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidToken, s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// Result is one disassembled token.
type Result struct {
	Mode      disasm.Mode
	Value     uint32
	Text      string
	Reference string // GNU syntax from armasm, ARM only
}

// Prefix is the value as the shell prints it: 8 hex digits for ARM, 4 for Thumb.
func (r Result) Prefix() string {
	if r.Mode == disasm.ModeThumb {
		return fmt.Sprintf("%04X", r.Value)
	}
	return fmt.Sprintf("%08X", r.Value)
}

func (r Result) String() string {
	if r.Reference != "" {
		return fmt.Sprintf("%s: %-32s ; %s", r.Prefix(), r.Text, r.Reference)
	}
	return fmt.Sprintf("%s: %s", r.Prefix(), r.Text)
}

// Disassemble parses tok and renders it in mode. Values wider than the
// instruction set are rejected with an *isa.RangeError.
func Disassemble(tok string, mode disasm.Mode, style isa.Style, reference bool) (Result, error) {
	v, err := ParseToken(tok)
	if err != nil {
		return Result{}, err
	}

	res := Result{Mode: mode}
	if mode == disasm.ModeThumb {
		raw, err := thumb.New(v)
		if err != nil {
			return Result{}, err
		}
		res.Value = uint32(raw.Value())
		res.Text = thumb.Disassembler{Style: style}.Disassemble(raw)
		return res, nil
	}

	raw, err := arm.New(v)
	if err != nil {
		return Result{}, err
	}
	res.Value = raw.Value()
	res.Text = arm.Disassembler{Style: style}.Disassemble(raw)
	if reference {
		res.Reference = Reference(res.Value)
	}
	return res, nil
}

// Reference renders w with the Go ARM disassembler in GNU syntax, or "?"
// when it cannot decode the word.
func Reference(w uint32) string {
	var src [4]byte
	binary.LittleEndian.PutUint32(src[:], w)
	inst, err := armasm.Decode(src[:], armasm.ModeARM)
	if err != nil {
		return "?"
	}
	return armasm.GNUSyntax(inst)
}
