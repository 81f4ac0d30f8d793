// Package disasm defines a common instruction representation shared by the
// ARM and Thumb decoders, and a linear sweep over byte buffers.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"archstone/internal/arm"
	"archstone/internal/isa"
	"archstone/internal/thumb"
)

// Mode is the instruction set state.
type Mode uint8

const (
	ModeARM Mode = iota
	ModeThumb
)

func (m Mode) String() string {
	if m == ModeThumb {
		return "thumb"
	}
	return "arm"
}

// Size is the instruction width in bytes.
func (m Mode) Size() int {
	if m == ModeThumb {
		return 2
	}
	return 4
}

// ParseMode accepts "arm", "a32", "thumb" or "t16", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arm", "a32", "":
		return ModeARM, nil
	case "thumb", "t16", "t":
		return ModeThumb, nil
	}
	return ModeARM, fmt.Errorf("unknown mode %q (want arm or thumb)", s)
}

// Inst is a simplified decoded instruction.
type Inst struct {
	Addr   uint32 // virtual address of instruction
	Raw    uint32 // encoding; Thumb uses the low halfword
	Size   int    // bytes consumed
	Mode   Mode
	Format string // format name, or "Data"
	Text   string // formatted disassembly string
}

// Data reports whether the entry is trailing data rather than an
// instruction.
func (i Inst) Data() bool {
	return i.Format == FormatData
}

// Op returns the mnemonic in lowercase.
func (i Inst) Op() string {
	op, _, _ := strings.Cut(i.Text, " ")
	return strings.ToLower(op)
}

// FormatData marks bytes too short to hold an instruction.
const FormatData = "Data"

// Stream is a linear sequence of instructions.
type Stream []Inst

// SweepConfig controls Sweep.
type SweepConfig struct {
	Base  uint32
	Mode  Mode
	Order binary.ByteOrder // nil means little endian
	Style isa.Style
}

// Decode renders one word at addr in the given mode.
func Decode(raw uint32, addr uint32, mode Mode, style isa.Style) Inst {
	inst := Inst{Addr: addr, Raw: raw, Size: mode.Size(), Mode: mode}
	if mode == ModeThumb {
		r := thumb.FromHalfword(uint16(raw))
		inst.Raw = uint32(r.Value())
		inst.Format = thumb.Classify(r).String()
		inst.Text = thumb.Disassembler{Style: style}.DisassembleAt(r, addr)
		return inst
	}
	r := arm.FromWord(raw)
	inst.Format = arm.Classify(r).String()
	inst.Text = arm.Disassembler{Style: style}.DisassembleAt(r, addr)
	return inst
}

// Sweep decodes data linearly from cfg.Base. Bytes left over at the end are
// emitted as a single .byte entry.
func Sweep(data []byte, cfg SweepConfig) Stream {
	order := cfg.Order
	if order == nil {
		order = binary.LittleEndian
	}
	size := cfg.Mode.Size()

	out := make(Stream, 0, len(data)/size+1)
	off := 0
	for ; off+size <= len(data); off += size {
		var raw uint32
		if size == 2 {
			raw = uint32(order.Uint16(data[off:]))
		} else {
			raw = order.Uint32(data[off:])
		}
		out = append(out, Decode(raw, cfg.Base+uint32(off), cfg.Mode, cfg.Style))
	}

	if rest := data[off:]; len(rest) > 0 {
		out = append(out, dataEntry(rest, cfg.Base+uint32(off), cfg.Mode, cfg.Style))
	}
	return out
}

func dataEntry(b []byte, addr uint32, mode Mode, style isa.Style) Inst {
	parts := make([]string, len(b))
	var raw uint32
	for i, c := range b {
		parts[i] = fmt.Sprintf("0x%02x", c)
		raw |= uint32(c) << (8 * i)
	}
	return Inst{
		Addr:   addr,
		Raw:    raw,
		Size:   len(b),
		Mode:   mode,
		Format: FormatData,
		Text:   style.Apply(".byte " + strings.Join(parts, ", ")),
	}
}

// String formats the stream one instruction per line.
func (s Stream) String() string {
	var b strings.Builder
	for _, inst := range s {
		b.WriteString(inst.Line())
		b.WriteByte('\n')
	}
	return b.String()
}

// Line formats inst as "00008000:  e1a00000  MOV r0, r0".
func (i Inst) Line() string {
	width := 2 * i.Size
	if i.Data() {
		width = 2 * i.Mode.Size()
	}
	return fmt.Sprintf("%08x:  %0*x  %s", i.Addr, width, i.Raw, i.Text)
}
