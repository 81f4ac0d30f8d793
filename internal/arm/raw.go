// Package arm decodes 32-bit ARMv4T instruction words into assembly text.
//
// Decoding runs in three stages that never fail once a RawInstruction exists:
// Classify picks a Format from an ordered template table, Decode extracts the
// format's fields into an Inst, and Render turns the Inst into text.
// Disassemble runs all three and substitutes the UNDEFINED and UNPREDICTABLE
// sentinels where the architecture gives the word no usable meaning.
package arm

import (
	"fmt"

	"archstone/internal/isa"
)

// Width is the ARM instruction width in bits.
const Width = 32

// RawInstruction is an immutable 32-bit instruction word.
type RawInstruction struct {
	value uint32
}

// New validates v and wraps it. Values outside [0, 2^32) yield a
// *isa.RangeError.
func New(v int64) (RawInstruction, error) {
	if err := isa.CheckRange(v, Width); err != nil {
		return RawInstruction{}, err
	}
	return RawInstruction{value: uint32(v)}, nil
}

// FromWord wraps a word that is already known to fit.
func FromWord(w uint32) RawInstruction {
	return RawInstruction{value: w}
}

// Value returns the raw word.
func (r RawInstruction) Value() uint32 {
	return r.value
}

// Bits returns length bits starting at start.
func (r RawInstruction) Bits(start, length uint) uint32 {
	return isa.Extract(r.value, Width, start, length)
}

// SignedBits returns length bits starting at start, sign extended.
func (r RawInstruction) SignedBits(start, length uint) int32 {
	return isa.ExtractSigned(r.value, Width, start, length)
}

// Bit reports whether bit n is set.
func (r RawInstruction) Bit(n uint) bool {
	return r.Bits(n, 1) == 1
}

func (r RawInstruction) reg(start uint) isa.Reg {
	return isa.Reg(r.Bits(start, 4))
}

func (r RawInstruction) String() string {
	return fmt.Sprintf("%08X", r.value)
}
