// Package thumb decodes 16-bit Thumb halfwords into assembly text.
//
// The pipeline mirrors package arm: Classify, Decode, Render and the
// Disassembler façade. The second halfword of a BL pair is classified but
// never rendered as an instruction.
package thumb

import (
	"fmt"

	"archstone/internal/isa"
)

// Width is the Thumb instruction width in bits.
const Width = 16

// RawInstruction is an immutable 16-bit halfword.
type RawInstruction struct {
	value uint16
}

// New validates v and wraps it. Values outside [0, 2^16) yield a
// *isa.RangeError.
func New(v int64) (RawInstruction, error) {
	if err := isa.CheckRange(v, Width); err != nil {
		return RawInstruction{}, err
	}
	return RawInstruction{value: uint16(v)}, nil
}

// FromHalfword wraps a halfword.
func FromHalfword(h uint16) RawInstruction {
	return RawInstruction{value: h}
}

func (r RawInstruction) Value() uint16 {
	return r.value
}

// Bits returns length bits starting at start, clamped to the halfword.
func (r RawInstruction) Bits(start, length uint) uint32 {
	return isa.Extract(uint32(r.value), Width, start, length)
}

// SignedBits returns length bits starting at start, sign extended.
func (r RawInstruction) SignedBits(start, length uint) int32 {
	return isa.ExtractSigned(uint32(r.value), Width, start, length)
}

func (r RawInstruction) Bit(n uint) bool {
	return r.Bits(n, 1) == 1
}

// low returns the 3-bit low register field at start.
func (r RawInstruction) low(start uint) isa.Reg {
	return isa.Reg(r.Bits(start, 3))
}

func (r RawInstruction) String() string {
	return fmt.Sprintf("%04X", r.value)
}
