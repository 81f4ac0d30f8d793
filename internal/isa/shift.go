package isa

import "fmt"

// ShiftType is the 2-bit shift selector.
type ShiftType uint8

const (
	LSL ShiftType = 0x0 // Logical shift left
	LSR ShiftType = 0x1 // Logical shift right
	ASR ShiftType = 0x2 // Arithmetic shift right
	ROR ShiftType = 0x3 // Rotate right
)

var shiftNames = [...]string{"LSL", "LSR", "ASR", "ROR"}

func (t ShiftType) String() string {
	if int(t) < len(shiftNames) {
		return shiftNames[t]
	}
	return fmt.Sprintf("ShiftType(%d)", int(t))
}

// Shift is a decoded shift specifier. Amount holds the effective immediate
// amount (LSR/ASR #0 encode #32). RRX marks ROR #0.
type Shift struct {
	Type   ShiftType
	Amount uint8
	ByReg  bool
	Rs     Reg
	RRX    bool
}

// ImmediateShift decodes a shift type and 5-bit immediate amount.
func ImmediateShift(t ShiftType, imm5 uint8) Shift {
	s := Shift{Type: t & 3, Amount: imm5 & 0x1f}
	if s.Amount == 0 {
		switch s.Type {
		case LSR, ASR:
			s.Amount = 32
		case ROR:
			s.RRX = true
		}
	}
	return s
}

// RegisterShift decodes a shift by the bottom byte of rs.
func RegisterShift(t ShiftType, rs Reg) Shift {
	return Shift{Type: t & 3, ByReg: true, Rs: rs & 0xf}
}

// None reports whether the shift leaves the operand unchanged (LSL #0).
func (s Shift) None() bool {
	return !s.ByReg && s.Type == LSL && s.Amount == 0
}

// ShiftedRegister renders rm with its shift: "r2", "r2, LSL #3",
// "r2, ASR r4" or "r2, RRX".
func ShiftedRegister(rm Reg, s Shift, st Style) string {
	name := rm.Name(st.Aliases)
	switch {
	case s.None():
		return name
	case s.RRX:
		return name + ", RRX"
	case s.ByReg:
		return fmt.Sprintf("%s, %s %s", name, s.Type, s.Rs.Name(st.Aliases))
	}
	return fmt.Sprintf("%s, %s #%d", name, s.Type, s.Amount)
}
