package isa

import "fmt"

// Condition is the 4-bit condition field.
type Condition uint8

const (
	EQ Condition = 0x0 // Equal (Z=1)
	NE Condition = 0x1 // Not equal (Z=0)
	CS Condition = 0x2 // Carry set (C=1)
	CC Condition = 0x3 // Carry clear (C=0)
	MI Condition = 0x4 // Minus (N=1)
	PL Condition = 0x5 // Plus or zero (N=0)
	VS Condition = 0x6 // Overflow (V=1)
	VC Condition = 0x7 // No overflow (V=0)
	HI Condition = 0x8 // Unsigned higher (C=1 and Z=0)
	LS Condition = 0x9 // Unsigned lower or same (C=0 or Z=1)
	GE Condition = 0xA // Signed greater or equal (N=V)
	LT Condition = 0xB // Signed less than (N!=V)
	GT Condition = 0xC // Signed greater than (Z=0 and N=V)
	LE Condition = 0xD // Signed less or equal (Z=1 or N!=V)
	AL Condition = 0xE // Always
	NV Condition = 0xF // Reserved
)

var conditionNames = [...]string{
	"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
	"HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV",
}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return fmt.Sprintf("Condition(%d)", int(c))
}

// Suffix is the mnemonic suffix for c. AL has none.
func (c Condition) Suffix() string {
	if c == AL {
		return ""
	}
	return c.String()
}

// Reserved reports whether c is the NV pattern.
func (c Condition) Reserved() bool {
	return c == NV
}
