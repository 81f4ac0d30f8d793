package isa

import "fmt"

// BlockMode is the block-transfer addressing mode selected by the
// pre/post (P) and up/down (U) bits.
type BlockMode uint8

const (
	DA BlockMode = 0b00 // Decrement after
	IA BlockMode = 0b01 // Increment after
	DB BlockMode = 0b10 // Decrement before
	IB BlockMode = 0b11 // Increment before
)

var blockModeNames = [...]string{"DA", "IA", "DB", "IB"}

// BlockModeOf combines the P and U bits into a mode.
func BlockModeOf(pre, up bool) BlockMode {
	var m BlockMode
	if pre {
		m |= 0b10
	}
	if up {
		m |= 0b01
	}
	return m
}

// Pre reports whether the base is adjusted before the transfer.
func (m BlockMode) Pre() bool { return m&0b10 != 0 }

// Up reports whether addresses increase.
func (m BlockMode) Up() bool { return m&0b01 != 0 }

func (m BlockMode) String() string {
	if int(m) < len(blockModeNames) {
		return blockModeNames[m]
	}
	return fmt.Sprintf("BlockMode(%d)", int(m))
}
