package isa

import (
	"fmt"
	"math/bits"
	"strings"
)

// Reg is a register index in [0,15].
type Reg uint8

const (
	SP Reg = 13
	LR Reg = 14
	PC Reg = 15
)

func (r Reg) String() string {
	return fmt.Sprintf("r%d", uint8(r&0xf))
}

// Name renders r, using sp/lr/pc when aliases is set.
func (r Reg) Name(aliases bool) string {
	if aliases {
		switch r {
		case SP:
			return "sp"
		case LR:
			return "lr"
		case PC:
			return "pc"
		}
	}
	return r.String()
}

// RegList is a register mask; bit n selects rn.
type RegList uint16

// Empty reports whether no register is selected.
func (l RegList) Empty() bool {
	return l == 0
}

// Contains reports whether r is in the list.
func (l RegList) Contains(r Reg) bool {
	return l&(1<<(r&0xf)) != 0
}

// Lowest returns the lowest-numbered register in the list. It reports
// false for an empty list.
func (l RegList) Lowest() (Reg, bool) {
	if l == 0 {
		return 0, false
	}
	return Reg(bits.TrailingZeros16(uint16(l))), true
}

// Registers returns the selected registers in ascending order.
func (l RegList) Registers() []Reg {
	regs := make([]Reg, 0, 16)
	for i := Reg(0); i < 16; i++ {
		if l.Contains(i) {
			regs = append(regs, i)
		}
	}
	return regs
}

// Format renders the list as "{r1, r3, r5}". With collapse set, runs of
// three or more consecutive registers are written "r4-r7".
func (l RegList) Format(s Style) string {
	regs := l.Registers()
	parts := make([]string, 0, len(regs))
	for i := 0; i < len(regs); {
		j := i
		for j+1 < len(regs) && regs[j+1] == regs[j]+1 {
			j++
		}
		if s.CollapseRanges && j-i >= 2 {
			parts = append(parts, regs[i].Name(s.Aliases)+"-"+regs[j].Name(s.Aliases))
			i = j + 1
			continue
		}
		parts = append(parts, regs[i].Name(s.Aliases))
		i++
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (l RegList) String() string {
	return l.Format(Style{})
}
