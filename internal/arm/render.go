package arm

import (
	"fmt"
	"strings"

	"archstone/internal/isa"
)

// PipelineOffset is the distance from an instruction to the PC value it
// reads.
const PipelineOffset = 8

// Render turns a decoded instruction into text as if it sat at address 0.
func Render(inst Inst, style isa.Style) string {
	return RenderAt(inst, style, 0)
}

// RenderAt renders inst located at addr. Branch targets are absolute.
// Unpredictable and undefined records still render their fields; the
// sentinels are chosen by the Disassembler.
func RenderAt(inst Inst, style isa.Style, addr uint32) string {
	r := renderer{style: style, cond: inst.Cond.Suffix()}

	var text string
	switch a := inst.Args.(type) {
	case DataProcessing:
		text = r.dataProcessing(a)
	case PSRTransfer:
		text = r.psrTransfer(a)
	case Multiply:
		text = r.multiply(a)
	case MultiplyLong:
		text = r.multiplyLong(a)
	case SingleDataSwap:
		text = fmt.Sprintf("SWP%s%s %s, %s, [%s]",
			isa.Suffix(a.Byte, "B"), r.cond, r.reg(a.Rd), r.reg(a.Rm), r.reg(a.Rn))
	case BranchAndExchange:
		text = fmt.Sprintf("BX%s %s", r.cond, r.reg(a.Rm))
	case HalfwordTransfer:
		text = r.halfword(a)
	case SingleDataTransfer:
		text = r.singleDataTransfer(a)
	case BlockDataTransfer:
		text = r.blockDataTransfer(a)
	case Branch:
		target := addr + PipelineOffset + uint32(a.Offset)
		text = fmt.Sprintf("B%s%s %s", isa.Suffix(a.Link, "L"), r.cond, isa.Hex(target))
	case CoprocessorDataTransfer:
		text = r.coprocessorDataTransfer(a)
	case CoprocessorDataOperation:
		text = fmt.Sprintf("CDP%s p%d, #%d, c%d, c%d, c%d, #%d",
			r.cond, a.CP, a.Op1, a.CRd, a.CRn, a.CRm, a.Op2)
	case CoprocessorRegisterTransfer:
		mnem := "MCR"
		if a.Load {
			mnem = "MRC"
		}
		text = fmt.Sprintf("%s%s p%d, #%d, %s, c%d, c%d, #%d",
			mnem, r.cond, a.CP, a.Op1, r.reg(a.Rd), a.CRn, a.CRm, a.Op2)
	case SoftwareInterrupt:
		text = fmt.Sprintf("SWI%s %s", r.cond, isa.Hex(a.Comment))
	case Undefined, nil:
		text = isa.TextUndefined
	}
	return style.Apply(text)
}

type renderer struct {
	style isa.Style
	cond  string
}

func (r renderer) reg(n isa.Reg) string {
	return n.Name(r.style.Aliases)
}

func (r renderer) operand2(op Operand2) string {
	if op.Immediate {
		return isa.Hex(op.Value)
	}
	return isa.ShiftedRegister(op.Rm, op.Shift, r.style)
}

func (r renderer) dataProcessing(a DataProcessing) string {
	op2 := r.operand2(a.Op2)
	switch {
	case a.Opcode.Move():
		return fmt.Sprintf("%s%s%s %s, %s", a.Opcode, isa.Suffix(a.SetFlags, "S"), r.cond, r.reg(a.Rd), op2)
	case a.Opcode.Test():
		return fmt.Sprintf("%s%s %s, %s", a.Opcode, r.cond, r.reg(a.Rn), op2)
	}
	return fmt.Sprintf("%s%s%s %s, %s, %s",
		a.Opcode, isa.Suffix(a.SetFlags, "S"), r.cond, r.reg(a.Rd), r.reg(a.Rn), op2)
}

func psrName(spsr bool) string {
	if spsr {
		return "SPSR"
	}
	return "CPSR"
}

func (r renderer) psrTransfer(a PSRTransfer) string {
	if !a.Write {
		return fmt.Sprintf("MRS%s %s, %s", r.cond, r.reg(a.Rd), psrName(a.SPSR))
	}

	var fields strings.Builder
	for i, c := range "fsxc" {
		if a.Fields&(0b1000>>i) != 0 {
			fields.WriteRune(c)
		}
	}
	src := r.reg(a.Rm)
	if a.Immediate {
		src = isa.Hex(a.Value)
	}
	return fmt.Sprintf("MSR%s %s_%s, %s", r.cond, psrName(a.SPSR), fields.String(), src)
}

func (r renderer) multiply(a Multiply) string {
	s := isa.Suffix(a.SetFlags, "S")
	if a.Accumulate {
		return fmt.Sprintf("MLA%s%s %s, %s, %s, %s", s, r.cond, r.reg(a.Rd), r.reg(a.Rm), r.reg(a.Rs), r.reg(a.Rn))
	}
	return fmt.Sprintf("MUL%s%s %s, %s, %s", s, r.cond, r.reg(a.Rd), r.reg(a.Rm), r.reg(a.Rs))
}

func (r renderer) multiplyLong(a MultiplyLong) string {
	mnem := "U"
	if a.Signed {
		mnem = "S"
	}
	if a.Accumulate {
		mnem += "MLAL"
	} else {
		mnem += "MULL"
	}
	return fmt.Sprintf("%s%s%s %s, %s, %s, %s",
		mnem, isa.Suffix(a.SetFlags, "S"), r.cond, r.reg(a.RdLo), r.reg(a.RdHi), r.reg(a.Rm), r.reg(a.Rs))
}

// address renders a load/store address. Pre-indexed forms keep the offset
// inside the brackets and may carry "!"; post-indexed forms put it after.
func (r renderer) address(rn isa.Reg, pre, writeback bool, offset string) string {
	if pre {
		return fmt.Sprintf("[%s, %s]%s", r.reg(rn), offset, isa.Writeback(writeback))
	}
	return fmt.Sprintf("[%s], %s", r.reg(rn), offset)
}

func (r renderer) halfword(a HalfwordTransfer) string {
	var offset string
	if a.Immediate {
		offset = isa.SignedHex(a.Up, a.Offset)
	} else {
		offset = isa.Sign(a.Up) + r.reg(a.Rm)
	}

	mnem := "STRH"
	if a.Load {
		mnem = "LDR" + [...]string{"", "H", "SB", "SH"}[b2i(a.Signed)<<1|b2i(a.Half)]
	}
	return fmt.Sprintf("%s%s %s, %s", mnem, r.cond, r.reg(a.Rd), r.address(a.Rn, a.Pre, a.Writeback, offset))
}

func (r renderer) singleDataTransfer(a SingleDataTransfer) string {
	var offset string
	if a.RegisterOffset {
		offset = isa.Sign(a.Up) + isa.ShiftedRegister(a.Rm, a.Shift, r.style)
	} else {
		offset = isa.SignedHex(a.Up, a.Offset)
	}

	mnem := "STR"
	if a.Load {
		mnem = "LDR"
	}
	mnem += isa.Suffix(a.Byte, "B") + isa.Suffix(!a.Pre && a.Writeback, "T")
	return fmt.Sprintf("%s%s %s, %s", mnem, r.cond, r.reg(a.Rd), r.address(a.Rn, a.Pre, a.Writeback, offset))
}

func (r renderer) blockDataTransfer(a BlockDataTransfer) string {
	mnem := "STM"
	if a.Load {
		mnem = "LDM"
	}
	return fmt.Sprintf("%s%s%s %s%s, %s%s",
		mnem, a.Mode, r.cond, r.reg(a.Rn), isa.Writeback(a.Writeback),
		a.List.Format(r.style), isa.Suffix(a.UserBank, " ^"))
}

func (r renderer) coprocessorDataTransfer(a CoprocessorDataTransfer) string {
	mnem := "STC"
	if a.Load {
		mnem = "LDC"
	}
	return fmt.Sprintf("%s%s%s p%d, c%d, %s",
		mnem, isa.Suffix(a.Long, "L"), r.cond, a.CP, a.CRd,
		r.address(a.Rn, a.Pre, a.Writeback, isa.SignedHex(a.Up, a.Offset)))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
