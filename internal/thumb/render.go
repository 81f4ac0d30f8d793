package thumb

import (
	"fmt"

	"archstone/internal/isa"
)

// PipelineOffset is the distance from an instruction to the PC value it
// reads.
const PipelineOffset = 4

// Render turns a decoded instruction into text as if it sat at address 0.
func Render(inst Inst, style isa.Style) string {
	return RenderAt(inst, style, 0)
}

// RenderAt renders inst located at addr. Branch targets are absolute.
func RenderAt(inst Inst, style isa.Style, addr uint32) string {
	reg := func(r isa.Reg) string { return r.Name(style.Aliases) }
	target := func(off int32) string { return isa.Hex(addr + PipelineOffset + uint32(off)) }

	var text string
	switch a := inst.Args.(type) {
	case MoveShiftedRegister:
		text = fmt.Sprintf("%sS %s, %s, #%d", a.Shift.Type, reg(a.Rd), reg(a.Rs), a.Shift.Amount)
	case AddSubtract:
		mnem := "ADDS"
		if a.Subtract {
			mnem = "SUBS"
		}
		operand := reg(a.Rn)
		if a.Immediate {
			operand = fmt.Sprintf("#%d", a.Imm)
		}
		text = fmt.Sprintf("%s %s, %s, %s", mnem, reg(a.Rd), reg(a.Rs), operand)
	case MoveCompareAddSubtractImmediate:
		text = fmt.Sprintf("%s %s, %s", a.Op, reg(a.Rd), isa.Hex(a.Imm))
	case ALUOperation:
		text = fmt.Sprintf("%s %s, %s", a.Op, reg(a.Rd), reg(a.Rs))
	case HiRegisterOperations:
		if a.Op == HiBX {
			text = "BX " + reg(a.Rs)
		} else {
			text = fmt.Sprintf("%s %s, %s", a.Op, reg(a.Rd), reg(a.Rs))
		}
	case PCRelativeLoad:
		text = fmt.Sprintf("LDR %s, [%s, %s]", reg(a.Rd), reg(isa.PC), isa.Hex(a.Offset))
	case LoadStoreRegisterOffset:
		text = fmt.Sprintf("%s %s, [%s, %s]", a.Op, reg(a.Rd), reg(a.Rb), reg(a.Ro))
	case LoadStoreWithImmediateOffset:
		mnem := "STR"
		if a.Load {
			mnem = "LDR"
		}
		text = fmt.Sprintf("%s%s %s, [%s, %s]", mnem, isa.Suffix(a.Byte, "B"), reg(a.Rd), reg(a.Rb), isa.Hex(a.Offset))
	case LoadStoreHalfword:
		mnem := "STRH"
		if a.Load {
			mnem = "LDRH"
		}
		text = fmt.Sprintf("%s %s, [%s, %s]", mnem, reg(a.Rd), reg(a.Rb), isa.Hex(a.Offset))
	case SPRelativeLoadStore:
		mnem := "STR"
		if a.Load {
			mnem = "LDR"
		}
		text = fmt.Sprintf("%s %s, [%s, %s]", mnem, reg(a.Rd), reg(isa.SP), isa.Hex(a.Offset))
	case LoadAddress:
		base := isa.PC
		if a.SP {
			base = isa.SP
		}
		text = fmt.Sprintf("ADD %s, %s, %s", reg(a.Rd), reg(base), isa.Hex(a.Offset))
	case AdjustStackPointer:
		mnem := "ADD"
		if a.Subtract {
			mnem = "SUB"
		}
		text = fmt.Sprintf("%s %s, %s, %s", mnem, reg(isa.SP), reg(isa.SP), isa.Hex(a.Offset))
	case PushPopRegisters:
		mnem := "PUSH"
		if a.Pop {
			mnem = "POP"
		}
		text = mnem + " " + a.List.Format(style)
	case MultipleLoadStore:
		mnem := "STMIA"
		if a.Load {
			mnem = "LDMIA"
		}
		text = fmt.Sprintf("%s %s!, %s", mnem, reg(a.Rb), a.List.Format(style))
	case ConditionalBranch:
		text = fmt.Sprintf("B%s %s", a.Cond.Suffix(), target(a.Offset))
	case SoftwareInterrupt:
		text = "SWI " + isa.Hex(a.Comment)
	case UnconditionalBranch:
		text = "B " + target(a.Offset)
	case LongBranchWithLink:
		text = isa.TextUnimplemented
	case Undefined, nil:
		text = isa.TextUndefined
	}
	return style.Apply(text)
}
