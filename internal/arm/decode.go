package arm

import (
	"archstone/internal/isa"
)

// Inst is a decoded ARM instruction. Unpredictable is set, with a short
// Reason, when the fields form an encoding the architecture leaves
// unpredictable; the fields are still filled in.
type Inst struct {
	Raw           RawInstruction
	Format        Format
	Cond          isa.Condition
	Unpredictable bool
	Reason        string
	Args          Args
}

// Args holds the fields of one format. The set of implementations is closed.
type Args interface {
	format() Format
}

// Opcode is a data-processing operation.
type Opcode uint8

const (
	AND Opcode = 0x0
	EOR Opcode = 0x1
	SUB Opcode = 0x2
	RSB Opcode = 0x3
	ADD Opcode = 0x4
	ADC Opcode = 0x5
	SBC Opcode = 0x6
	RSC Opcode = 0x7
	TST Opcode = 0x8
	TEQ Opcode = 0x9
	CMP Opcode = 0xA
	CMN Opcode = 0xB
	ORR Opcode = 0xC
	MOV Opcode = 0xD
	BIC Opcode = 0xE
	MVN Opcode = 0xF
)

var opcodeNames = [...]string{
	"AND", "EOR", "SUB", "RSB", "ADD", "ADC", "SBC", "RSC",
	"TST", "TEQ", "CMP", "CMN", "ORR", "MOV", "BIC", "MVN",
}

func (o Opcode) String() string {
	return opcodeNames[o&0xf]
}

// Test reports whether o only sets flags (TST, TEQ, CMP, CMN).
func (o Opcode) Test() bool {
	return o >= TST && o <= CMN
}

// Move reports whether o ignores Rn (MOV, MVN).
func (o Opcode) Move() bool {
	return o == MOV || o == MVN
}

// Operand2 is a data-processing second operand: a rotated immediate or a
// shifted register.
type Operand2 struct {
	Immediate bool
	Imm8      uint8
	Rotate    uint8 // rotate field; the rotation is twice this
	Value     uint32
	Rm        isa.Reg
	Shift     isa.Shift
}

type DataProcessing struct {
	Opcode   Opcode
	SetFlags bool
	Rn, Rd   isa.Reg
	Op2      Operand2
}

// PSRTransfer is MRS (Write false) or MSR (Write true).
type PSRTransfer struct {
	Write     bool
	SPSR      bool
	Rd        isa.Reg
	Fields    uint8 // MSR field mask, bit 3 f, 2 s, 1 x, 0 c
	Immediate bool
	Value     uint32
	Rm        isa.Reg
}

type Multiply struct {
	Accumulate, SetFlags bool
	Rd, Rn, Rs, Rm       isa.Reg
}

type MultiplyLong struct {
	Signed, Accumulate, SetFlags bool
	RdHi, RdLo, Rs, Rm           isa.Reg
}

type SingleDataSwap struct {
	Byte       bool
	Rn, Rd, Rm isa.Reg
}

type BranchAndExchange struct {
	Rm isa.Reg
}

// HalfwordTransfer covers both halfword formats. Signed and Half are the S
// and H bits.
type HalfwordTransfer struct {
	Load, Pre, Up, Writeback bool
	Immediate                bool
	Signed, Half             bool
	Rn, Rd, Rm               isa.Reg
	Offset                   uint32
}

type SingleDataTransfer struct {
	Load, Byte, Pre, Up, Writeback bool
	RegisterOffset                 bool
	Rn, Rd, Rm                     isa.Reg
	Offset                         uint32
	Shift                          isa.Shift
}

type BlockDataTransfer struct {
	Load, Writeback, UserBank bool
	Mode                      isa.BlockMode
	Rn                        isa.Reg
	List                      isa.RegList
}

// Branch holds the sign-extended byte offset from the instruction address
// plus 8.
type Branch struct {
	Link   bool
	Offset int32
}

type CoprocessorDataTransfer struct {
	Load, Long, Pre, Up, Writeback bool
	CP, CRd                        uint8
	Rn                             isa.Reg
	Offset                         uint32 // bytes
}

type CoprocessorDataOperation struct {
	CP, Op1, CRd, CRn, CRm, Op2 uint8
}

type CoprocessorRegisterTransfer struct {
	Load            bool
	CP, Op1         uint8
	Rd              isa.Reg
	CRn, CRm, Op2   uint8
}

type SoftwareInterrupt struct {
	Comment uint32
}

type Undefined struct{}

func (DataProcessing) format() Format              { return FormatDataProcessing }
func (PSRTransfer) format() Format                 { return FormatPSRTransfer }
func (Multiply) format() Format                    { return FormatMultiply }
func (MultiplyLong) format() Format                { return FormatMultiplyLong }
func (SingleDataSwap) format() Format              { return FormatSingleDataSwap }
func (BranchAndExchange) format() Format           { return FormatBranchAndExchange }
func (h HalfwordTransfer) format() Format {
	if h.Immediate {
		return FormatHalfwordImmediateOffset
	}
	return FormatHalfwordRegisterOffset
}
func (SingleDataTransfer) format() Format          { return FormatSingleDataTransfer }
func (BlockDataTransfer) format() Format           { return FormatBlockDataTransfer }
func (Branch) format() Format                      { return FormatBranch }
func (CoprocessorDataTransfer) format() Format     { return FormatCoprocessorDataTransfer }
func (CoprocessorDataOperation) format() Format    { return FormatCoprocessorDataOperation }
func (CoprocessorRegisterTransfer) format() Format { return FormatCoprocessorRegisterTransfer }
func (SoftwareInterrupt) format() Format           { return FormatSoftwareInterrupt }
func (Undefined) format() Format                   { return FormatUndefined }

// Decode classifies raw and extracts its fields.
func Decode(raw RawInstruction) Inst {
	inst := Inst{
		Raw:    raw,
		Format: Classify(raw),
		Cond:   isa.Condition(raw.Bits(28, 4)),
	}

	switch inst.Format {
	case FormatDataProcessing:
		inst.Args = decodeDataProcessing(&inst)
	case FormatPSRTransfer:
		inst.Args = decodePSRTransfer(&inst)
	case FormatMultiply:
		inst.Args = decodeMultiply(&inst)
	case FormatMultiplyLong:
		inst.Args = decodeMultiplyLong(&inst)
	case FormatSingleDataSwap:
		inst.Args = decodeSingleDataSwap(&inst)
	case FormatBranchAndExchange:
		inst.Args = decodeBranchAndExchange(&inst)
	case FormatHalfwordRegisterOffset, FormatHalfwordImmediateOffset:
		inst.Args = decodeHalfwordTransfer(&inst)
	case FormatSingleDataTransfer:
		inst.Args = decodeSingleDataTransfer(&inst)
	case FormatBlockDataTransfer:
		inst.Args = decodeBlockDataTransfer(&inst)
	case FormatBranch:
		inst.Args = Branch{
			Link:   raw.Bit(24),
			Offset: raw.SignedBits(0, 24) << 2,
		}
	case FormatCoprocessorDataTransfer:
		inst.Args = decodeCoprocessorDataTransfer(&inst)
	case FormatCoprocessorDataOperation:
		inst.Args = CoprocessorDataOperation{
			Op1: uint8(raw.Bits(20, 4)),
			CRn: uint8(raw.Bits(16, 4)),
			CRd: uint8(raw.Bits(12, 4)),
			CP:  uint8(raw.Bits(8, 4)),
			Op2: uint8(raw.Bits(5, 3)),
			CRm: uint8(raw.Bits(0, 4)),
		}
	case FormatCoprocessorRegisterTransfer:
		inst.Args = CoprocessorRegisterTransfer{
			Op1:  uint8(raw.Bits(21, 3)),
			Load: raw.Bit(20),
			CRn:  uint8(raw.Bits(16, 4)),
			Rd:   raw.reg(12),
			CP:   uint8(raw.Bits(8, 4)),
			Op2:  uint8(raw.Bits(5, 3)),
			CRm:  uint8(raw.Bits(0, 4)),
		}
	case FormatSoftwareInterrupt:
		inst.Args = SoftwareInterrupt{Comment: raw.Bits(0, 24)}
	default:
		inst.Format = FormatUndefined
		inst.Args = Undefined{}
		return inst
	}

	if inst.Cond.Reserved() {
		inst.flag("NV condition")
	}
	return inst
}

// flag marks inst unpredictable, keeping the first reason.
func (inst *Inst) flag(reason string) {
	if !inst.Unpredictable {
		inst.Unpredictable = true
		inst.Reason = reason
	}
}

func (inst *Inst) flagIf(cond bool, reason string) {
	if cond {
		inst.flag(reason)
	}
}

func anyPC(regs ...isa.Reg) bool {
	for _, r := range regs {
		if r == isa.PC {
			return true
		}
	}
	return false
}

func decodeOperand2(raw RawInstruction) Operand2 {
	if raw.Bit(25) {
		op := Operand2{
			Immediate: true,
			Imm8:      uint8(raw.Bits(0, 8)),
			Rotate:    uint8(raw.Bits(8, 4)),
		}
		op.Value = isa.RotateRight(uint32(op.Imm8), uint(op.Rotate)*2)
		return op
	}

	op := Operand2{Rm: raw.reg(0)}
	t := isa.ShiftType(raw.Bits(5, 2))
	if raw.Bit(4) {
		op.Shift = isa.RegisterShift(t, raw.reg(8))
	} else {
		op.Shift = isa.ImmediateShift(t, uint8(raw.Bits(7, 5)))
	}
	return op
}

func decodeDataProcessing(inst *Inst) DataProcessing {
	raw := inst.Raw
	dp := DataProcessing{
		Opcode:   Opcode(raw.Bits(21, 4)),
		SetFlags: raw.Bit(20),
		Rn:       raw.reg(16),
		Rd:       raw.reg(12),
		Op2:      decodeOperand2(raw),
	}

	if !dp.Op2.Immediate && dp.Op2.Shift.ByReg {
		inst.flagIf(anyPC(dp.Rd, dp.Rn, dp.Op2.Rm, dp.Op2.Shift.Rs), "r15 in register-shift form")
	}
	inst.flagIf(dp.Opcode.Test() && dp.Rd != 0, "Rd should be zero")
	inst.flagIf(dp.Opcode.Move() && dp.Rn != 0, "Rn should be zero")
	return dp
}

func decodePSRTransfer(inst *Inst) PSRTransfer {
	raw := inst.Raw
	p := PSRTransfer{
		Write: raw.Bit(21),
		SPSR:  raw.Bit(22),
	}

	if !p.Write {
		p.Rd = raw.reg(12)
		inst.flagIf(raw.Bits(0, 12) != 0, "MRS bits 0-11 should be zero")
		inst.flagIf(raw.Bits(16, 4) != 0xF, "MRS bits 16-19 should be one")
		inst.flagIf(p.Rd == isa.PC, "MRS into r15")
		return p
	}

	p.Fields = uint8(raw.Bits(16, 4))
	inst.flagIf(raw.Bits(12, 4) != 0xF, "MSR bits 12-15 should be one")
	inst.flagIf(p.Fields == 0, "MSR with empty field mask")
	if raw.Bit(25) {
		p.Immediate = true
		p.Value = isa.RotateRight(raw.Bits(0, 8), uint(raw.Bits(8, 4))*2)
		return p
	}
	p.Rm = raw.reg(0)
	inst.flagIf(raw.Bits(4, 8) != 0, "MSR bits 4-11 should be zero")
	inst.flagIf(p.Rm == isa.PC, "MSR from r15")
	return p
}

func decodeMultiply(inst *Inst) Multiply {
	raw := inst.Raw
	m := Multiply{
		Accumulate: raw.Bit(21),
		SetFlags:   raw.Bit(20),
		Rd:         raw.reg(16),
		Rn:         raw.reg(12),
		Rs:         raw.reg(8),
		Rm:         raw.reg(0),
	}

	inst.flagIf(!m.Accumulate && m.Rn != 0, "MUL Rn should be zero")
	inst.flagIf(m.Rd == m.Rm, "Rd and Rm are the same register")
	inst.flagIf(anyPC(m.Rd, m.Rs, m.Rm) || (m.Accumulate && m.Rn == isa.PC), "r15 operand")
	return m
}

func decodeMultiplyLong(inst *Inst) MultiplyLong {
	raw := inst.Raw
	m := MultiplyLong{
		Signed:     raw.Bit(22),
		Accumulate: raw.Bit(21),
		SetFlags:   raw.Bit(20),
		RdHi:       raw.reg(16),
		RdLo:       raw.reg(12),
		Rs:         raw.reg(8),
		Rm:         raw.reg(0),
	}

	inst.flagIf(anyPC(m.RdHi, m.RdLo, m.Rs, m.Rm), "r15 operand")
	inst.flagIf(m.RdHi == m.RdLo, "RdHi and RdLo are the same register")
	inst.flagIf(m.RdHi == m.Rm || m.RdLo == m.Rm, "destination is Rm")
	return m
}

func decodeSingleDataSwap(inst *Inst) SingleDataSwap {
	raw := inst.Raw
	s := SingleDataSwap{
		Byte: raw.Bit(22),
		Rn:   raw.reg(16),
		Rd:   raw.reg(12),
		Rm:   raw.reg(0),
	}

	inst.flagIf(raw.Bits(8, 4) != 0, "bits 8-11 should be zero")
	inst.flagIf(anyPC(s.Rn, s.Rd, s.Rm), "r15 operand")
	inst.flagIf(s.Rn == s.Rm || s.Rn == s.Rd, "base register is also a data register")
	return s
}

func decodeBranchAndExchange(inst *Inst) BranchAndExchange {
	raw := inst.Raw
	bx := BranchAndExchange{Rm: raw.reg(0)}

	inst.flagIf(raw.Bits(8, 12) != 0xFFF, "bits 8-19 should be one")
	inst.flagIf(bx.Rm == isa.PC, "BX to r15")
	return bx
}

func decodeHalfwordTransfer(inst *Inst) HalfwordTransfer {
	raw := inst.Raw
	h := HalfwordTransfer{
		Pre:       raw.Bit(24),
		Up:        raw.Bit(23),
		Immediate: raw.Bit(22),
		Writeback: raw.Bit(21),
		Load:      raw.Bit(20),
		Rn:        raw.reg(16),
		Rd:        raw.reg(12),
		Signed:    raw.Bit(6),
		Half:      raw.Bit(5),
	}

	if h.Immediate {
		h.Offset = raw.Bits(8, 4)<<4 | raw.Bits(0, 4)
	} else {
		h.Rm = raw.reg(0)
		inst.flagIf(raw.Bits(8, 4) != 0, "bits 8-11 should be zero")
		inst.flagIf(h.Rm == isa.PC, "r15 offset register")
	}

	inst.flagIf(!h.Pre && h.Writeback, "post-indexed with writeback bit")
	writeback := !h.Pre || h.Writeback
	inst.flagIf(writeback && h.Rn == isa.PC, "writeback to r15")
	inst.flagIf(writeback && h.Load && h.Rn == h.Rd, "load with writeback into the base register")
	return h
}

func decodeSingleDataTransfer(inst *Inst) SingleDataTransfer {
	raw := inst.Raw
	s := SingleDataTransfer{
		RegisterOffset: raw.Bit(25),
		Pre:            raw.Bit(24),
		Up:             raw.Bit(23),
		Byte:           raw.Bit(22),
		Writeback:      raw.Bit(21),
		Load:           raw.Bit(20),
		Rn:             raw.reg(16),
		Rd:             raw.reg(12),
	}

	if s.RegisterOffset {
		s.Rm = raw.reg(0)
		s.Shift = isa.ImmediateShift(isa.ShiftType(raw.Bits(5, 2)), uint8(raw.Bits(7, 5)))
		inst.flagIf(s.Rm == isa.PC, "r15 offset register")
	} else {
		s.Offset = raw.Bits(0, 12)
	}

	writeback := !s.Pre || s.Writeback
	inst.flagIf(writeback && s.Rn == isa.PC, "writeback to r15")
	inst.flagIf(writeback && s.Load && s.Rn == s.Rd, "load with writeback into the base register")
	return s
}

func decodeBlockDataTransfer(inst *Inst) BlockDataTransfer {
	raw := inst.Raw
	b := BlockDataTransfer{
		Mode:      isa.BlockModeOf(raw.Bit(24), raw.Bit(23)),
		UserBank:  raw.Bit(22),
		Writeback: raw.Bit(21),
		Load:      raw.Bit(20),
		Rn:        raw.reg(16),
		List:      isa.RegList(raw.Bits(0, 16)),
	}

	inst.flagIf(b.List.Empty(), "empty register list")
	inst.flagIf(b.Rn == isa.PC, "r15 base register")
	inst.flagIf(b.UserBank && b.Writeback, "user bank transfer with writeback")
	if b.Writeback && b.List.Contains(b.Rn) {
		lowest, _ := b.List.Lowest()
		inst.flagIf(b.Load, "load with writeback and the base in the list")
		inst.flagIf(!b.Load && b.Rn != lowest, "store with writeback and the base not lowest in the list")
	}
	return b
}

func decodeCoprocessorDataTransfer(inst *Inst) CoprocessorDataTransfer {
	raw := inst.Raw
	c := CoprocessorDataTransfer{
		Pre:       raw.Bit(24),
		Up:        raw.Bit(23),
		Long:      raw.Bit(22),
		Writeback: raw.Bit(21),
		Load:      raw.Bit(20),
		Rn:        raw.reg(16),
		CRd:       uint8(raw.Bits(12, 4)),
		CP:        uint8(raw.Bits(8, 4)),
		Offset:    raw.Bits(0, 8) * 4,
	}

	inst.flagIf(!c.Pre && !c.Writeback, "post-indexed without writeback")
	return c
}
