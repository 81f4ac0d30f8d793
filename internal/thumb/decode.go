package thumb

import "archstone/internal/isa"

// Inst is a decoded Thumb instruction.
type Inst struct {
	Raw           RawInstruction
	Format        Format
	Unpredictable bool
	Reason        string
	Args          Args
}

// Args holds the fields of one format. The set of implementations is closed.
type Args interface {
	format() Format
}

// MoveShiftedRegister is LSL, LSR or ASR by an immediate.
type MoveShiftedRegister struct {
	Shift  isa.Shift
	Rd, Rs isa.Reg
}

type AddSubtract struct {
	Subtract  bool
	Immediate bool
	Rd, Rs    isa.Reg
	Rn        isa.Reg // register operand when Immediate is false
	Imm       uint32
}

// ImmOp selects the operation of the 8-bit immediate format.
type ImmOp uint8

const (
	ImmMOV ImmOp = iota
	ImmCMP
	ImmADD
	ImmSUB
)

var immNames = [...]string{"MOVS", "CMP", "ADDS", "SUBS"}

func (o ImmOp) String() string { return immNames[o&3] }

type MoveCompareAddSubtractImmediate struct {
	Op  ImmOp
	Rd  isa.Reg
	Imm uint32
}

// ALUOp is the 4-bit ALU operation field.
type ALUOp uint8

var aluNames = [...]string{
	"ANDS", "EORS", "LSLS", "LSRS", "ASRS", "ADCS", "SBCS", "RORS",
	"TST", "NEGS", "CMP", "CMN", "ORRS", "MULS", "BICS", "MVNS",
}

func (o ALUOp) String() string {
	return aluNames[o&0xf]
}

type ALUOperation struct {
	Op     ALUOp
	Rd, Rs isa.Reg
}

// HiOp is the operation of the hi register format.
type HiOp uint8

const (
	HiADD HiOp = iota
	HiCMP
	HiMOV
	HiBX
)

var hiNames = [...]string{"ADD", "CMP", "MOV", "BX"}

func (o HiOp) String() string {
	return hiNames[o&3]
}

// HiRegisterOperations holds full register numbers, with H1 and H2 already
// folded into Rd and Rs.
type HiRegisterOperations struct {
	Op     HiOp
	H1, H2 bool
	Rd, Rs isa.Reg
}

// PCRelativeLoad holds the byte offset from the word-aligned PC.
type PCRelativeLoad struct {
	Rd     isa.Reg
	Offset uint32
}

// TransferOp names a register-offset load or store. The value is bits 9
// to 11 of the halfword, shared by the plain and the sign-extended form.
type TransferOp uint8

var transferNames = [...]string{"STR", "STRH", "STRB", "LDRSB", "LDR", "LDRH", "LDRB", "LDRSH"}

func (o TransferOp) String() string {
	return transferNames[o&7]
}

// LoadStoreRegisterOffset covers the plain and the sign-extended
// register-offset formats.
type LoadStoreRegisterOffset struct {
	Op         TransferOp
	SignExtend bool
	Rd, Rb, Ro isa.Reg
}

type LoadStoreWithImmediateOffset struct {
	Load, Byte bool
	Rd, Rb     isa.Reg
	Offset     uint32 // bytes
}

type LoadStoreHalfword struct {
	Load   bool
	Rd, Rb isa.Reg
	Offset uint32 // bytes
}

type SPRelativeLoadStore struct {
	Load   bool
	Rd     isa.Reg
	Offset uint32 // bytes
}

// LoadAddress adds an offset to SP (SP true) or to the word-aligned PC.
type LoadAddress struct {
	SP     bool
	Rd     isa.Reg
	Offset uint32
}

type AdjustStackPointer struct {
	Subtract bool
	Offset   uint32
}

// PushPopRegisters holds the full list, with LR (push) or PC (pop) added
// when the R bit is set.
type PushPopRegisters struct {
	Pop  bool
	R    bool
	List isa.RegList
}

type MultipleLoadStore struct {
	Load bool
	Rb   isa.Reg
	List isa.RegList
}

// ConditionalBranch holds the signed byte offset from the instruction
// address plus 4.
type ConditionalBranch struct {
	Cond   isa.Condition
	Offset int32
}

type SoftwareInterrupt struct {
	Comment uint32
}

type UnconditionalBranch struct {
	Offset int32
}

// LongBranchWithLink is one half of a BL pair. High is the H bit; the
// first half carries the upper offset bits.
type LongBranchWithLink struct {
	High   bool
	Offset uint32
}

type Undefined struct{}

func (MoveShiftedRegister) format() Format             { return FormatMoveShiftedRegister }
func (AddSubtract) format() Format                     { return FormatAddSubtract }
func (MoveCompareAddSubtractImmediate) format() Format { return FormatMoveCompareAddSubtractImmediate }
func (ALUOperation) format() Format                    { return FormatALUOperation }
func (HiRegisterOperations) format() Format            { return FormatHiRegisterOperations }
func (PCRelativeLoad) format() Format                  { return FormatPCRelativeLoad }
func (l LoadStoreRegisterOffset) format() Format {
	if l.SignExtend {
		return FormatLoadStoreSignExtended
	}
	return FormatLoadStoreWithRegisterOffset
}
func (LoadStoreWithImmediateOffset) format() Format { return FormatLoadStoreWithImmediateOffset }
func (LoadStoreHalfword) format() Format            { return FormatLoadStoreHalfword }
func (SPRelativeLoadStore) format() Format          { return FormatSPRelativeLoadStore }
func (LoadAddress) format() Format                  { return FormatLoadAddress }
func (AdjustStackPointer) format() Format           { return FormatAdjustStackPointer }
func (PushPopRegisters) format() Format             { return FormatPushPopRegisters }
func (MultipleLoadStore) format() Format            { return FormatMultipleLoadStore }
func (ConditionalBranch) format() Format            { return FormatConditionalBranch }
func (SoftwareInterrupt) format() Format            { return FormatSoftwareInterrupt }
func (UnconditionalBranch) format() Format          { return FormatUnconditionalBranch }
func (LongBranchWithLink) format() Format           { return FormatLongBranchWithLink }
func (Undefined) format() Format                    { return FormatUndefined }

// Decode classifies raw and extracts its fields.
func Decode(raw RawInstruction) Inst {
	inst := Inst{Raw: raw, Format: Classify(raw)}

	switch inst.Format {
	case FormatMoveShiftedRegister:
		inst.Args = MoveShiftedRegister{
			Shift: isa.ImmediateShift(isa.ShiftType(raw.Bits(11, 2)), uint8(raw.Bits(6, 5))),
			Rs:    raw.low(3),
			Rd:    raw.low(0),
		}
	case FormatAddSubtract:
		a := AddSubtract{
			Immediate: raw.Bit(10),
			Subtract:  raw.Bit(9),
			Rs:        raw.low(3),
			Rd:        raw.low(0),
		}
		if a.Immediate {
			a.Imm = raw.Bits(6, 3)
		} else {
			a.Rn = raw.low(6)
		}
		inst.Args = a
	case FormatMoveCompareAddSubtractImmediate:
		inst.Args = MoveCompareAddSubtractImmediate{
			Op:  ImmOp(raw.Bits(11, 2)),
			Rd:  raw.low(8),
			Imm: raw.Bits(0, 8),
		}
	case FormatALUOperation:
		inst.Args = ALUOperation{
			Op: ALUOp(raw.Bits(6, 4)),
			Rs: raw.low(3),
			Rd: raw.low(0),
		}
	case FormatHiRegisterOperations:
		inst.Args = decodeHiRegister(&inst)
	case FormatPCRelativeLoad:
		inst.Args = PCRelativeLoad{Rd: raw.low(8), Offset: raw.Bits(0, 8) << 2}
	case FormatLoadStoreWithRegisterOffset, FormatLoadStoreSignExtended:
		inst.Args = LoadStoreRegisterOffset{
			Op:         TransferOp(raw.Bits(9, 3)),
			SignExtend: raw.Bit(9),
			Ro:         raw.low(6),
			Rb:         raw.low(3),
			Rd:         raw.low(0),
		}
	case FormatLoadStoreWithImmediateOffset:
		l := LoadStoreWithImmediateOffset{
			Byte:   raw.Bit(12),
			Load:   raw.Bit(11),
			Offset: raw.Bits(6, 5),
			Rb:     raw.low(3),
			Rd:     raw.low(0),
		}
		if !l.Byte {
			l.Offset <<= 2
		}
		inst.Args = l
	case FormatLoadStoreHalfword:
		inst.Args = LoadStoreHalfword{
			Load:   raw.Bit(11),
			Offset: raw.Bits(6, 5) << 1,
			Rb:     raw.low(3),
			Rd:     raw.low(0),
		}
	case FormatSPRelativeLoadStore:
		inst.Args = SPRelativeLoadStore{Load: raw.Bit(11), Rd: raw.low(8), Offset: raw.Bits(0, 8) << 2}
	case FormatLoadAddress:
		inst.Args = LoadAddress{SP: raw.Bit(11), Rd: raw.low(8), Offset: raw.Bits(0, 8) << 2}
	case FormatAdjustStackPointer:
		inst.Args = AdjustStackPointer{Subtract: raw.Bit(7), Offset: raw.Bits(0, 7) << 2}
	case FormatPushPopRegisters:
		inst.Args = decodePushPop(&inst)
	case FormatMultipleLoadStore:
		m := MultipleLoadStore{Load: raw.Bit(11), Rb: raw.low(8), List: isa.RegList(raw.Bits(0, 8))}
		inst.flagIf(m.List.Empty(), "empty register list")
		if lowest, ok := m.List.Lowest(); ok && !m.Load && m.List.Contains(m.Rb) {
			inst.flagIf(m.Rb != lowest, "store with writeback and the base not lowest in the list")
		}
		inst.Args = m
	case FormatConditionalBranch:
		inst.Args = ConditionalBranch{
			Cond:   isa.Condition(raw.Bits(8, 4)),
			Offset: raw.SignedBits(0, 8) << 1,
		}
	case FormatSoftwareInterrupt:
		inst.Args = SoftwareInterrupt{Comment: raw.Bits(0, 8)}
	case FormatUnconditionalBranch:
		inst.Args = UnconditionalBranch{Offset: raw.SignedBits(0, 11) << 1}
	case FormatLongBranchWithLink:
		inst.Args = LongBranchWithLink{High: raw.Bit(11), Offset: raw.Bits(0, 11)}
	default:
		inst.Format = FormatUndefined
		inst.Args = Undefined{}
	}
	return inst
}

func (inst *Inst) flagIf(cond bool, reason string) {
	if cond && !inst.Unpredictable {
		inst.Unpredictable = true
		inst.Reason = reason
	}
}

func decodeHiRegister(inst *Inst) HiRegisterOperations {
	raw := inst.Raw
	h := HiRegisterOperations{
		Op: HiOp(raw.Bits(8, 2)),
		H1: raw.Bit(7),
		H2: raw.Bit(6),
		Rs: isa.Reg(raw.Bits(3, 4)),
		Rd: raw.low(0),
	}

	if h.Op == HiBX {
		inst.flagIf(h.H1, "BX with H1 set")
		inst.flagIf(h.Rd != 0, "BX Rd should be zero")
		return h
	}
	if h.H1 {
		h.Rd += 8
	}
	inst.flagIf(!h.H1 && !h.H2, "hi register operation on two low registers")
	return h
}

func decodePushPop(inst *Inst) PushPopRegisters {
	raw := inst.Raw
	p := PushPopRegisters{
		Pop:  raw.Bit(11),
		R:    raw.Bit(8),
		List: isa.RegList(raw.Bits(0, 8)),
	}

	inst.flagIf(!p.R && p.List.Empty(), "empty register list")
	switch {
	case p.R && p.Pop:
		p.List |= 1 << isa.PC
	case p.R:
		p.List |= 1 << isa.LR
	}
	return p
}
