package thumb

import "fmt"

// Format is a Thumb instruction format.
type Format uint8

const (
	FormatUndefined Format = iota
	FormatMoveShiftedRegister
	FormatAddSubtract
	FormatMoveCompareAddSubtractImmediate
	FormatALUOperation
	FormatHiRegisterOperations
	FormatPCRelativeLoad
	FormatLoadStoreWithRegisterOffset
	FormatLoadStoreSignExtended
	FormatLoadStoreWithImmediateOffset
	FormatLoadStoreHalfword
	FormatSPRelativeLoadStore
	FormatLoadAddress
	FormatAdjustStackPointer
	FormatPushPopRegisters
	FormatMultipleLoadStore
	FormatConditionalBranch
	FormatSoftwareInterrupt
	FormatUnconditionalBranch
	FormatLongBranchWithLink
)

var formatNames = [...]string{
	FormatUndefined:                       "Undefined",
	FormatMoveShiftedRegister:             "MoveShiftedRegister",
	FormatAddSubtract:                     "AddSubtract",
	FormatMoveCompareAddSubtractImmediate: "MoveCompareAddSubtractImmediate",
	FormatALUOperation:                    "ALUOperation",
	FormatHiRegisterOperations:            "HiRegisterOperations",
	FormatPCRelativeLoad:                  "PCRelativeLoad",
	FormatLoadStoreWithRegisterOffset:     "LoadStoreWithRegisterOffset",
	FormatLoadStoreSignExtended:           "LoadStoreSignExtended",
	FormatLoadStoreWithImmediateOffset:    "LoadStoreWithImmediateOffset",
	FormatLoadStoreHalfword:               "LoadStoreHalfword",
	FormatSPRelativeLoadStore:             "SPRelativeLoadStore",
	FormatLoadAddress:                     "LoadAddress",
	FormatAdjustStackPointer:              "AdjustStackPointer",
	FormatPushPopRegisters:                "PushPopRegisters",
	FormatMultipleLoadStore:               "MultipleLoadStore",
	FormatConditionalBranch:               "ConditionalBranch",
	FormatSoftwareInterrupt:               "SoftwareInterrupt",
	FormatUnconditionalBranch:             "UnconditionalBranch",
	FormatLongBranchWithLink:              "LongBranchWithLink",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Template matches a halfword whose bits under Mask equal Value.
type Template struct {
	Mask   uint16
	Value  uint16
	Format Format
}

func (t Template) Matches(h uint16) bool {
	return h&t.Mask == t.Value
}

var templates = []Template{
	// op 0b11 of the shift group
	{0xF800, 0x1800, FormatAddSubtract},
	{0xE000, 0x0000, FormatMoveShiftedRegister},
	{0xE000, 0x2000, FormatMoveCompareAddSubtractImmediate},
	{0xFC00, 0x4000, FormatALUOperation},
	{0xFC00, 0x4400, FormatHiRegisterOperations},
	{0xF800, 0x4800, FormatPCRelativeLoad},
	{0xF200, 0x5200, FormatLoadStoreSignExtended},
	{0xF200, 0x5000, FormatLoadStoreWithRegisterOffset},
	{0xE000, 0x6000, FormatLoadStoreWithImmediateOffset},
	{0xF000, 0x8000, FormatLoadStoreHalfword},
	{0xF000, 0x9000, FormatSPRelativeLoadStore},
	{0xF000, 0xA000, FormatLoadAddress},
	{0xFF00, 0xB000, FormatAdjustStackPointer},
	{0xF600, 0xB400, FormatPushPopRegisters},
	{0xF000, 0xC000, FormatMultipleLoadStore},
	// condition 0b1111 and 0b1110 of the branch group
	{0xFF00, 0xDF00, FormatSoftwareInterrupt},
	{0xFF00, 0xDE00, FormatUndefined},
	{0xF000, 0xD000, FormatConditionalBranch},
	{0xF800, 0xE000, FormatUnconditionalBranch},
	{0xF800, 0xE800, FormatUndefined},
	{0xF000, 0xF000, FormatLongBranchWithLink},
}

// Templates returns a copy of the classification table in match order.
func Templates() []Template {
	return append([]Template(nil), templates...)
}

// Classify returns the format of raw, FormatUndefined when nothing matches.
func Classify(raw RawInstruction) Format {
	h := raw.Value()
	for _, t := range templates {
		if t.Matches(h) {
			return t.Format
		}
	}
	return FormatUndefined
}
