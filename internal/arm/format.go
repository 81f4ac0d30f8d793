package arm

import "fmt"

// Format is an ARM instruction format.
type Format uint8

// ARM instruction formats.
const (
	FormatUndefined Format = iota
	FormatDataProcessing
	FormatPSRTransfer
	FormatMultiply
	FormatMultiplyLong
	FormatSingleDataSwap
	FormatBranchAndExchange
	FormatHalfwordRegisterOffset
	FormatHalfwordImmediateOffset
	FormatSingleDataTransfer
	FormatBlockDataTransfer
	FormatBranch
	FormatCoprocessorDataTransfer
	FormatCoprocessorDataOperation
	FormatCoprocessorRegisterTransfer
	FormatSoftwareInterrupt
)

var formatNames = [...]string{
	FormatUndefined:                   "Undefined",
	FormatDataProcessing:              "DataProcessing",
	FormatPSRTransfer:                 "PSRTransfer",
	FormatMultiply:                    "Multiply",
	FormatMultiplyLong:                "MultiplyLong",
	FormatSingleDataSwap:              "SingleDataSwap",
	FormatBranchAndExchange:           "BranchAndExchange",
	FormatHalfwordRegisterOffset:      "HalfwordDataTransferRegisterOffset",
	FormatHalfwordImmediateOffset:     "HalfwordDataTransferImmediateOffset",
	FormatSingleDataTransfer:          "SingleDataTransfer",
	FormatBlockDataTransfer:           "BlockDataTransfer",
	FormatBranch:                      "Branch",
	FormatCoprocessorDataTransfer:     "CoprocessorDataTransfer",
	FormatCoprocessorDataOperation:    "CoprocessorDataOperation",
	FormatCoprocessorRegisterTransfer: "CoprocessorRegisterTransfer",
	FormatSoftwareInterrupt:           "SoftwareInterrupt",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Template matches a word whose bits under Mask equal Value.
type Template struct {
	Mask   uint32
	Value  uint32
	Format Format
}

// Matches reports whether w satisfies the template.
func (t Template) Matches(w uint32) bool {
	return w&t.Mask == t.Value
}

// templates is ordered so that every encoding which is a bit-subset of a
// later, more general pattern is tested first. The condition field is never
// part of a mask.
var templates = []Template{
	{0x0F000000, 0x0F000000, FormatSoftwareInterrupt},
	{0x0FF000F0, 0x01200010, FormatBranchAndExchange},
	{0x0E000000, 0x0A000000, FormatBranch},
	{0x0F000010, 0x0E000010, FormatCoprocessorRegisterTransfer},
	{0x0F000010, 0x0E000000, FormatCoprocessorDataOperation},
	{0x0E000000, 0x0C000000, FormatCoprocessorDataTransfer},
	{0x0E000000, 0x08000000, FormatBlockDataTransfer},
	{0x0E000010, 0x06000010, FormatUndefined},
	{0x0C000000, 0x04000000, FormatSingleDataTransfer},
	{0x0FC000F0, 0x00000090, FormatMultiply},
	{0x0F8000F0, 0x00800090, FormatMultiplyLong},
	{0x0FB000F0, 0x01000090, FormatSingleDataSwap},
	// multiply space left over once the three formats above are excluded
	{0x0E0000F0, 0x00000090, FormatUndefined},
	// signed byte/halfword stores have no meaning before ARMv5TE
	{0x0E1000D0, 0x000000D0, FormatUndefined},
	{0x0E400090, 0x00000090, FormatHalfwordRegisterOffset},
	{0x0E400090, 0x00400090, FormatHalfwordImmediateOffset},
	// MRS with the immediate bit set
	{0x0FB00000, 0x03000000, FormatUndefined},
	{0x0D900000, 0x01000000, FormatPSRTransfer},
	{0x0C000000, 0x00000000, FormatDataProcessing},
}

// Templates returns a copy of the classification table in match order.
func Templates() []Template {
	return append([]Template(nil), templates...)
}

// Classify returns the format of raw. Words matching no template are
// FormatUndefined.
func Classify(raw RawInstruction) Format {
	w := raw.Value()
	for _, t := range templates {
		if t.Matches(w) {
			return t.Format
		}
	}
	return FormatUndefined
}
