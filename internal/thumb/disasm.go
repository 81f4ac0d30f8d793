package thumb

import "archstone/internal/isa"

// Disassembler renders Thumb halfwords with a fixed Style.
type Disassembler struct {
	Style isa.Style
}

func (d Disassembler) Disassemble(raw RawInstruction) string {
	return d.DisassembleAt(raw, 0)
}

// DisassembleAt renders raw located at addr. Undefined halfwords give
// UNDEFINED, unpredictable ones UNPREDICTABLE and BL halves UNIMPLEMENTED.
func (d Disassembler) DisassembleAt(raw RawInstruction, addr uint32) string {
	inst := Decode(raw)
	switch {
	case inst.Format == FormatUndefined:
		return d.Style.Apply(isa.TextUndefined)
	case inst.Unpredictable:
		return d.Style.Apply(isa.TextUnpredictable)
	}
	return RenderAt(inst, d.Style, addr)
}

// Disassemble renders raw with the canonical style.
func Disassemble(raw RawInstruction) string {
	return Disassembler{}.Disassemble(raw)
}
