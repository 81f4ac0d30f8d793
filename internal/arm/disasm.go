package arm

import "archstone/internal/isa"

// Disassembler renders ARM words with a fixed Style. The zero value uses
// the canonical style and is safe for concurrent use.
type Disassembler struct {
	Style isa.Style
}

// Disassemble renders raw as if it sat at address 0.
func (d Disassembler) Disassemble(raw RawInstruction) string {
	return d.DisassembleAt(raw, 0)
}

// DisassembleAt renders raw located at addr, substituting UNDEFINED or
// UNPREDICTABLE where the word has no usable meaning.
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
