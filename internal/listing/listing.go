// Package listing builds annotated disassembly listings of ELF sections:
// symbol labels, branch targets resolved to symbols and literal pool loads
// resolved to their values.
package listing

import (
	"fmt"
	"strings"

	"archstone/internal/arm"
	"archstone/internal/disasm"
	"archstone/internal/elfx"
	"archstone/internal/isa"
	"archstone/internal/thumb"
)

// MaxInstructions is the default cap for Function.
const MaxInstructions = 1000

// Line is one row of a listing: a label, an instruction or a data word.
type Line struct {
	Addr        uint32
	Raw         uint32
	Size        int
	Mode        disasm.Mode
	Label       string // set on label rows only
	Mnemonic    string
	Operands    string
	Annotations []string
}

// String formats the line with the raw encoding and mnemonic in fixed
// columns and annotations after a semicolon.
// This returns plain text; colorization is done after formatting.
func (l Line) String() string {
	if l.Label != "" {
		return fmt.Sprintf("%08x <%s>:", l.Addr, l.Label)
	}

	raw := fmt.Sprintf("%0*x", 2*l.Size, l.Raw)
	base := fmt.Sprintf("%08x  %-8s  %-8s %-30s", l.Addr, raw, l.Mnemonic, l.Operands)
	if len(l.Annotations) > 0 {
		return fmt.Sprintf("%s ; %s", base, strings.Join(l.Annotations, ", "))
	}
	return strings.TrimRight(base, " ")
}

// Options controls Build and Function.
type Options struct {
	Style    isa.Style
	Demangle bool
}

// Build lists sec from start to end.
func Build(img *elfx.Image, sec elfx.Section, opts Options) []Line {
	return walk(img, sec.VA, sec.VA+sec.Size, 0, opts)
}

// Function lists the function called name (mangled or demangled) up to the
// end of its symbol, the next symbol, or the end of its section, and at most
// max instructions. A max of zero means MaxInstructions.
func Function(img *elfx.Image, name string, max int, opts Options) ([]Line, error) {
	sym, ok := img.FunctionByName(name)
	if !ok {
		sym, ok = findDemangled(img, name)
	}
	if !ok {
		return nil, fmt.Errorf("function %q not found", name)
	}

	end := sym.Addr + sym.Size
	if sym.Size == 0 {
		end = nextSymbol(img, sym.Addr)
	}
	if max <= 0 {
		max = MaxInstructions
	}
	return walk(img, sym.Addr, end, max, opts), nil
}

func findDemangled(img *elfx.Image, name string) (elfx.Sym, bool) {
	for _, s := range img.Syms {
		if s.Func && Demangle(s.Name) == name {
			return s, true
		}
	}
	return elfx.Sym{}, false
}

// nextSymbol returns the address of the first symbol after va, or the end
// of the section containing va.
func nextSymbol(img *elfx.Image, va uint32) uint32 {
	for _, s := range img.Syms {
		if s.Addr > va {
			return s.Addr
		}
	}
	for _, sec := range img.Sections {
		if sec.Contains(va) {
			return sec.VA + sec.Size
		}
	}
	return va
}

func walk(img *elfx.Image, start, end uint32, max int, opts Options) []Line {
	var out []Line
	labels := labelsIn(img, start, end)

	count := 0
	for va := start; va < end; {
		if max > 0 && count >= max {
			break
		}
		for _, name := range labels[va] {
			if opts.Demangle {
				name = Demangle(name)
			}
			out = append(out, Line{Addr: va, Label: name})
		}

		mode, data := img.ModeAt(va)
		size := uint32(mode.Size())
		if data {
			size = 4
		}
		size = min(size, end-va)
		b, ok := img.SliceVA(va, size)
		if !ok {
			break
		}

		var line Line
		switch {
		case data || int(size) < mode.Size():
			line = dataLine(va, b, img)
		case mode == disasm.ModeThumb:
			line = thumbLine(va, uint32(img.Order.Uint16(b)), img, opts)
		default:
			line = armLine(va, img.Order.Uint32(b), img, opts)
		}
		out = append(out, line)
		va += size
		count++
	}
	return out
}

func labelsIn(img *elfx.Image, start, end uint32) map[uint32][]string {
	labels := make(map[uint32][]string)
	for _, s := range img.Syms {
		if s.Addr >= start && s.Addr < end {
			labels[s.Addr] = append(labels[s.Addr], s.Name)
		}
	}
	return labels
}

func dataLine(va uint32, b []byte, img *elfx.Image) Line {
	line := Line{Addr: va, Size: len(b)}
	switch len(b) {
	case 4:
		line.Raw, line.Mnemonic = img.Order.Uint32(b), ".word"
	case 2:
		line.Raw, line.Mnemonic = uint32(img.Order.Uint16(b)), ".short"
	default:
		for i, c := range b {
			line.Raw |= uint32(c) << (8 * i)
		}
		line.Mnemonic = ".byte"
	}
	line.Operands = fmt.Sprintf("0x%x", line.Raw)
	return line
}

func split(text string) (string, string) {
	mnem, ops, _ := strings.Cut(text, " ")
	return mnem, ops
}

func armLine(va, w uint32, img *elfx.Image, opts Options) Line {
	raw := arm.FromWord(w)
	text := arm.Disassembler{Style: opts.Style}.DisassembleAt(raw, va)
	mnem, ops := split(text)
	line := Line{Addr: va, Raw: w, Size: 4, Mode: disasm.ModeARM, Mnemonic: mnem, Operands: ops}

	inst := arm.Decode(raw)
	if inst.Unpredictable || inst.Format == arm.FormatUndefined {
		return line
	}
	switch a := inst.Args.(type) {
	case arm.Branch:
		line.Annotations = branchTarget(img, va+arm.PipelineOffset+uint32(a.Offset), opts)
	case arm.SingleDataTransfer:
		if a.Load && a.Rn == isa.PC && a.Pre && !a.RegisterOffset && !a.Byte {
			lit := va + arm.PipelineOffset + a.Offset
			if !a.Up {
				lit = va + arm.PipelineOffset - a.Offset
			}
			line.Annotations = literal(img, lit, opts)
		}
	}
	return line
}

func thumbLine(va, h uint32, img *elfx.Image, opts Options) Line {
	raw := thumb.FromHalfword(uint16(h))
	text := thumb.Disassembler{Style: opts.Style}.DisassembleAt(raw, va)
	mnem, ops := split(text)
	line := Line{Addr: va, Raw: h, Size: 2, Mode: disasm.ModeThumb, Mnemonic: mnem, Operands: ops}

	inst := thumb.Decode(raw)
	if inst.Unpredictable {
		return line
	}
	pc := va + thumb.PipelineOffset
	switch a := inst.Args.(type) {
	case thumb.ConditionalBranch:
		line.Annotations = branchTarget(img, pc+uint32(a.Offset), opts)
	case thumb.UnconditionalBranch:
		line.Annotations = branchTarget(img, pc+uint32(a.Offset), opts)
	case thumb.PCRelativeLoad:
		line.Annotations = literal(img, pc&^3+a.Offset, opts)
	case thumb.LoadAddress:
		if !a.SP {
			line.Annotations = address(img, pc&^3+a.Offset, opts)
		}
	}
	return line
}

func symbolRef(img *elfx.Image, va uint32, opts Options) (string, bool) {
	sym, off, ok := img.SymbolAt(va)
	if !ok {
		return "", false
	}
	name := sym.Name
	if opts.Demangle {
		name = Demangle(name)
	}
	if off == 0 {
		return name, true
	}
	return fmt.Sprintf("%s+0x%x", name, off), true
}

func branchTarget(img *elfx.Image, target uint32, opts Options) []string {
	if ref, ok := symbolRef(img, target, opts); ok {
		return []string{"-> " + ref}
	}
	return nil
}

// literal annotates a load from a literal pool with the loaded word and
// what it points at.
func literal(img *elfx.Image, va uint32, opts Options) []string {
	w, ok := img.Word(va)
	if !ok {
		return nil
	}
	notes := []string{fmt.Sprintf("=0x%x", w)}
	return append(notes, address(img, w, opts)...)
}

// address names what va points at: a printable C string, or a symbol.
func address(img *elfx.Image, va uint32, opts Options) []string {
	if s, ok := img.CString(va, MaxStringLength); ok && printable(s) {
		return []string{`"` + EscapeUnprintable(s) + `"`}
	}
	if ref, ok := symbolRef(img, va, opts); ok {
		return []string{ref}
	}
	return nil
}
