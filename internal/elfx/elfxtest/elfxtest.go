// Package elfxtest writes minimal ELF32 ARM executables for tests.
package elfxtest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Symbol is a .symtab entry in .text. Value carries the Thumb bit for
// Thumb functions.
type Symbol struct {
	Name  string
	Value uint32
	Size  uint32
	Type  elf.SymType
	Bind  elf.SymBind
}

// PLT is a .plt section loaded at VA, with the jump slot relocations that
// name its stubs.
type PLT struct {
	VA    uint32
	Code  []byte
	Slots []JumpSlot
}

// JumpSlot is an R_ARM_JUMP_SLOT relocation binding the undefined dynamic
// symbol Name to the GOT slot at GOT.
type JumpSlot struct {
	GOT  uint32
	Name string
}

// Image describes the file to write.
type Image struct {
	Machine elf.Machine // zero means EM_ARM
	TextVA  uint32
	Text    []byte
	Symbols []Symbol
	PLT     *PLT
}

// MappingSymbol returns the local $a, $t or $d symbol at va.
func MappingSymbol(kind byte, va uint32) Symbol {
	return Symbol{Name: "$" + string(kind), Value: va, Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL}
}

// Func returns a global function symbol.
func Func(name string, value, size uint32) Symbol {
	return Symbol{Name: name, Value: value, Size: size, Type: elf.STT_FUNC, Bind: elf.STB_GLOBAL}
}

// PutsPLT returns a .plt at 0x9000 with the standard 20-byte header and
// one lazy stub at 0x9014 that jumps through the GOT slot at 0x1100c, bound
// to puts.
func PutsPLT() *PLT {
	var code []byte
	for _, w := range []uint32{
		0xE52DE004, // str lr, [sp, #-4]!
		0xE59FE004, // ldr lr, [pc, #4]
		0xE08FE00E, // add lr, pc, lr
		0xE5BEF008, // ldr pc, [lr, #8]!
		0x00007FF0,
		0xE28FC600, // add ip, pc, #0
		0xE28CCA07, // add ip, ip, #0x7000
		0xE5BCFFF0, // ldr pc, [ip, #0xff0]!
		0xE1A00000, // padding, not a stub
		0xE1A00000,
		0xE1A00000,
	} {
		code = binary.LittleEndian.AppendUint32(code, w)
	}
	return &PLT{VA: 0x9000, Code: code, Slots: []JumpSlot{{GOT: 0x1100C, Name: "puts"}}}
}

const (
	ehdrSize = 52
	phdrSize = 32
	shdrSize = 40
	symSize  = 16
	relSize  = 8
)

type section struct {
	name string
	hdr  elf.Section32
	data []byte
}

type writer struct {
	t    testing.TB
	le   binary.ByteOrder
	secs []section
}

func (w *writer) add(s section) uint32 {
	w.secs = append(w.secs, s)
	return uint32(len(w.secs) - 1)
}

// symbols encodes a symbol table and its string table.
func (w *writer) symbols(syms []elf.Sym32, names []string) ([]byte, []byte) {
	var strtab, symtab bytes.Buffer
	strtab.WriteByte(0)
	must(w.t, binary.Write(&symtab, w.le, elf.Sym32{}))
	for i, s := range syms {
		s.Name = uint32(strtab.Len())
		strtab.WriteString(names[i])
		strtab.WriteByte(0)
		must(w.t, binary.Write(&symtab, w.le, s))
	}
	return symtab.Bytes(), strtab.Bytes()
}

// Write encodes img into a file under t.TempDir and returns its path.
func Write(t testing.TB, img Image) string {
	t.Helper()

	machine := img.Machine
	if machine == 0 {
		machine = elf.EM_ARM
	}
	w := &writer{t: t, le: binary.LittleEndian}
	phnum := 1
	if img.PLT != nil {
		phnum = 2
	}

	w.add(section{})
	textIdx := w.add(section{name: ".text", data: img.Text, hdr: elf.Section32{
		Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
		Addr: img.TextVA, Addralign: 4,
	}})
	var pltIdx uint32
	if img.PLT != nil {
		pltIdx = w.add(section{name: ".plt", data: img.PLT.Code, hdr: elf.Section32{
			Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Addr: img.PLT.VA, Addralign: 4,
		}})
	}

	// Locals precede globals in .symtab.
	var locals, globals []Symbol
	for _, s := range img.Symbols {
		if s.Bind == elf.STB_LOCAL {
			locals = append(locals, s)
		} else {
			globals = append(globals, s)
		}
	}
	var (
		syms  []elf.Sym32
		names []string
	)
	for _, s := range append(locals, globals...) {
		syms = append(syms, elf.Sym32{Value: s.Value, Size: s.Size, Info: elf.ST_INFO(s.Bind, s.Type), Shndx: uint16(textIdx)})
		names = append(names, s.Name)
	}
	symtab, strtab := w.symbols(syms, names)
	symIdx := w.add(section{name: ".symtab", data: symtab, hdr: elf.Section32{
		Type: uint32(elf.SHT_SYMTAB), Info: uint32(len(locals) + 1), Addralign: 4, Entsize: symSize,
	}})
	w.secs[symIdx].hdr.Link = w.add(section{name: ".strtab", data: strtab, hdr: elf.Section32{Type: uint32(elf.SHT_STRTAB), Addralign: 1}})

	if img.PLT != nil {
		w.dynamic(img.PLT, pltIdx)
	}

	shstrIdx := w.add(section{name: ".shstrtab", hdr: elf.Section32{Type: uint32(elf.SHT_STRTAB), Addralign: 1}})
	var shstrtab bytes.Buffer
	shstrtab.WriteByte(0)
	for i := 1; i < len(w.secs); i++ {
		w.secs[i].hdr.Name = uint32(shstrtab.Len())
		shstrtab.WriteString(w.secs[i].name)
		shstrtab.WriteByte(0)
	}
	w.secs[shstrIdx].data = shstrtab.Bytes()

	off := uint32(ehdrSize + phnum*phdrSize)
	for i := 1; i < len(w.secs); i++ {
		if w.secs[i].hdr.Addralign == 4 {
			off = align4(off)
		}
		w.secs[i].hdr.Off = off
		w.secs[i].hdr.Size = uint32(len(w.secs[i].data))
		off += w.secs[i].hdr.Size
	}
	shOff := align4(off)

	var out bytes.Buffer
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     img.TextVA,
		Phoff:     ehdrSize,
		Shoff:     shOff,
		Flags:     0x05000000,
		Ehsize:    ehdrSize,
		Phentsize: phdrSize,
		Phnum:     uint16(phnum),
		Shentsize: shdrSize,
		Shnum:     uint16(len(w.secs)),
		Shstrndx:  uint16(shstrIdx),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	must(t, binary.Write(&out, w.le, hdr))

	must(t, binary.Write(&out, w.le, load(w.secs[textIdx].hdr)))
	if img.PLT != nil {
		must(t, binary.Write(&out, w.le, load(w.secs[pltIdx].hdr)))
	}

	for _, s := range w.secs[1:] {
		pad(&out, s.hdr.Off)
		out.Write(s.data)
	}
	pad(&out, shOff)
	for _, s := range w.secs {
		must(t, binary.Write(&out, w.le, s.hdr))
	}

	path := filepath.Join(t.TempDir(), "image.elf")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// dynamic adds .dynsym, .dynstr and .rel.plt for the PLT's jump slots. The
// dynamic symbols are undefined functions, one per slot.
func (w *writer) dynamic(plt *PLT, pltIdx uint32) {
	var (
		syms  []elf.Sym32
		names []string
		rel   bytes.Buffer
	)
	for i, s := range plt.Slots {
		syms = append(syms, elf.Sym32{Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)})
		names = append(names, s.Name)
		must(w.t, binary.Write(&rel, w.le, elf.Rel32{
			Off:  s.GOT,
			Info: elf.R_INFO32(uint32(i+1), uint32(elf.R_ARM_JUMP_SLOT)),
		}))
	}
	dynsym, dynstr := w.symbols(syms, names)

	symIdx := w.add(section{name: ".dynsym", data: dynsym, hdr: elf.Section32{
		Type: uint32(elf.SHT_DYNSYM), Info: 1, Addralign: 4, Entsize: symSize,
	}})
	w.secs[symIdx].hdr.Link = w.add(section{name: ".dynstr", data: dynstr, hdr: elf.Section32{Type: uint32(elf.SHT_STRTAB), Addralign: 1}})
	w.add(section{name: ".rel.plt", data: rel.Bytes(), hdr: elf.Section32{
		Type: uint32(elf.SHT_REL), Link: symIdx, Info: pltIdx, Addralign: 4, Entsize: relSize,
	}})
}

func load(s elf.Section32) elf.Prog32 {
	return elf.Prog32{
		Type:   uint32(elf.PT_LOAD),
		Off:    s.Off,
		Vaddr:  s.Addr,
		Paddr:  s.Addr,
		Filesz: s.Size,
		Memsz:  s.Size,
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Align:  4,
	}
}

func align4(v uint32) uint32 {
	return (v + 3) &^ 3
}

func pad(b *bytes.Buffer, to uint32) {
	for uint32(b.Len()) < to {
		b.WriteByte(0)
	}
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
