// Package elfx opens 32-bit ARM ELF binaries, locates sections and symbols,
// and maps virtual addresses to file offsets and instruction set state.
package elfx

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"archstone/internal/arm"
	"archstone/internal/disasm"
)

type Image struct {
	Path     string
	File     *elf.File
	All      []byte
	Order    binary.ByteOrder
	Entry    uint32
	Loads    []Seg
	Sections []Section
	Text     Section
	PLT      Section
	Syms     []Sym    // sorted by Addr
	Maps     []MapSym // sorted by Addr
	PLTStubs []PLTStub
	f        *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint32
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint32
	Exec          bool
}

// Contains reports whether va lies in the section.
func (s Section) Contains(va uint32) bool {
	return s.Size != 0 && va >= s.VA && va-s.VA < s.Size
}

// Sym is a function or object symbol. Thumb functions have bit 0 of the
// ELF value cleared in Addr and Thumb set.
type Sym struct {
	Name    string
	Addr    uint32
	Size    uint32
	Func    bool
	Thumb   bool
	Dynamic bool
	PLT     bool
}

// MapKind is the kind of an ARM mapping symbol.
type MapKind byte

const (
	MapARM   MapKind = 'a'
	MapThumb MapKind = 't'
	MapData  MapKind = 'd'
)

// MapSym is a $a, $t or $d mapping symbol: code from Addr on is in the
// given state until the next mapping symbol.
type MapSym struct {
	Addr uint32
	Kind MapKind
}

// PLTStub is one lazy-binding stub of the ARM PLT.
type PLTStub struct {
	Addr    uint32
	GOTAddr uint32
	Name    string
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}
	if f.Class != elf.ELFCLASS32 || f.Machine != elf.EM_ARM {
		f.Close()
		return nil, fmt.Errorf("open elf: %s is %v %v, want ELFCLASS32 EM_ARM", path, f.Class, f.Machine)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, Order: f.ByteOrder, Entry: uint32(f.Entry), f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  uint32(p.Vaddr),
			Off:    uint32(p.Off),
			Filesz: uint32(p.Filesz),
			Flags:  p.Flags,
		})
	}

	for _, s := range f.Sections {
		if s.Type == elf.SHT_NULL || s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		sec := Section{
			Name: s.Name,
			VA:   uint32(s.Addr),
			Off:  uint32(s.Offset),
			Size: uint32(s.Size),
			Exec: s.Flags&elf.SHF_EXECINSTR != 0,
		}
		if s.Type == elf.SHT_NOBITS {
			sec.Off = 0
		}
		im.Sections = append(im.Sections, sec)
		switch s.Name {
		case ".text":
			im.Text = sec
		case ".plt":
			im.PLT = sec
		}
	}

	im.loadSymbols()
	im.parsePLTStubs()

	// Fallback if stripped of section headers.
	if im.Text.Size == 0 {
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{Name: "LOAD(exec)", VA: l.Vaddr, Off: l.Off, Size: l.Filesz, Exec: true}
				break
			}
		}
	}
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// Section returns the allocated section called name.
func (im *Image) Section(name string) (Section, bool) {
	for _, s := range im.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint32) (uint32, bool) {
	if l, ok := im.segment(va); ok {
		return l.Off + (va - l.Vaddr), true
	}
	return 0, false
}

func (im *Image) segment(va uint32) (Seg, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va-l.Vaddr < l.Filesz {
			return l, true
		}
	}
	return Seg{}, false
}

// SliceVA returns the mapped bytes for [va, va+size).
// It returns (nil, false) if the range leaves its load segment.
func (im *Image) SliceVA(va, size uint32) ([]byte, bool) {
	l, ok := im.segment(va)
	if !ok || uint64(va-l.Vaddr)+uint64(size) > uint64(l.Filesz) {
		return nil, false
	}
	off := uint64(l.Off) + uint64(va-l.Vaddr)
	end := off + uint64(size)
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// Word reads a 32-bit value in the image's byte order.
func (im *Image) Word(va uint32) (uint32, bool) {
	b, ok := im.SliceVA(va, 4)
	if !ok {
		return 0, false
	}
	return im.Order.Uint32(b), true
}

// CString reads a NUL-terminated string of at most max bytes at va.
func (im *Image) CString(va uint32, max int) (string, bool) {
	l, ok := im.segment(va)
	if !ok {
		return "", false
	}
	n := min(uint32(max), l.Filesz-(va-l.Vaddr))
	b, ok := im.SliceVA(va, n)
	if !ok {
		return "", false
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), true
		}
	}
	return "", false
}

func (im *Image) loadSymbols() {
	if syms, err := im.File.Symbols(); err == nil {
		im.addSymbols(syms, false)
	}
	if syms, err := im.File.DynamicSymbols(); err == nil {
		im.addSymbols(syms, true)
	}

	sort.SliceStable(im.Syms, func(i, j int) bool { return im.Syms[i].Addr < im.Syms[j].Addr })
	sort.SliceStable(im.Maps, func(i, j int) bool { return im.Maps[i].Addr < im.Maps[j].Addr })
}

func (im *Image) addSymbols(syms []elf.Symbol, dynamic bool) {
	seen := make(map[string]bool, len(im.Syms))
	for _, s := range im.Syms {
		seen[s.Name] = true
	}

	for _, s := range syms {
		if s.Section == elf.SHN_UNDEF || s.Name == "" {
			continue
		}
		if kind, ok := mappingKind(s.Name); ok {
			if !dynamic {
				im.Maps = append(im.Maps, MapSym{Addr: uint32(s.Value), Kind: kind})
			}
			continue
		}

		typ := elf.ST_TYPE(s.Info)
		if typ != elf.STT_FUNC && typ != elf.STT_OBJECT && typ != elf.STT_NOTYPE {
			continue
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true

		sym := Sym{
			Name:    s.Name,
			Addr:    uint32(s.Value),
			Size:    uint32(s.Size),
			Func:    typ == elf.STT_FUNC,
			Dynamic: dynamic,
		}
		if sym.Func && sym.Addr&1 != 0 {
			sym.Addr &^= 1
			sym.Thumb = true
		}
		im.Syms = append(im.Syms, sym)
	}
}

// mappingKind recognises "$a", "$t", "$d" and their "$a.N" variants.
func mappingKind(name string) (MapKind, bool) {
	if len(name) < 2 || name[0] != '$' || (len(name) > 2 && name[2] != '.') {
		return 0, false
	}
	switch k := MapKind(name[1]); k {
	case MapARM, MapThumb, MapData:
		return k, true
	}
	return 0, false
}

// ModeAt returns the instruction set state at va: the governing mapping
// symbol if there is one, else the Thumb bit of the enclosing function,
// else ARM. data is set inside a $d region.
func (im *Image) ModeAt(va uint32) (mode disasm.Mode, data bool) {
	i := sort.Search(len(im.Maps), func(i int) bool { return im.Maps[i].Addr > va })
	if i > 0 {
		switch im.Maps[i-1].Kind {
		case MapThumb:
			return disasm.ModeThumb, false
		case MapData:
			return disasm.ModeARM, true
		}
		return disasm.ModeARM, false
	}
	if sym, _, ok := im.SymbolAt(va); ok && sym.Thumb {
		return disasm.ModeThumb, false
	}
	return disasm.ModeARM, false
}

// SymbolAt returns the symbol containing va and the offset into it. A sized
// symbol contains [Addr, Addr+Size); an unsized one extends to the next.
func (im *Image) SymbolAt(va uint32) (Sym, uint32, bool) {
	i := sort.Search(len(im.Syms), func(i int) bool { return im.Syms[i].Addr > va })
	for j := i - 1; j >= 0; j-- {
		s := im.Syms[j]
		if s.Size == 0 || va-s.Addr < s.Size {
			return s, va - s.Addr, true
		}
		// An object may sit inside a function; stop at the first function
		// that ends before va.
		if s.Func {
			break
		}
	}
	return Sym{}, 0, false
}

// SymbolsIn returns the symbols whose address lies in sec, in address order.
func (im *Image) SymbolsIn(sec Section) []Sym {
	var out []Sym
	for _, s := range im.Syms {
		if sec.Contains(s.Addr) {
			out = append(out, s)
		}
	}
	return out
}

// FunctionByName searches the symbol tables for name, then the PLT stubs
// for name or name@plt.
func (im *Image) FunctionByName(name string) (Sym, bool) {
	for _, s := range im.Syms {
		if s.Name == name && !s.PLT {
			return s, true
		}
	}
	for _, s := range im.Syms {
		if s.PLT && strings.TrimSuffix(s.Name, "@plt") == strings.TrimSuffix(name, "@plt") {
			return s, true
		}
	}
	return Sym{}, false
}

const (
	pltHeaderSize = 20
	pltStubSize   = 12
)

// parsePLTStubs walks the lazy PLT:
//
//	add ip, pc, #imm1
//	add ip, ip, #imm2
//	ldr pc, [ip, #imm3]!
//
// and names each stub after the R_ARM_JUMP_SLOT relocation for its GOT
// slot. Stubs are added to Syms as "name@plt".
func (im *Image) parsePLTStubs() {
	if im.PLT.Size <= pltHeaderSize {
		return
	}

	slots := im.jumpSlots()
	for va := im.PLT.VA + pltHeaderSize; va+pltStubSize <= im.PLT.VA+im.PLT.Size; va += pltStubSize {
		got, ok := im.parsePLTStub(va)
		if !ok {
			continue
		}
		stub := PLTStub{Addr: va, GOTAddr: got, Name: slots[got]}
		im.PLTStubs = append(im.PLTStubs, stub)
		if stub.Name != "" {
			im.Syms = append(im.Syms, Sym{Name: stub.Name + "@plt", Addr: va, Size: pltStubSize, Func: true, PLT: true})
		}
	}
	sort.SliceStable(im.Syms, func(i, j int) bool { return im.Syms[i].Addr < im.Syms[j].Addr })
}

func (im *Image) parsePLTStub(va uint32) (uint32, bool) {
	b, ok := im.SliceVA(va, pltStubSize)
	if !ok {
		return 0, false
	}

	var (
		base   = va + arm.PipelineOffset
		offset uint32
	)
	for i := 0; i < 3; i++ {
		inst := arm.Decode(arm.FromWord(im.Order.Uint32(b[4*i:])))
		switch a := inst.Args.(type) {
		case arm.DataProcessing:
			if a.Opcode != arm.ADD || !a.Op2.Immediate || a.Rd != 12 {
				return 0, false
			}
			if (i == 0 && a.Rn != 15) || (i == 1 && a.Rn != 12) {
				return 0, false
			}
			offset += a.Op2.Value
		case arm.SingleDataTransfer:
			if i != 2 || !a.Load || a.Rd != 15 || a.Rn != 12 || a.RegisterOffset {
				return 0, false
			}
			if a.Up {
				offset += a.Offset
			} else {
				offset -= a.Offset
			}
		default:
			return 0, false
		}
	}
	return base + offset, true
}

// jumpSlots maps GOT slot addresses to the symbol the dynamic linker
// binds there.
func (im *Image) jumpSlots() map[uint32]string {
	slots := make(map[uint32]string)
	rel := im.File.Section(".rel.plt")
	if rel == nil {
		return slots
	}
	data, err := rel.Data()
	if err != nil {
		return slots
	}
	dynsyms, err := im.File.DynamicSymbols()
	if err != nil {
		return slots
	}

	// Each REL entry is 8 bytes: r_offset(4) + r_info(4).
	for off := 0; off+8 <= len(data); off += 8 {
		rOffset := im.Order.Uint32(data[off:])
		rInfo := im.Order.Uint32(data[off+4:])
		if elf.R_ARM(elf.R_TYPE32(rInfo)) != elf.R_ARM_JUMP_SLOT {
			continue
		}
		idx := elf.R_SYM32(rInfo)
		// DynamicSymbols drops the null entry, so index i is dynsyms[i-1].
		if idx > 0 && int(idx) <= len(dynsyms) {
			slots[rOffset] = dynsyms[idx-1].Name
		}
	}
	return slots
}
