package isa

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name                 string
		v                    uint32
		width, start, length uint
		want                 uint32
	}{
		{name: "condition", v: 0xE8BB0002, width: 32, start: 28, length: 4, want: 0xE},
		{name: "base register", v: 0xE8BB0002, width: 32, start: 16, length: 4, want: 0xB},
		{name: "register list", v: 0xE8BB0002, width: 32, start: 0, length: 16, want: 0x0002},
		{name: "whole word", v: 0xDEADBEEF, width: 32, start: 0, length: 32, want: 0xDEADBEEF},
		{name: "clamped to width", v: 0xFFFF, width: 16, start: 12, length: 8, want: 0xF},
		{name: "start past width", v: 0xFFFF, width: 16, start: 16, length: 4, want: 0},
		{name: "zero length", v: 0xFFFF, width: 16, start: 0, length: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.v, tt.width, tt.start, tt.length); got != tt.want {
				t.Errorf("Extract(%#x, %d, %d, %d) = %#x, want %#x", tt.v, tt.width, tt.start, tt.length, got, tt.want)
			}
		})
	}
}

func TestExtractSigned(t *testing.T) {
	tests := []struct {
		name          string
		v             uint32
		start, length uint
		want          int32
	}{
		{name: "positive 24-bit", v: 0x00000010, start: 0, length: 24, want: 16},
		{name: "minus one 24-bit", v: 0x00FFFFFF, start: 0, length: 24, want: -1},
		{name: "minus two 11-bit", v: 0x000007FE, start: 0, length: 11, want: -2},
		{name: "most negative 8-bit", v: 0x00000080, start: 0, length: 8, want: -128},
		{name: "full width", v: 0xFFFFFFFF, start: 0, length: 32, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSigned(tt.v, 32, tt.start, tt.length); got != tt.want {
				t.Errorf("ExtractSigned(%#x, %d, %d) = %d, want %d", tt.v, tt.start, tt.length, got, tt.want)
			}
		})
	}
}

func TestRotateRight(t *testing.T) {
	if got := RotateRight(0xFF, 8); got != 0xFF000000 {
		t.Errorf("RotateRight(0xff, 8) = %#x", got)
	}
	if got := RotateRight(0x3F, 0); got != 0x3F {
		t.Errorf("RotateRight(0x3f, 0) = %#x", got)
	}
	if got := RotateRight(0x01, 2); got != 0x40000000 {
		t.Errorf("RotateRight(0x1, 2) = %#x", got)
	}
}

func TestCheckRange(t *testing.T) {
	tests := []struct {
		v       int64
		bits    uint
		wantErr bool
	}{
		{v: -1, bits: 32, wantErr: true},
		{v: 0, bits: 32},
		{v: 1<<32 - 1, bits: 32},
		{v: 1 << 32, bits: 32, wantErr: true},
		{v: 1<<16 - 1, bits: 16},
		{v: 1 << 16, bits: 16, wantErr: true},
	}

	for _, tt := range tests {
		err := CheckRange(tt.v, tt.bits)
		if (err != nil) != tt.wantErr {
			t.Fatalf("CheckRange(%d, %d) error = %v, wantErr %v", tt.v, tt.bits, err, tt.wantErr)
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("CheckRange(%d, %d) error %v does not match ErrOutOfRange", tt.v, tt.bits, err)
		}
		var re *RangeError
		if !errors.As(err, &re) || re.Value != tt.v || re.Bits != tt.bits {
			t.Errorf("CheckRange(%d, %d) error = %#v", tt.v, tt.bits, err)
		}
	}
}

func TestRegListRegisters(t *testing.T) {
	got := RegList(0b101010).Registers()
	want := []Reg{1, 3, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Registers() mismatch (-want +got):\n%s", diff)
	}
	if !RegList(0).Empty() {
		t.Error("RegList(0) should be empty")
	}
}

func TestRegListLowest(t *testing.T) {
	if r, ok := RegList(0b101000).Lowest(); !ok || r != 3 {
		t.Errorf("Lowest() = %v, %v, want r3", r, ok)
	}
	if r, ok := RegList(0x8000).Lowest(); !ok || r != PC {
		t.Errorf("Lowest() = %v, %v, want r15", r, ok)
	}
	if _, ok := RegList(0).Lowest(); ok {
		t.Error("Lowest() of an empty list succeeded")
	}
}

func TestRegListFormat(t *testing.T) {
	tests := []struct {
		name  string
		list  RegList
		style Style
		want  string
	}{
		{name: "single", list: 0x0002, want: "{r1}"},
		{name: "sparse", list: 0b101010, want: "{r1, r3, r5}"},
		{name: "run not collapsed by default", list: 0x00F0, want: "{r4, r5, r6, r7}"},
		{name: "run collapsed", list: 0x00F0, style: Style{CollapseRanges: true}, want: "{r4-r7}"},
		{name: "pair stays listed", list: 0x0003, style: Style{CollapseRanges: true}, want: "{r0, r1}"},
		{name: "mixed runs", list: 0x4077, style: Style{CollapseRanges: true}, want: "{r0-r2, r4-r6, r14}"},
		{name: "aliases", list: 0xE000, style: Style{Aliases: true}, want: "{sp, lr, pc}"},
		{name: "empty", list: 0, want: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.list.Format(tt.style); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShiftedRegister(t *testing.T) {
	tests := []struct {
		name  string
		shift Shift
		want  string
	}{
		{name: "no shift", shift: ImmediateShift(LSL, 0), want: "r2"},
		{name: "lsl immediate", shift: ImmediateShift(LSL, 3), want: "r2, LSL #3"},
		{name: "lsr zero is 32", shift: ImmediateShift(LSR, 0), want: "r2, LSR #32"},
		{name: "asr zero is 32", shift: ImmediateShift(ASR, 0), want: "r2, ASR #32"},
		{name: "ror zero is rrx", shift: ImmediateShift(ROR, 0), want: "r2, RRX"},
		{name: "ror immediate", shift: ImmediateShift(ROR, 8), want: "r2, ROR #8"},
		{name: "by register", shift: RegisterShift(ASR, 4), want: "r2, ASR r4"},
		{name: "lsl by register is still shown", shift: RegisterShift(LSL, 0), want: "r2, LSL r0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShiftedRegister(2, tt.shift, Style{}); got != tt.want {
				t.Errorf("ShiftedRegister() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlockModeOf(t *testing.T) {
	tests := []struct {
		pre, up bool
		want    string
	}{
		{pre: false, up: false, want: "DA"},
		{pre: false, up: true, want: "IA"},
		{pre: true, up: false, want: "DB"},
		{pre: true, up: true, want: "IB"},
	}
	for _, tt := range tests {
		m := BlockModeOf(tt.pre, tt.up)
		if m.String() != tt.want || m.Pre() != tt.pre || m.Up() != tt.up {
			t.Errorf("BlockModeOf(%v, %v) = %v", tt.pre, tt.up, m)
		}
	}
}

func TestConditionSuffix(t *testing.T) {
	if AL.Suffix() != "" {
		t.Errorf("AL suffix = %q", AL.Suffix())
	}
	if EQ.Suffix() != "EQ" || LE.Suffix() != "LE" {
		t.Error("named condition suffix mismatch")
	}
	if !NV.Reserved() || AL.Reserved() {
		t.Error("only NV is reserved")
	}
}

func TestRegName(t *testing.T) {
	if got := Reg(13).Name(false); got != "r13" {
		t.Errorf("r13 name = %q", got)
	}
	if got := Reg(15).Name(true); got != "pc" {
		t.Errorf("r15 alias = %q", got)
	}
	if got := Reg(12).Name(true); got != "r12" {
		t.Errorf("r12 alias = %q", got)
	}
}
