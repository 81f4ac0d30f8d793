package disasm

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"

	"archstone/internal/isa"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"arm", ModeARM, false},
		{"ARM", ModeARM, false},
		{"", ModeARM, false},
		{"thumb", ModeThumb, false},
		{" T16 ", ModeThumb, false},
		{"mips", ModeARM, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSweepARM(t *testing.T) {
	data := []byte{
		0x03, 0x20, 0x81, 0xE0, // ADD r2, r1, r3
		0xFE, 0xFF, 0xFF, 0xEA, // B .
		0xAA, 0xBB,
	}

	got := Sweep(data, SweepConfig{Base: 0x8000, Mode: ModeARM})
	want := Stream{
		{Addr: 0x8000, Raw: 0xE0812003, Size: 4, Mode: ModeARM, Format: "DataProcessing", Text: "ADD r2, r1, r3"},
		{Addr: 0x8004, Raw: 0xEAFFFFFE, Size: 4, Mode: ModeARM, Format: "Branch", Text: "B #0x8004"},
		{Addr: 0x8008, Raw: 0xBBAA, Size: 2, Mode: ModeARM, Format: FormatData, Text: ".byte 0xaa, 0xbb"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sweep mismatch (-want +got):\n%s", diff)
	}
	if !got[2].Data() || got[0].Data() {
		t.Error("Data() misreports entries")
	}
}

func TestSweepThumbBigEndian(t *testing.T) {
	data := []byte{0x47, 0x70, 0xB5, 0x10, 0x01}

	got := Sweep(data, SweepConfig{Mode: ModeThumb, Order: binary.BigEndian, Style: isa.Style{Aliases: true}})
	if len(got) != 3 {
		t.Fatalf("Sweep returned %d entries, want 3", len(got))
	}

	texts := []string{got[0].Text, got[1].Text, got[2].Text}
	want := []string{"BX lr", "PUSH {r4, lr}", ".byte 0x01"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("Sweep texts mismatch (-want +got):\n%s", diff)
	}
	if got[1].Addr != 2 || got[1].Op() != "push" {
		t.Errorf("second entry = %+v", got[1])
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		inst Inst
		want string
	}{
		{Decode(0xE1A00000, 0x8000, ModeARM, isa.Style{}), "00008000:  e1a00000  MOV r0, r0"},
		{Decode(0x4770, 0x100, ModeThumb, isa.Style{}), "00000100:  4770  BX r14"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.inst.Line(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}
