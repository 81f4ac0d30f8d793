package colorize

import (
	"strings"
	"testing"

	"archstone/internal/listing"
)

func TestLineNoColor(t *testing.T) {
	t.Setenv(EnvNoColor, "1")

	l := listing.Line{Addr: 0x8000, Raw: 0xE12FFF1E, Size: 4, Mnemonic: "BX", Operands: "r14"}
	if got, want := Line(l), l.String(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
	if got, _ := Assembly("MOV r0, r1"); got != "MOV r0, r1" {
		t.Errorf("Assembly() = %q with colour disabled", got)
	}
}

func TestLineColorKeepsText(t *testing.T) {
	t.Setenv(EnvNoColor, "")

	lines := []listing.Line{
		{Addr: 0x8000, Label: "main"},
		{Addr: 0x8000, Raw: 0xE0812003, Size: 4, Mnemonic: "ADD", Operands: "r2, r1, r3"},
		{Addr: 0x8004, Raw: 0xEB000001, Size: 4, Mnemonic: "BL", Operands: "#0x8010", Annotations: []string{"-> foo"}},
	}
	for _, l := range lines {
		got := Line(l)
		if !strings.Contains(got, "\x1b[") {
			t.Errorf("Line(%q) carries no colour", l.String())
		}
		// chroma may re-space tokens; compare on fields.
		if want := strings.Fields(l.String()); strings.Join(strings.Fields(Strip(got)), " ") != strings.Join(want, " ") {
			t.Errorf("Strip(Line()) = %q, want fields of %q", Strip(got), l.String())
		}
	}
}

func TestStrip(t *testing.T) {
	if got := Strip("\x1b[38;2;1;2;3mabc\x1b[0m d"); got != "abc d" {
		t.Errorf("Strip() = %q", got)
	}
}

func TestStyleRegistered(t *testing.T) {
	if DisasmDark == nil || DisasmDark.Name != StyleName {
		t.Fatalf("DisasmDark = %v", DisasmDark)
	}
}
