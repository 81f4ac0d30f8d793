package listing

import (
	"debug/elf"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"archstone/internal/elfx"
	"archstone/internal/elfx/elfxtest"
)

func words(parts ...any) []byte {
	var out []byte
	for _, p := range parts {
		switch v := p.(type) {
		case uint32:
			out = binary.LittleEndian.AppendUint32(out, v)
		case uint16:
			out = binary.LittleEndian.AppendUint16(out, v)
		}
	}
	return out
}

func open(t *testing.T, img elfxtest.Image) *elfx.Image {
	t.Helper()
	im, err := elfx.Open(elfxtest.Write(t, img))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { im.Close() })
	return im
}

func mixedImage(t *testing.T) *elfx.Image {
	return open(t, elfxtest.Image{
		TextVA: 0x8000,
		Text: words(
			uint32(0xE0812003), // ADD r2, r1, r3
			uint32(0xEB000001), // BL 0x8010
			uint16(0x4770),     // BX r14
			uint16(0x46C0),     // MOV r8, r8
			uint32(0xDEADBEEF),
			uint32(0xE12FFF1E), // BX r14
		),
		Symbols: []elfxtest.Symbol{
			elfxtest.MappingSymbol('a', 0x8000),
			elfxtest.MappingSymbol('t', 0x8008),
			elfxtest.MappingSymbol('d', 0x800C),
			elfxtest.MappingSymbol('a', 0x8010),
			elfxtest.Func("arm_func", 0x8000, 8),
			elfxtest.Func("thumb_func", 0x8009, 4),
			{Name: "table", Value: 0x800C, Size: 4, Type: elf.STT_OBJECT, Bind: elf.STB_GLOBAL},
			elfxtest.Func("_Z3fooi", 0x8010, 4),
		},
	})
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

func TestBuild(t *testing.T) {
	im := mixedImage(t)

	got := texts(Build(im, im.Text, Options{Demangle: true}))
	want := []string{
		"00008000 <arm_func>:",
		"00008000  e0812003  ADD      r2, r1, r3",
		"00008004  eb000001  BL       #0x8010                        ; -> foo(int)",
		"00008008 <thumb_func>:",
		"00008008  4770      BX       r14",
		"0000800a  46c0      MOV      r8, r8",
		"0000800c <table>:",
		"0000800c  deadbeef  .word    0xdeadbeef",
		"00008010 <foo(int)>:",
		"00008010  e12fff1e  BX       r14",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMangled(t *testing.T) {
	im := mixedImage(t)

	lines := Build(im, im.Text, Options{})
	var labels []string
	for _, l := range lines {
		if l.Label != "" {
			labels = append(labels, l.Label)
		}
	}
	if diff := cmp.Diff([]string{"arm_func", "thumb_func", "table", "_Z3fooi"}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if got := lines[2].Annotations; len(got) != 1 || got[0] != "-> _Z3fooi" {
		t.Errorf("BL annotations = %q", got)
	}
}

func TestLiteralAnnotations(t *testing.T) {
	t.Run("arm string", func(t *testing.T) {
		im := open(t, elfxtest.Image{
			TextVA: 0x8000,
			Text: words(
				uint32(0xE59F0000), // LDR r0, [r15, #0x0]
				uint32(0xE12FFF1E),
				uint32(0x0000800C),
				uint32(0x00006968), // "hi"
			),
			Symbols: []elfxtest.Symbol{
				elfxtest.MappingSymbol('a', 0x8000),
				elfxtest.MappingSymbol('d', 0x8008),
				elfxtest.Func("load", 0x8000, 8),
			},
		})

		lines := Build(im, im.Text, Options{})
		if diff := cmp.Diff([]string{"=0x800c", `"hi"`}, lines[1].Annotations); diff != "" {
			t.Errorf("LDR annotations mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("thumb word", func(t *testing.T) {
		im := open(t, elfxtest.Image{
			TextVA: 0x1000,
			Text: words(
				uint16(0x4801), // LDR r0, [r15, #0x4]
				uint16(0x4770),
				uint32(0),
				uint32(0xCAFEF00D),
			),
			Symbols: []elfxtest.Symbol{
				elfxtest.MappingSymbol('t', 0x1000),
				elfxtest.MappingSymbol('d', 0x1004),
				elfxtest.Func("f", 0x1001, 4),
			},
		})

		lines := Build(im, im.Text, Options{})
		if diff := cmp.Diff([]string{"=0xcafef00d"}, lines[1].Annotations); diff != "" {
			t.Errorf("LDR annotations mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestFunction(t *testing.T) {
	im := mixedImage(t)

	tests := []struct {
		name string
		max  int
		want int // instruction rows
	}{
		{"arm_func", 0, 2},
		{"arm_func", 1, 1},
		{"thumb_func", 0, 2},
		{"foo(int)", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := Function(im, tt.name, tt.max, Options{})
			if err != nil {
				t.Fatalf("Function(%q): %v", tt.name, err)
			}
			n := 0
			for _, l := range lines {
				if l.Label == "" {
					n++
				}
			}
			if n != tt.want {
				t.Errorf("Function(%q) = %d instructions, want %d:\n%s", tt.name, n, tt.want, strings.Join(texts(lines), "\n"))
			}
		})
	}

	if _, err := Function(im, "missing", 0, Options{}); err == nil {
		t.Error("Function(missing) succeeded")
	}
}

func TestLineString(t *testing.T) {
	l := Line{Addr: 0x10, Raw: 0x4770, Size: 2, Mnemonic: "BX", Operands: "r14"}
	if got, want := l.String(), "00000010  4770      BX       r14"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEscapeUnprintable(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"a\tb\n", `a\u0009b\u000A`},
		{"\xff", `\xFF`},
	}
	for _, tt := range tests {
		if got := EscapeUnprintable(tt.in); got != tt.want {
			t.Errorf("EscapeUnprintable(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
