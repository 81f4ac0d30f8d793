package cmd

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"archstone/internal/arm"
	"archstone/internal/config"
	"archstone/internal/elfx/elfxtest"
	"archstone/internal/thumb"
)

// run executes the command line with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	for _, k := range []string{config.EnvConfig, config.EnvArch, config.EnvLower, config.EnvAliases, config.EnvNoColor} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootWords(t *testing.T) {
	out, errOut, err := run(t, "", "e0812003", "zz", "0x1ffffffff", "0xE12FFF1E")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("E0812003: ADD r2, r1, r3\nE12FFF1E: BX r14\n", out); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(errOut, "zz: "+InvalidFormat) || !strings.Contains(errOut, "0x1ffffffff: 8589934591 does not fit a 32-bit instruction") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestArchCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"thumb", []string{"thumb", "4770", "0b1011010100010000"}, "4770: BX r14\nB510: PUSH {r4, r14}\n"},
		{"arm aliases", []string{"arm", "--aliases", "e12fff1e"}, "E12FFF1E: BX lr\n"},
		{"arch flag", []string{"--arch", "thumb", "--lower", "bd10"}, "BD10: pop {r4, r15}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, "", tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, out); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"arch":"thumb","aliases":true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "", "--config", path, "4770")
	if err != nil {
		t.Fatal(err)
	}
	if out != "4770: BX lr\n" {
		t.Errorf("output = %q", out)
	}

	if _, _, err := run(t, "", "--config", path, "--arch", "mips", "4770"); err == nil {
		t.Error("invalid --arch accepted")
	}
}

func TestShell(t *testing.T) {
	in := "e1a00000\n\nzz\n:thumb\n4770\nquit\ne1a00000\n"
	out, _, err := run(t, in, "shell")
	if err != nil {
		t.Fatal(err)
	}
	want := "=========== ArchStone Disassembler CLI ===========\n" +
		"> E1A00000: MOV r0, r0\n" +
		"> " +
		"> " + InvalidFormat + "\n" +
		"> mode: thumb\n" +
		"> 4770: BX r14\n" +
		"> "
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("shell output mismatch (-want +got):\n%s", diff)
	}
}

func TestShellEOF(t *testing.T) {
	out, _, err := run(t, "b510", "--arch", "thumb")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "> B510: PUSH {r4, r14}\n> \n") {
		t.Errorf("output = %q", out)
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"explain", "e0812003"}, []string{"# E0812003", "| Format | DataProcessing |", "| Condition | AL |", "| Opcode | ADD |", "`ADD r2, r1, r3`"}},
		{[]string{"explain", "--arch", "thumb", "4770"}, []string{"# 4770", "| Format | HiRegisterOperations |", "| Op | BX |", "`BX r14`"}},
		{[]string{"explain", "e8900000"}, []string{"| Unpredictable |", "`UNPREDICTABLE`"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, _, err := run(t, "", tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("report lacks %q:\n%s", w, out)
				}
			}
		})
	}

	if _, _, err := run(t, "", "explain", "zz"); err == nil {
		t.Error("explain accepted an invalid token")
	}
}

func TestFormats(t *testing.T) {
	out, _, err := run(t, "", "formats")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.Count(out, "\n"), len(arm.Templates())+1; got != want {
		t.Errorf("ARM table has %d lines, want %d", got, want)
	}

	out, _, err = run(t, "", "formats", "--arch", "thumb")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.Count(out, "\n"), len(thumb.Templates())+1; got != want {
		t.Errorf("Thumb table has %d lines, want %d", got, want)
	}
	if !strings.Contains(out, "FF00   DF00   SoftwareInterrupt") {
		t.Errorf("Thumb table lacks the SWI row:\n%s", out)
	}
}

func testELF(t *testing.T) string {
	var text []byte
	for _, w := range []uint32{0xE0812003, 0xEB000001, 0xE1A00000, 0xE1A00000, 0xE12FFF1E} {
		text = binary.LittleEndian.AppendUint32(text, w)
	}
	return elfxtest.Write(t, elfxtest.Image{
		TextVA: 0x8000,
		Text:   text,
		Symbols: []elfxtest.Symbol{
			elfxtest.MappingSymbol('a', 0x8000),
			elfxtest.Func("main", 0x8000, 16),
			elfxtest.Func("_Z3fooi", 0x8010, 4),
		},
	})
}

func TestElf(t *testing.T) {
	path := testELF(t)

	out, _, err := run(t, "", "elf", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"00008000 <main>:", "BL       #0x8010", "; -> foo(int)", "00008010 <foo(int)>:"} {
		if !strings.Contains(out, w) {
			t.Errorf("listing lacks %q:\n%s", w, out)
		}
	}

	out, _, err = run(t, "", "elf", path, "--symbol", "main", "--max", "2")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("--max 2 listing has %d lines, want label plus 2:\n%s", got, out)
	}

	if _, _, err := run(t, "", "elf", path, "--section", ".nope"); err == nil {
		t.Error("missing section accepted")
	}
	if _, _, err := run(t, "", "elf", path, "--symbol", "nope"); err == nil {
		t.Error("missing symbol accepted")
	}
}

func TestElfInfo(t *testing.T) {
	path := elfxtest.Write(t, elfxtest.Image{
		TextVA: 0x8000,
		Text:   binary.LittleEndian.AppendUint32(nil, 0xEB000403), // BL 0x9014
		Symbols: []elfxtest.Symbol{
			elfxtest.MappingSymbol('a', 0x8000),
			elfxtest.Func("main", 0x8000, 4),
		},
		PLT: elfxtest.PutsPLT(),
	})

	out, _, err := run(t, "", "elf", path, "--info")
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{
		"entry     00008000 <main>",
		"  .text        00008000        4  exec  1 symbols",
		"  .plt         00009000       2c  exec  1 symbols",
		"  00009014  puts                 got 0001100c",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("--info lacks %q:\n%s", w, out)
		}
	}

	out, _, err = run(t, "", "elf", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "; -> puts@plt") {
		t.Errorf("BL to the PLT stub is not annotated:\n%s", out)
	}

	out, _, err = run(t, "", "elf", path, "--symbol", "puts")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "00009014 <puts@plt>:\n") || strings.Count(out, "\n") != 4 {
		t.Errorf("--symbol puts listing:\n%s", out)
	}
}

func TestFollowOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := os.WriteFile(path, []byte("e1a00000 zz\n\ne12fff1e"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := run(t, "", "follow", "--once", path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("E1A00000: MOV r0, r0\nE12FFF1E: BX r14\n", out); diff != "" {
		t.Errorf("follow output mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(errOut, "zz: "+InvalidFormat) {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	if err := os.WriteFile(path, []byte{0x47, 0x70, 0xB5, 0x10, 0x01}, 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "", "file", "--arch", "thumb", "--big-endian", "--base", "0x100", path)
	if err != nil {
		t.Fatal(err)
	}
	want := "00000100:  4770  BX r14\n" +
		"00000102:  b510  PUSH {r4, r14}\n" +
		"00000104:  0001  .byte 0x01\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("file output mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := run(t, "", "file", "--base", "zz", path); err == nil {
		t.Error("invalid --base accepted")
	}
}

func TestSchemaCmd(t *testing.T) {
	out, _, err := run(t, "", "schema")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"arch"`) || !strings.Contains(out, `"collapseRanges"`) {
		t.Errorf("schema output = %s", out)
	}
}
