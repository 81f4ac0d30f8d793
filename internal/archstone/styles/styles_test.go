package styles

import (
	"strings"
	"testing"

	"archstone/internal/ui/colorize"
)

func TestResult(t *testing.T) {
	for _, text := range []string{"MOV r0, r0", "UNDEFINED", "unpredictable"} {
		got := colorize.Strip(Result("E1A00000", text))
		if got != "E1A00000: "+text {
			t.Errorf("Result(%q) = %q", text, got)
		}
	}
}

func TestMarkdownRenderer(t *testing.T) {
	r, err := MarkdownRenderer(80)
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render("# E0812003\n\n| Field | Value |\n|---|---|\n| Rd | r2 |\n")
	if err != nil {
		t.Fatal(err)
	}
	if plain := colorize.Strip(out); !strings.Contains(plain, "E0812003") || !strings.Contains(plain, "r2") {
		t.Errorf("rendered report lost content: %q", plain)
	}
}
