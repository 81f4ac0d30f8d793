package cmd

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"archstone/internal/archstone/styles"
	"archstone/internal/arm"
	"archstone/internal/disasm"
	"archstone/internal/isa"
	"archstone/internal/thumb"
)

func newExplainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <word>",
		Short: "Describe how a word decodes",
		Long:  "Print the format, condition, decoded fields and result of one word as a markdown report.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := Explain(args[0], a.mode(), a.style())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !a.color(out) {
				fmt.Fprint(out, report)
				return nil
			}
			width, _, err := term.GetSize(os.Stdout.Fd())
			if err != nil || width <= 0 {
				width = 80
			}
			r, err := styles.MarkdownRenderer(width)
			if err != nil {
				return fmt.Errorf("markdown renderer: %w", err)
			}
			rendered, err := r.Render(report)
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
}

type row struct{ key, value string }

// Explain builds a markdown report for tok.
func Explain(tok string, mode disasm.Mode, style isa.Style) (string, error) {
	res, err := Disassemble(tok, mode, style, false)
	if err != nil {
		return "", err
	}

	var (
		format string
		reason string
		args   any
		facts  []row
	)
	if mode == disasm.ModeThumb {
		inst := thumb.Decode(thumb.FromHalfword(uint16(res.Value)))
		format, reason, args = inst.Format.String(), inst.Reason, inst.Args
	} else {
		inst := arm.Decode(arm.FromWord(res.Value))
		format, reason, args = inst.Format.String(), inst.Reason, inst.Args
		facts = append(facts, row{"Condition", inst.Cond.String()})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", res.Prefix())
	rows := []row{{"Mode", mode.String()}, {"Format", format}}
	rows = append(rows, facts...)
	if reason != "" {
		rows = append(rows, row{"Unpredictable", reason})
	}
	rows = append(rows, row{"Result", "`" + res.Text + "`"})
	table(&b, "Property", rows)

	if fields := argFields(args); len(fields) > 0 {
		b.WriteString("## Fields\n\n")
		table(&b, "Field", fields)
	}
	return b.String(), nil
}

func table(b *strings.Builder, head string, rows []row) {
	fmt.Fprintf(b, "| %s | Value |\n|---|---|\n", head)
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r.key, strings.ReplaceAll(r.value, "|", "\\|"))
	}
	b.WriteString("\n")
}

// argFields lists the exported fields of a decoded argument struct.
func argFields(args any) []row {
	v := reflect.ValueOf(args)
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return nil
	}
	var rows []row
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		rows = append(rows, row{f.Name, fieldValue(v.Field(i))})
	}
	return rows
}

func fieldValue(v reflect.Value) string {
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	switch v.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return fmt.Sprintf("%#x", v.Uint())
	case reflect.Struct:
		return fmt.Sprintf("%+v", v.Interface())
	}
	return fmt.Sprint(v.Interface())
}
