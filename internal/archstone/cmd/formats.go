package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"archstone/internal/arm"
	"archstone/internal/disasm"
	"archstone/internal/thumb"
)

func newFormatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "Print the format classification table",
		Long:  "Print the mask/value templates in match order. The first matching template wins.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			writeFormats(cmd.OutOrStdout(), a.mode())
		},
	}
}

func writeFormats(w io.Writer, mode disasm.Mode) {
	if mode == disasm.ModeThumb {
		fmt.Fprintf(w, "%-6s %-6s %s\n", "MASK", "VALUE", "FORMAT")
		for _, t := range thumb.Templates() {
			fmt.Fprintf(w, "%04X   %04X   %s\n", t.Mask, t.Value, t.Format)
		}
		return
	}
	fmt.Fprintf(w, "%-10s %-10s %s\n", "MASK", "VALUE", "FORMAT")
	for _, t := range arm.Templates() {
		fmt.Fprintf(w, "%08X   %08X   %s\n", t.Mask, t.Value, t.Format)
	}
}
