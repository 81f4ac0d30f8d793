package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"archstone/internal/elfx"
	"archstone/internal/listing"
	"archstone/internal/ui/colorize"
)

func newElfCmd(a *app) *cobra.Command {
	var (
		symbol  string
		section string
		max     int
		info    bool
	)
	cmd := &cobra.Command{
		Use:   "elf <file>",
		Short: "Annotated listing of an ARM ELF file",
		Long: `List a section or one function of a 32-bit ARM ELF file. Mapping symbols
select ARM, Thumb or data; branches and literal loads are annotated with the
symbols and values they reference.`,
		Example: `
# Whole .text section
archstone elf firmware.elf

# One function, at most 200 instructions
archstone elf firmware.elf --symbol main --max 200

# Entry point, sections and PLT stubs
archstone elf firmware.elf --info
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := elfx.Open(args[0])
			if err != nil {
				return err
			}
			defer img.Close()
			slog.Debug("Opened image", "path", img.Path, "sections", len(img.Sections), "symbols", len(img.Syms), "mapping", len(img.Maps))
			if len(img.Maps) == 0 {
				a.logger.Warn("No mapping symbols; instruction set follows symbol Thumb bits", "file", args[0])
			}
			if info {
				writeInfo(cmd.OutOrStdout(), img, a.cfg.DemangleNames())
				return nil
			}

			if !cmd.Flags().Changed("max") && a.cfg.MaxInstructions > 0 {
				max = a.cfg.MaxInstructions
			}
			opts := listing.Options{Style: a.style(), Demangle: a.cfg.DemangleNames()}

			var lines []listing.Line
			if symbol != "" {
				lines, err = listing.Function(img, symbol, max, opts)
				if err != nil {
					return err
				}
			} else {
				sec, ok := img.Section(section)
				if !ok {
					return fmt.Errorf("section %s not found in %s", section, args[0])
				}
				lines = listing.Build(img, sec, opts)
			}

			writeListing(cmd.OutOrStdout(), lines, a.color(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "List only this function (mangled, demangled or name@plt)")
	cmd.Flags().StringVar(&section, "section", ".text", "Section to list")
	cmd.Flags().IntVar(&max, "max", listing.MaxInstructions, "Instruction limit for --symbol")
	cmd.Flags().BoolVar(&info, "info", false, "Print the entry point, sections and PLT stubs instead of a listing")
	return cmd
}

func writeListing(w io.Writer, lines []listing.Line, color bool) {
	if color {
		fmt.Fprint(w, colorize.Listing(lines))
		return
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// writeInfo prints the entry point, the allocated sections with their symbol
// counts, and the recovered PLT stubs.
func writeInfo(w io.Writer, img *elfx.Image, demangle bool) {
	name := func(s elfx.Sym) string {
		if demangle {
			return listing.Demangle(s.Name)
		}
		return s.Name
	}

	entry := fmt.Sprintf("entry     %08x", img.Entry)
	if sym, off, ok := img.SymbolAt(img.Entry &^ 1); ok && off == 0 {
		entry += fmt.Sprintf(" <%s>", name(sym))
	}
	fmt.Fprintln(w, entry)

	fmt.Fprintln(w, "sections")
	for _, sec := range img.Sections {
		kind := "data"
		if sec.Exec {
			kind = "exec"
		}
		fmt.Fprintf(w, "  %-12s %08x %8x  %s  %d symbols\n", sec.Name, sec.VA, sec.Size, kind, len(img.SymbolsIn(sec)))
	}

	if len(img.PLTStubs) == 0 {
		return
	}
	fmt.Fprintln(w, "plt")
	for _, stub := range img.PLTStubs {
		target := stub.Name
		if target == "" {
			target = "?"
		}
		fmt.Fprintf(w, "  %08x  %-20s got %08x\n", stub.Addr, target, stub.GOTAddr)
	}
}
