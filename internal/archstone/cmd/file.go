package cmd

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archstone/internal/disasm"
	"archstone/internal/isa"
)

func newFileCmd(a *app) *cobra.Command {
	var (
		base      string
		bigEndian bool
	)
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Linear sweep of a raw binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := ParseToken(base)
			if err == nil {
				err = isa.CheckRange(addr, 32)
			}
			if err != nil {
				return fmt.Errorf("--base: %w", err)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			cfg := disasm.SweepConfig{Base: uint32(addr), Mode: a.mode(), Style: a.style()}
			if bigEndian {
				cfg.Order = binary.BigEndian
			}
			out := cmd.OutOrStdout()
			for _, inst := range disasm.Sweep(data, cfg) {
				if a.reference && inst.Mode == disasm.ModeARM && !inst.Data() {
					fmt.Fprintf(out, "%-44s ; %s\n", inst.Line(), Reference(inst.Raw))
					continue
				}
				fmt.Fprintln(out, inst.Line())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "0", "Load address of the first byte")
	cmd.Flags().BoolVar(&bigEndian, "big-endian", false, "Words are big endian")
	return cmd
}
