package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

func newFollowCmd(a *app) *cobra.Command {
	var (
		fromStart bool
		once      bool
	)
	cmd := &cobra.Command{
		Use:   "follow <file>",
		Short: "Disassemble words appended to a file",
		Long: `Tail a text file and disassemble every whitespace-separated word on each
new line, for example a trace written by an emulator or logic analyser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := tail.Config{
				Follow:    !once,
				ReOpen:    !once,
				MustExist: true,
				Logger:    tail.DiscardingLogger,
			}
			if !fromStart && !once {
				cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
			}

			t, err := tail.TailFile(args[0], cfg)
			if err != nil {
				return fmt.Errorf("tail %s: %w", args[0], err)
			}
			defer t.Cleanup()
			defer t.Stop()

			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-t.Lines:
					if !ok {
						return t.Wait()
					}
					if line.Err != nil {
						a.logger.Warn("Tail error", "file", args[0], "err", line.Err)
						continue
					}
					if tokens := strings.Fields(line.Text); len(tokens) > 0 {
						a.writeTokens(cmd, tokens, a.mode())
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "Process existing lines before following")
	cmd.Flags().BoolVar(&once, "once", false, "Read the file once and exit instead of following")
	return cmd
}
