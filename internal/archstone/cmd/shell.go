package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"archstone/internal/archstone/styles"
)

func newShellCmd(a *app) *cobra.Command {
	var tui bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive read-disassemble-print loop",
		Long: `Read one word per line and print its disassembly. "exit" or "quit"
ends the shell, ":arm" and ":thumb" switch the instruction set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd, tui)
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "Full-screen shell with scrollback (terminal only)")
	return cmd
}

func (a *app) newSession(w io.Writer) *session {
	return &session{
		mode:      a.mode(),
		style:     a.style(),
		reference: a.reference,
		color:     a.color(w),
	}
}

func (a *app) runShell(cmd *cobra.Command, tui bool) error {
	out := cmd.OutOrStdout()
	s := a.newSession(out)

	if tui {
		if !term.IsTerminal(os.Stdin.Fd()) || !term.IsTerminal(os.Stdout.Fd()) {
			a.logger.Warn("--tui needs a terminal, using the line shell")
		} else {
			return runTUI(cmd.Context(), s)
		}
	}
	return runLoop(cmd.InOrStdin(), out, s)
}

// runLoop prompts with "> " and evaluates lines until exit, quit or EOF.
func runLoop(in io.Reader, out io.Writer, s *session) error {
	fmt.Fprintln(out, s.Banner())

	prompt := "> "
	if s.color {
		prompt = styles.Prompt.Render(">") + " "
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text, quit := s.Eval(scanner.Text())
		if quit {
			return nil
		}
		if text != "" {
			fmt.Fprintln(out, text)
		}
	}
}
