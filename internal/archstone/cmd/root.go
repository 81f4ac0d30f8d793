// Package cmd implements the archstone command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	archlog "archstone/internal/archstone/log"
	"archstone/internal/config"
	"archstone/internal/disasm"
	"archstone/internal/isa"
	"archstone/internal/logging"
	"archstone/internal/ui/colorize"
)

// app carries the global flags and the loaded configuration.
type app struct {
	configPath string
	debug      bool
	arch       string
	lower      bool
	aliases    bool
	collapse   bool
	reference  bool

	cfg    config.Config
	logger *logging.LoggerCloser
}

// load reads the configuration and lets explicitly set flags override it.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("arch") {
		cfg.Arch = a.arch
	}
	if flags.Changed("lower") {
		cfg.LowerCase = a.lower
	}
	if flags.Changed("aliases") {
		cfg.Aliases = a.aliases
	}
	if flags.Changed("collapse-ranges") {
		cfg.CollapseRanges = a.collapse
	}
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.NoColor {
		os.Setenv(colorize.EnvNoColor, "1")
	}
	if logging.IsDebug() {
		cfg.Debug = true
	}
	a.cfg = cfg

	archlog.Setup(cmd.ErrOrStderr(), cfg.Debug)
	if cfg.Debug {
		os.Setenv(logging.EnvLevel, "debug")
	}
	if os.Getenv(logging.EnvToFile) == "1" {
		a.logger = logging.NewLogger()
	} else {
		a.logger = logging.NewLoggerWithWriter(cmd.ErrOrStderr())
	}
	slog.Debug("Configuration loaded", "arch", cfg.Mode(), "style", fmt.Sprintf("%+v", cfg.Style()))
	return nil
}

func (a *app) mode() disasm.Mode { return a.cfg.Mode() }
func (a *app) style() isa.Style  { return a.cfg.Style() }

// color reports whether output to w should be coloured.
func (a *app) color(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd()) && colorize.Enabled()
}

// writeTokens disassembles each token on its own line. Bad tokens are
// reported on stderr and do not stop the batch.
func (a *app) writeTokens(cmd *cobra.Command, tokens []string, mode disasm.Mode) {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, tok := range tokens {
		res, err := Disassemble(tok, mode, a.style(), a.reference && mode == disasm.ModeARM)
		if err != nil {
			fmt.Fprintln(errOut, errorLine(tok, err))
			continue
		}
		fmt.Fprintln(out, res)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "archstone [word...]",
		Short: "ARMv4T and Thumb-1 disassembler",
		Long: `ArchStone disassembles ARMv4T (ARM7TDMI) instruction words.
Words are read in hex unless prefixed with 0x, 0o or 0b. Without arguments
an interactive shell starts.`,
		Example: `
# Disassemble two ARM words
archstone e0812003 0xe12fff1e

# Disassemble Thumb halfwords with register aliases
archstone --arch thumb --aliases 4770 b510

# Annotated listing of one function
archstone elf firmware.elf --symbol main
  `,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.runShell(cmd, false)
			}
			a.writeTokens(cmd, args, a.mode())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Configuration file (default $ARCHSTONE_CONFIG or ./archstone.json)")
	pf.BoolVarP(&a.debug, "debug", "d", false, "Debug logging")
	pf.StringVarP(&a.arch, "arch", "a", "arm", "Instruction set: arm or thumb")
	pf.BoolVar(&a.lower, "lower", false, "Lower-case output")
	pf.BoolVar(&a.aliases, "aliases", false, "Print sp, lr and pc for r13, r14 and r15")
	pf.BoolVar(&a.collapse, "collapse-ranges", false, "Print register lists as ranges")
	pf.BoolVar(&a.reference, "reference", false, "Add the Go armasm GNU syntax as a cross-check column (ARM only)")

	root.AddCommand(
		newArchCmd(a, disasm.ModeARM),
		newArchCmd(a, disasm.ModeThumb),
		newShellCmd(a),
		newExplainCmd(a),
		newFormatsCmd(a),
		newElfCmd(a),
		newFollowCmd(a),
		newFileCmd(a),
		newSchemaCmd(),
	)
	return root
}

func newArchCmd(a *app, mode disasm.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   mode.String() + " <word...>",
		Short: fmt.Sprintf("Disassemble %s words", mode),
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a.writeTokens(cmd, args, mode)
		},
	}
}

// Execute runs the command line, with fang's styled help and errors on a
// terminal and plain cobra when piped.
func Execute() {
	root := NewRootCmd()

	if !term.IsTerminal(os.Stdout.Fd()) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := root.ExecuteContext(ctx); err != nil {
			stop()
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
