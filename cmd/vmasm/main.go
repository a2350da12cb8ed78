// Command vmasm assembles GoCPU source into a binary image and an
// optional symbol file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vmasm/pkg/asm"
	"vmasm/pkg/utils"
)

type assembleOptions struct {
	output    string
	symfile   string
	whitelist string
	stdout    bool
	dumpAST   bool
}

func newRootCmd() *cobra.Command {
	var opts assembleOptions
	root := &cobra.Command{
		Use:   "vmasm FILE",
		Short: "Assembler for the GoCPU 16-bit virtual machine",
		Long: `Vmasm assembles one source file into a flat binary image loaded at
address 0, and optionally writes a symbol file with one "NAME -> ADDRESS"
line per label.

FILE may be "-" to read the source from standard input. With -w, every
instruction must appear in the whitelist, a JSON array of mnemonics such
as ["MOV", "ADD"]. Nothing is written when assembly fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(cmd, args[0], &opts)
		},
	}

	f := root.Flags()
	f.StringVarP(&opts.output, "output", "o", "out.bin", "binary output `path`")
	f.StringVarP(&opts.symfile, "symfile", "s", "", "write the symbol text to `path`")
	f.StringVarP(&opts.whitelist, "whitelist", "w", "", "JSON whitelist of permitted mnemonics")
	f.BoolVar(&opts.stdout, "stdout", false, "write the binary to standard output instead of a file")
	f.BoolVar(&opts.dumpAST, "dump-ast", false, "pretty-print the parsed program and its symbols to standard error")

	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newBatchCmd(), newServeCmd(), newDisasmCmd())
	return root
}

// compileError renders an assembler error together with the offending
// source line.
type compileError struct {
	err error
	src string
}

func (e *compileError) Error() string { return asm.FormatError(e.err, e.src) }
func (e *compileError) Unwrap() error { return e.err }

func loadWhitelist(path string) (*asm.Whitelist, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	wl, err := asm.ParseWhitelist(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if unknown := wl.Unknown(); len(unknown) > 0 {
		glog.Warningf("%s: not instructions: %s", path, strings.Join(unknown, ", "))
	}
	return wl, nil
}

func colorEnabled(w any) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func runAssemble(cmd *cobra.Command, path string, opts *assembleOptions) error {
	data, err := utils.ReadSource(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	src := string(data)

	wl, err := loadWhitelist(opts.whitelist)
	if err != nil {
		return err
	}

	if opts.dumpAST {
		prog, err := asm.Parse(src)
		if err != nil {
			return &compileError{err, src}
		}
		asm.DumpProgram(cmd.ErrOrStderr(), prog, colorEnabled(cmd.ErrOrStderr()))
	}

	out, err := asm.Compile(src, wl)
	if err != nil {
		return &compileError{err, src}
	}
	if opts.dumpAST {
		asm.DumpSymbols(cmd.ErrOrStderr(), out.Table, colorEnabled(cmd.ErrOrStderr()))
	}

	if opts.stdout {
		if _, err := cmd.OutOrStdout().Write(out.Binary); err != nil {
			return err
		}
	} else if err := utils.WriteFile(opts.output, out.Binary); err != nil {
		return err
	}
	if opts.symfile != "" {
		if err := utils.WriteFile(opts.symfile, []byte(out.Symbols)); err != nil {
			return err
		}
	}

	name, _, _ := utils.GetPathInfo(path)
	glog.V(1).Infof("%s: %d bytes, %d symbols", name, len(out.Binary), out.Table.Len())
	return nil
}

func main() {
	// glog writes to files by default; a command line tool logs to stderr.
	flag.Set("logtostderr", "true")
	flag.CommandLine.Parse(nil)

	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
