// Command vslcc drives the bytecode-to-target-assembly compiler core (spec.md §6): read a
// class-file view, compile every method, and write resolved assembly text. Flag parsing follows
// oisee-z80-optimizer/cmd/z80opt/main.go's root-cobra.Command-plus-local-flag-vars shape; the
// teacher's own util/args.go hand-rolled parser is not reused here (see DESIGN.md).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dantebarton/CS451/classfile"
	"github.com/dantebarton/CS451/compiler"
	"github.com/dantebarton/CS451/target"
	"github.com/dantebarton/CS451/util"
	"github.com/spf13/cobra"
)

func main() {
	var out string
	var threads int
	var strategy string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "vslcc [source]",
		Short: "Compile a class-file view to 16-register target assembly",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := util.Options{Out: out, Threads: threads, Verbose: verbose}
			switch strategy {
			case "naive":
				opt.Strategy = util.StrategyNaive
			case "graph", "":
				opt.Strategy = util.StrategyGraph
			default:
				return fmt.Errorf("unexpected register allocation strategy: %s", strategy)
			}
			if len(args) == 1 {
				opt.Src = args[0]
			}
			if threads < 0 || threads > util.MaxThreads {
				return fmt.Errorf("thread count must be in range [0, %d]", util.MaxThreads)
			}
			return run(opt)
		},
	}
	rootCmd.Flags().StringVarP(&out, "out", "o", "", "Destination directory for emitted assembly")
	rootCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Number of methods to compile in parallel (0 = sequential)")
	rootCmd.Flags().StringVar(&strategy, "strategy", "graph", "Register allocation strategy: 'naive' or 'graph'")
	rootCmd.Flags().BoolVarP(&verbose, "vb", "v", false, "Verbose flag (accepted; produces no extra output)")

	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// run reads opt.Src (or stdin), compiles every method and writes the resolved assembly text,
// following main.go's run()'s stage sequencing and ListenWrite/Writer/Close output plumbing.
func run(opt util.Options) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source: %s", err)
	}
	cls, err := classfile.FromJSON(src)
	if err != nil {
		return fmt.Errorf("could not parse class-file view: %s", err)
	}

	// One method's failure never aborts the others (spec.md §7): compileErr, if non-nil, still
	// gets surfaced below so the process exits nonzero, but whatever did compile is rendered.
	prog, compileErr := compiler.CompileAll(cls, opt)

	wg := sync.WaitGroup{}
	if len(opt.Out) > 0 {
		if err := os.MkdirAll(opt.Out, 0755); err != nil {
			return fmt.Errorf("could not create destination directory %q: %s", opt.Out, err)
		}
		dst := filepath.Join(opt.Out, outputName(opt.Src))
		f, err := os.OpenFile(dst, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("could not open destination %q: %s", dst, err)
		}
		defer f.Close()
		util.ListenWrite(opt, f, &wg)
	} else {
		util.ListenWrite(opt, nil, &wg)
	}
	defer util.Close()

	if prog != nil {
		w := util.NewWriter()
		target.Render(&w, prog)
		w.Close()
	}

	wg.Wait()
	return compileErr
}

// outputName derives the emitted assembly file's name from the source path, per spec.md §6's "one
// [file] per input source file": the source's base name with its extension swapped for ".s", or
// "out.s" when compiling from stdin.
func outputName(src string) string {
	if src == "" {
		return "out.s"
	}
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".s"
}
