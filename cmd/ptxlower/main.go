// Package main implements the ptxlower entry point: it lowers the global
// constructor/destructor metadata of LLVM IR modules for the NVPTX target.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"golang.org/x/sync/errgroup"

	"github.com/nvtools/ptxlower/internal/lower"
	"github.com/nvtools/ptxlower/internal/passes"
	"github.com/nvtools/ptxlower/internal/watch"
)

// Tool flags
var (
	output      = flag.String("o", "", "Output file (single input only; default stdout)")
	globalID    = flag.String("id", "", "Override unique ID of ctor/dtor globals")
	emitKernels = flag.Bool("emit-kernels", true, "Emit kernels to call ctor/dtor globals")
	dumpBefore  = flag.String("dump-before", "", "Dump IR before pass (name or \"*\")")
	dumpAfter   = flag.String("dump-after", "", "Dump IR after pass (name or \"*\")")
	verify      = flag.Bool("verify", false, "Verify the module before and after each pass")
	jobs        = flag.Int("jobs", runtime.GOMAXPROCS(0), "Number of files to process concurrently")
	watchMode   = flag.Bool("watch", false, "Re-run lowering whenever an input file changes")
	version     = flag.Bool("version", false, "Print version")
)

// Version information
const Version = "0.1.0-dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ptxlower %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: ptxlower [options] <file.ll>...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("ptxlower version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "error: no input file")
		fmt.Fprintln(os.Stderr, "usage: ptxlower [options] <file.ll>...")
		os.Exit(1)
	}
	if *output != "" && len(files) > 1 {
		fmt.Fprintln(os.Stderr, "error: -o is only valid with a single input file")
		os.Exit(1)
	}

	if *watchMode {
		os.Exit(runWatch(files))
	}
	os.Exit(runOnce(files))
}

// runOnce lowers every input file, concurrently when there are several.
func runOnce(files []string) int {
	if len(files) == 1 {
		if err := lowerFile(files[0], *output); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	g := new(errgroup.Group)
	g.SetLimit(*jobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := lowerFile(file, loweredName(file)); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return err
			}
			return nil
		})
	}
	if g.Wait() != nil {
		return 1
	}
	return 0
}

// runWatch lowers the input files, then re-lowers a file whenever it
// changes, until the process is interrupted.
func runWatch(files []string) int {
	w, err := watch.New(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: watch: %v\n", err)
		return 1
	}
	defer w.Close()

	runOnce(files)
	fmt.Fprintf(os.Stderr, "ptxlower: watching %d file(s)\n", len(files))
	for {
		select {
		case path, ok := <-w.Events:
			if !ok {
				return 0
			}
			fmt.Fprintf(os.Stderr, "ptxlower: changed: %s\n", path)
			if err := lowerFile(path, outputFor(path, len(files))); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case err := <-w.Errors:
			fmt.Fprintf(os.Stderr, "error: watch: %v\n", err)
		}
	}
}

// outputFor resolves the output path for one input, matching runOnce's
// behavior for single and multiple inputs.
func outputFor(path string, numInputs int) string {
	if numInputs == 1 {
		return *output
	}
	return loweredName(path)
}

// lowerFile parses one .ll file, runs the lowering pipeline on it, and
// writes the resulting module to outPath (stdout when empty).
func lowerFile(path, outPath string) error {
	m, err := asm.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if m.SourceFilename == "" {
		m.SourceFilename = path
	}

	pipeline := []passes.Pass{
		lower.Pass(lower.Options{GlobalID: *globalID, EmitKernels: *emitKernels}),
	}
	cfg := passes.Config{
		DumpBefore: *dumpBefore,
		DumpAfter:  *dumpAfter,
		Verify:     *verify,
	}
	if _, err := passes.Run(m, pipeline, cfg); err != nil {
		return fmt.Errorf("lower %s: %w", path, err)
	}
	return writeModule(m, outPath)
}

// writeModule prints m to outPath, or to stdout when outPath is empty.
func writeModule(m *ir.Module, outPath string) error {
	if outPath == "" {
		_, err := io.WriteString(os.Stdout, m.String())
		return err
	}
	return os.WriteFile(outPath, []byte(m.String()), 0o644)
}

// loweredName returns the output path used when lowering several inputs at
// once: foo.ll becomes foo.lowered.ll.
func loweredName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".lowered" + ext
}
