// Package main implements the kagi dictionary code generator.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/you-not-fish/kagi/internal/codegen"
	"github.com/you-not-fish/kagi/internal/config"
	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/llvm"
)

// Generator flags
var (
	configPath = flag.String("config", "", "Configuration file (default: no dictionaries)")
	output     = flag.String("o", "", "Output file")
	emitLL     = flag.Bool("emit-ll", false, "Output LLVM IR (default)")
	emitIR     = flag.Bool("emit-ir", false, "Output the debug IR form")
	check      = flag.Bool("check", false, "Run dictionary scenarios in the interpreter")
	verbose    = flag.Bool("v", false, "Verbose logging")
	doctor     = flag.Bool("doctor", false, "Check toolchain")
	version    = flag.Bool("version", false, "Print version")
)

// Version information
const Version = "0.1.0-dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Kagi Dictionary Generator %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: kagic [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("kagic version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	if *doctor {
		os.Exit(runDoctor())
	}

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "error: unexpected argument %q\n", flag.Arg(0))
		fmt.Fprintln(os.Stderr, "usage: kagic [options]")
		os.Exit(1)
	}
	if *emitLL && *emitIR {
		fmt.Fprintln(os.Stderr, "error: -emit-ll and -emit-ir are mutually exclusive")
		os.Exit(1)
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	codegen.SetLogger(log)

	var code int
	if *check {
		code = runCheck(*configPath, log)
	} else {
		code = runEmit(*configPath)
	}
	_ = log.Sync()
	os.Exit(code)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// loadConfig reads path, or returns the default configuration when path
// is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// internalError is a panic raised while generating code.
type internalError struct {
	val interface{}
}

func (e *internalError) Error() string {
	return fmt.Sprintf("internal compiler error: %v", e.val)
}

// buildModule generates every configured entry point and verifies the
// result.
func buildModule(cfg *config.Config) (*ir.Module, error) {
	return generate(cfg, func(env *codegen.Env) {
		for i := range cfg.Dicts {
			d := &cfg.Dicts[i]
			for _, op := range d.Operations() {
				env.DefineEntry(d.Name, op, d.KeyLayout(), d.ValueLayout())
			}
		}
	})
}

// generate creates a module for cfg's target with the runtime declared,
// lets define add entry points, and verifies it. A codegen panic is
// returned as an *internalError.
func generate(cfg *config.Config, define func(env *codegen.Env)) (mod *ir.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			mod, err = nil, &internalError{val: r}
		}
	}()

	sizes := cfg.Sizes()
	mod = ir.NewModule(cfg.Codegen.Module, &ir.TargetData{PtrBytes: cfg.Target.PointerWidth})
	mod.Triple = cfg.Target.Triple
	mod.DataLayout = cfg.Target.DataLayout
	codegen.DeclareRuntime(mod, sizes)
	define(codegen.NewEnv(mod, sizes))

	if err := ir.VerifyModule(mod); err != nil {
		return nil, fmt.Errorf("verification failed:\n%w", err)
	}
	return mod, nil
}

// runEmit generates the configured module and writes it to -o or stdout.
func runEmit(path string) int {
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	mod, err := buildModule(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		if _, ok := err.(*internalError); ok {
			return 2
		}
		return 1
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		defer f.Close()
		w = f
	}

	if *emitIR {
		ir.FprintModule(w, mod)
		return 0
	}
	if err := llvm.WriteModule(w, mod, llvm.Options{DebugComments: cfg.Codegen.DebugComments}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runDoctor checks the toolchain used to consume generated IR.
func runDoctor() int {
	fmt.Println("Kagi Toolchain Doctor")
	fmt.Println("=====================")
	fmt.Println()

	fmt.Printf("Go:      %s\n", runtime.Version())

	allOk := true
	clangVersion, clangOk := checkTool("clang", "--version")
	fmt.Printf("clang:   %s", clangVersion)
	if clangOk {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" ✗ (not found)")
		allOk = false
	}

	llvmAsVersion, llvmAsOk := checkTool("llvm-as", "--version")
	fmt.Printf("llvm-as: %s", llvmAsVersion)
	if llvmAsOk {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" (optional, not found)")
	}

	fmt.Println()
	if allOk {
		fmt.Println("All required tools available!")
		return 0
	}
	fmt.Println("Some required tools are missing.")
	return 1
}

// checkTool runs a tool with the given arguments and returns the first line of output.
func checkTool(name string, args ...string) (string, bool) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", false
	}
	line, _, _ := strings.Cut(string(out), "\n")
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line, true
}
