// Command sysyc compiles SysY source to textual Koopa IR or RISC-V 32-bit
// assembly. run() is kept separate from main() so the stage pipeline
// (read source -> lex/parse -> build raw IR -> print or lower to
// assembly) is a single-threaded, synchronous function of its input with
// no backgrounded output writer: a compilation either produces its whole
// output or fails, never partially.
package main

import (
	"fmt"
	"os"

	"sysyc/src/frontend"
	"sysyc/src/koopa"
	"sysyc/src/riscv"
	"sysyc/src/util"
)

// run executes the compiler pipeline described by opt and returns the
// generated text, or an error tagged with the stage it occurred in.
func run(opt util.Options) (string, error) {
	src, err := util.ReadSource(opt)
	if err != nil {
		return "", fmt.Errorf("could not read source: %s", err)
	}

	if opt.TokenStream {
		out, err := frontend.TokenStream(src)
		if err != nil {
			return "", fmt.Errorf("lex error: %s", err)
		}
		return out, nil
	}

	cu, err := frontend.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse error: %s", err)
	}

	prog, err := koopa.EmitCompUnit(cu)
	if err != nil {
		return "", fmt.Errorf("ir error: %s", err)
	}

	if opt.Verbose {
		fmt.Fprintln(os.Stderr, koopa.Print(prog))
	}

	switch opt.Mode {
	case util.ModeKoopa:
		return koopa.Print(prog), nil
	case util.ModeRiscv:
		return riscv.Gen(prog), nil
	default:
		return "", fmt.Errorf("unknown mode %q", opt.Mode)
	}
}

func main() {
	opt, err := util.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("argument error: %s\n", err)
		os.Exit(1)
	}

	out, err := run(opt)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}

	if err := util.WriteOutput(opt, out); err != nil {
		fmt.Printf("could not write output: %s\n", err)
		os.Exit(1)
	}
}
