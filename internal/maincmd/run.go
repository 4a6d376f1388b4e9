package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/loxlang/loxvm/lang/compiler"
	"github.com/loxlang/loxvm/lang/machine"
)

// runFile compiles and executes the script at path, returning the exit
// code assigned to each failure mode.
func (c *Cmd) runFile(ctx context.Context, stdio mainer.Stdio, path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "Error reading file '%s': %s\n", path, err)
		return ExitIOErr
	}

	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr

	fn, errs := compiler.Compile(vm, string(src))
	if errs != nil {
		for _, e := range errs {
			fmt.Fprintln(stdio.Stderr, e)
		}
		return ExitDataErr
	}

	if err := vm.Run(fn); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return ExitSoftware
	}
	return 0
}

// repl runs an interactive read-eval-print loop over stdio, one line of
// source compiled and executed at a time against a single long-lived VM
// so that global and class declarations persist across lines.
func (c *Cmd) repl(ctx context.Context, stdio mainer.Stdio) int {
	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr

	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return 0
		}
		line := scan.Text()

		fn, errs := compiler.Compile(vm, line)
		if errs != nil {
			for _, e := range errs {
				fmt.Fprintln(stdio.Stderr, e)
			}
			continue
		}
		if err := vm.Run(fn); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
		}
	}
}
