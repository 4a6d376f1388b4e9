package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/loxlang/loxvm/lang/compiler"
	"github.com/loxlang/loxvm/lang/machine"
)

// disasm compiles the script at the single path in args without running
// it, and prints a full bytecode listing: the top-level chunk followed
// by every nested function's chunk, discovered by walking constant
// pools recursively.
func (c *Cmd) disasm(ctx context.Context, stdio mainer.Stdio, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(stdio.Stderr, "disasm: expected exactly one path\n%s", shortUsage)
		return ExitUsage
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "Error reading file '%s': %s\n", args[0], err)
		return ExitIOErr
	}

	vm := machine.New()
	fn, errs := compiler.Compile(vm, string(src))
	if errs != nil {
		for _, e := range errs {
			fmt.Fprintln(stdio.Stderr, e)
		}
		return ExitDataErr
	}

	disassembleRecursive(fn, stdio.Stdout)
	return 0
}

func disassembleRecursive(fn *machine.Function, w io.Writer) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	fmt.Fprint(w, fn.Chunk.Disassemble(name))

	for _, constant := range fn.Chunk.Constants {
		if !constant.IsObj() {
			continue
		}
		if child, ok := constant.AsObj().(*machine.Function); ok {
			disassembleRecursive(child, w)
		}
	}
}
