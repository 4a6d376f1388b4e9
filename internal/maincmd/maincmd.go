// Package maincmd implements the loxvm command line: a REPL when run
// with no arguments, a script runner when given a single file path, and
// a disasm subcommand for inspecting compiled bytecode.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "loxvm"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [path]
       %[1]s disasm <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [path]
       %[1]s disasm <path>
       %[1]s -h|--help
       %[1]s -v|--version

A bytecode compiler and virtual machine for Lox.

Run with no path to start an interactive REPL. Run with a single script
path to compile and execute it. Run 'disasm <path>' to compile a script
and print its bytecode listing instead of executing it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Exit codes follow the BSD sysexits.h conventions:
// 64 for a command line usage error, 65 for a compile-time data error,
// 70 for an internal/runtime software error, 74 for an I/O error.
const (
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitSoftware = 70
	ExitIOErr    = 74
)

// Cmd is the loxvm command line entry point, structured after mainer's
// flag-tag-driven argument binding.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	flags map[string]bool
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }
func (c *Cmd) Validate() error                { return nil }

// Main parses arguments, dispatches to the REPL, file runner or disasm
// subcommand, and returns a process exit code. It returns a plain int
// rather than a mainer.ExitCode because the exit codes this program uses
// (64/65/70/74) fall outside that type's small enumerated range.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) int {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return 0
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return 0
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) > 0 && c.args[0] == "disasm" {
		return c.disasm(ctx, stdio, c.args[1:])
	}

	switch len(c.args) {
	case 0:
		return c.repl(ctx, stdio)
	case 1:
		return c.runFile(ctx, stdio, c.args[0])
	default:
		fmt.Fprint(stdio.Stderr, shortUsage)
		return ExitUsage
	}
}
