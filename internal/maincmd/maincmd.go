// Package maincmd wires mainer's flag parsing and Stdio onto internal/runner
// (spec.md §6, "CLI surface"). Fen's surface has only two modes rather than
// the teacher's per-phase subcommands, so Main branches directly on whether a
// script path was given instead of reflection-dispatching to a subcommand.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/fen/internal/runner"
)

const binName = "fen"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

With no <path>, starts an interactive line loop reading statements from
standard input until a line containing just "quit". With <path>, compiles
and runs that file as a script; imports in the script resolve relative to
its containing directory.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one script path may be provided")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	var err error
	if len(c.args) == 1 {
		err = runner.RunFile(ctx, stdio.Stdout, stdio.Stderr, c.args[0])
	} else {
		err = runner.REPL(ctx, stdio.Stdin, stdio.Stdout, stdio.Stderr)
	}
	if err != nil {
		return mainer.Failure
	}
	return mainer.Success
}
