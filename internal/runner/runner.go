// Package runner implements Fen's two command-line modes (spec.md §6): run a
// script file, with a root directory derived from its path used to resolve
// relative imports, or an interactive line loop reading stdin until the user
// types "quit". It depends only on io.Reader/io.Writer rather than on
// mainer.Stdio directly, so internal/maincmd is the only place that has to
// know that shape.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/corelib"
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// stdoutWriter adapts an io.Writer to vm.VM.Stdout's WriteString-only
// contract (lang/vm's Stdout field exists so corelib's System primitives
// never import "io" themselves).
type stdoutWriter struct{ w io.Writer }

func (s stdoutWriter) WriteString(str string) (int, error) { return io.WriteString(s.w, str) }

// newVM builds a VM with the core library installed and Stdout wired to out.
func newVM(out io.Writer) (*vm.VM, *corelib.Core, error) {
	v := vm.New()
	v.Stdout = stdoutWriter{out}
	core, err := corelib.Install(v)
	if err != nil {
		return nil, nil, fmt.Errorf("installing core library: %w", err)
	}
	return v, core, nil
}

// RunFile compiles and runs the script at path (spec.md §6: "one argument:
// run it as a script file"). Relative imports resolve against path's
// containing directory.
func RunFile(ctx context.Context, stdout, stderr io.Writer, path string) error {
	v, core, err := newVM(stdout)
	if err != nil {
		return err
	}
	v.Import = newImporter(v, core, filepath.Dir(path))

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", path, err)
		return err
	}

	mod := object.NewModule(moduleName(path))
	core.Inject(mod)
	fn, err := compiler.Compile(path, src, mod, v.MethodNames)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return err
	}

	closure := v.NewClosure(fn)
	if _, err := v.Run(closure, object.Null(), nil); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return err
	}
	return nil
}

// REPL reads lines from stdin until the literal line "quit" (spec.md §6:
// "zero arguments: interactive line loop"). Each line compiles and runs as
// its own top-level chunk against one persistent module, so var declarations
// and define'd functions from earlier lines stay visible to later ones
// (compiler.Compile is safe to call repeatedly against the same module).
func REPL(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	v, core, err := newVM(stdout)
	if err != nil {
		return err
	}
	if wd, err := os.Getwd(); err == nil {
		v.Import = newImporter(v, core, wd)
	}

	mod := object.NewModule("repl")
	core.Inject(mod)

	scanner := bufio.NewScanner(stdin)
	fmt.Fprint(stdout, "> ")
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "quit" {
			return nil
		}
		if line == "" {
			fmt.Fprint(stdout, "> ")
			continue
		}

		fn, err := compiler.Compile("<repl>", []byte(line), mod, v.MethodNames)
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			fmt.Fprint(stdout, "> ")
			continue
		}

		closure := v.NewClosure(fn)
		result, err := v.Run(closure, object.Null(), nil)
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		} else if !result.IsNull() {
			fmt.Fprintln(stdout, result.String())
		}
		fmt.Fprint(stdout, "> ")
	}
	return scanner.Err()
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
