package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/corelib"
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// newImporter returns a vm.VM.Import implementation resolving module paths
// relative to root (spec.md §6, "root directory derived from the path for
// relative imports"). A path already imported is compiled a second time as
// an empty chunk against its already-populated module, rather than
// recompiling and rerunning its original source, so String.import_'s
// v.Run of the returned Fn is a harmless no-op: the module's variables were
// already declared and initialized the first time through.
func newImporter(v *vm.VM, core *corelib.Core, root string) func(string) (*object.Fn, error) {
	return func(path string) (*object.Fn, error) {
		full := filepath.Join(root, path)
		if !strings.HasSuffix(full, ".fen") {
			full += ".fen"
		}

		if mod, ok := v.Modules[full]; ok {
			return compiler.Compile(full, []byte{}, mod, v.MethodNames)
		}

		src, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", path, err)
		}

		mod := object.NewModule(moduleName(full))
		core.Inject(mod)
		v.Modules[full] = mod

		return compiler.Compile(full, src, mod, v.MethodNames)
	}
}
