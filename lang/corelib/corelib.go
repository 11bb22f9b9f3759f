// Package corelib binds Fen's built-in classes (spec.md §4.5/§6: Object,
// Class, Bool, Num, String, List, Map, Range, Null, Fn, Thread) onto a
// freshly constructed lang/vm.VM, and runs a short embedded core script that
// defines a handful of top-level helper functions the way the original
// source's core.c loads CORE_MODULE_STR before any user code runs.
//
// Grounded on the C source's buildCore/bindCoreClass sequence
// (_examples/original_source/vm/core.c, objectAndClass/include/class.c):
// allocate the class, bind its primitive table, declare it as a module
// variable. Every primitive here is a Go closure over the *vm.VM it was
// built with, since object.PrimitiveFn only carries the narrow
// object.Scheduler interface (fiber switching) and corelib needs the full
// allocator (NewString/NewList/...) lang/vm exposes instead.
package corelib

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// Core holds what Install built, beyond what's already reachable through
// vm.VM.Classes: the core module's own variables (replayed into every other
// module, spec.md §4.4 "inherits core-module variables") and the
// supplementary System class (never part of object.ClassTable, since no
// value is ever an instance of it).
type Core struct {
	VM     *vm.VM
	Module *object.Module
	System *object.Class
}

// Symbol-text helpers, thin wrappers over compiler.Signature.Text so
// corelib's bindings use the exact same convention the compiler emits
// (see lang/compiler/signature.go).

func getter(name string) string { return compiler.Signature{Kind: compiler.SigGetter, Name: name}.Text() }

func method(name string, arity int) string {
	return compiler.Signature{Kind: compiler.SigMethod, Name: name, Arity: arity}.Text()
}

func setter(name string) string { return compiler.Signature{Kind: compiler.SigSetter, Name: name}.Text() }

func ctor(arity int) string {
	return compiler.Signature{Kind: compiler.SigConstructor, Name: "new", Arity: arity}.Text()
}

func subscript(arity int) string {
	return compiler.Signature{Kind: compiler.SigSubscript, Arity: arity}.Text()
}

func subscriptSetter(arity int) string {
	return compiler.Signature{Kind: compiler.SigSubscriptSetter, Arity: arity}.Text()
}

// bind installs a primitive instance method on cls.
func bind(v *vm.VM, cls *object.Class, symbolText string, fn object.PrimitiveFn) {
	cls.BindMethod(v.MethodNames.Intern(symbolText), object.PrimitiveMethod(fn))
}

// bindStatic installs a primitive static (metaclass) method on cls.
func bindStatic(v *vm.VM, cls *object.Class, symbolText string, fn object.PrimitiveFn) {
	cls.Metaclass().BindMethod(v.MethodNames.Intern(symbolText), object.PrimitiveMethod(fn))
}

// fail sets the current fiber's error to a formatted String and returns
// false, the PrimitiveFn failure contract (spec.md §4.4 step 4a).
func fail(v *vm.VM, format string, args ...any) bool {
	v.CurrentFiber().SetError(object.FromObj(v.NewString(fmt.Sprintf(format, args...))))
	return false
}

// builtinClassNames is every class Install must end up declaring in the
// core module; checked once at the end of Install (see the diff there),
// grounded on SPEC_FULL.md §2's "enriched ... diffing known builtin class
// names at core-library install time" note.
var builtinClassNames = map[string]bool{
	"Object": true, "Class": true, "Bool": true, "Num": true,
	"String": true, "List": true, "Map": true, "Range": true,
	"Null": true, "Fn": true, "Thread": true, "System": true,
}

// Install builds every built-in class on v, binds their primitive methods,
// declares them as module variables of a fresh "core" module, runs the
// embedded core script into that same module, and returns the populated
// Core. Call this exactly once per VM, before compiling or running any
// user module.
func Install(v *vm.VM) (*Core, error) {
	objectClass, classClass := v.Bootstrap()

	mod := object.NewModule("core")
	mod.Declare("Object", object.FromObj(objectClass))
	mod.Declare("Class", object.FromObj(classClass))

	c := &Core{VM: v, Module: mod}

	bindObject(v, objectClass)
	bindClass(v, classClass)

	boolClass := v.NewClass("Bool", objectClass)
	v.Classes.BoolClass = boolClass
	bindBool(v, boolClass)
	mod.Declare("Bool", object.FromObj(boolClass))

	numClass := v.NewClass("Num", objectClass)
	v.Classes.NumClass = numClass
	bindNum(v, numClass)
	mod.Declare("Num", object.FromObj(numClass))

	nullClass := v.NewClass("Null", objectClass)
	v.Classes.NullClass = nullClass
	bindNull(v, nullClass)
	mod.Declare("Null", object.FromObj(nullClass))

	stringClass := v.NewClass("String", objectClass)
	v.Classes.StringClass = stringClass
	bindString(v, stringClass)
	mod.Declare("String", object.FromObj(stringClass))

	listClass := v.NewClass("List", objectClass)
	v.Classes.ListClass = listClass
	bindList(v, listClass)
	mod.Declare("List", object.FromObj(listClass))

	mapClass := v.NewClass("Map", objectClass)
	v.Classes.MapClass = mapClass
	bindMap(v, mapClass)
	mod.Declare("Map", object.FromObj(mapClass))

	rangeClass := v.NewClass("Range", objectClass)
	v.Classes.RangeClass = rangeClass
	bindRange(v, rangeClass)
	mod.Declare("Range", object.FromObj(rangeClass))

	fnClass := v.NewClass("Fn", objectClass)
	v.Classes.FnClass = fnClass
	bindFn(v, fnClass)
	mod.Declare("Fn", object.FromObj(fnClass))

	fiberClass := v.NewClass("Thread", objectClass)
	v.Classes.FiberClass = fiberClass
	bindThread(v, fiberClass)
	mod.Declare("Thread", object.FromObj(fiberClass))

	system := v.NewClass("System", objectClass)
	c.System = system
	bindSystem(v, system)
	mod.Declare("System", object.FromObj(system))

	if missing := missingBuiltins(mod); len(missing) > 0 {
		return nil, fmt.Errorf("corelib: Install did not declare: %s", strings.Join(missing, ", "))
	}

	if err := c.runCoreScript(); err != nil {
		return nil, err
	}
	return c, nil
}

// missingBuiltins diffs builtinClassNames against what mod actually ended
// up declaring, sorted for a deterministic error message.
func missingBuiltins(mod *object.Module) []string {
	want := maps.Keys(builtinClassNames)
	slices.Sort(want)
	var missing []string
	for _, name := range want {
		if mod.IndexOf(name) == -1 {
			missing = append(missing, name)
		}
	}
	return missing
}

// Inject replays every core-module variable into mod, the way a freshly
// imported or entry-point module "inherits core-module variables into the
// new module" (spec.md §4.4, Import). Declare is idempotent, so a name mod
// already defines itself is left untouched.
func (c *Core) Inject(mod *object.Module) {
	for i, name := range c.Module.VarNames {
		mod.Declare(name, c.Module.VarValues[i])
	}
}

// runCoreScript compiles and runs the embedded core script (see
// core_script.go) into the core module itself, so any top-level define it
// contains becomes part of what Inject propagates.
func (c *Core) runCoreScript() error {
	fn, err := compiler.Compile("core", []byte(coreSource), c.Module, c.VM.MethodNames)
	if err != nil {
		return fmt.Errorf("corelib: compiling embedded core script: %w", err)
	}
	closure := c.VM.NewClosure(fn)
	if _, err := c.VM.Run(closure, object.Null(), nil); err != nil {
		return fmt.Errorf("corelib: running embedded core script: %w", err)
	}
	return nil
}
