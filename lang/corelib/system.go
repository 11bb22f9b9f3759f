package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindSystem installs the handful of System static methods used for output
// (spec.md §6 "System"). System is never instantiated, so every primitive
// here is static; they use vm.Invoke rather than Value.String so a value's
// own overridden toString (an *Instance defining one) is honored, not just
// the built-in default rendering.
func bindSystem(v *vm.VM, cls *object.Class) {
	writeString := func(val object.Value) bool {
		result, err := v.Invoke(val, getter("toString"))
		if err != nil {
			return false
		}
		s, ok := result.AsObj().(*object.String)
		if !ok {
			return false
		}
		_, werr := v.Stdout.WriteString(string(s.Bytes))
		return werr == nil
	}

	bindStatic(v, cls, method("print", 1), func(_ object.Scheduler, args []object.Value) bool {
		if !writeString(args[1]) {
			return fail(v, "System.print: write failed")
		}
		v.Stdout.WriteString("\n")
		args[0] = args[1]
		return true
	})
	bindStatic(v, cls, method("print", 0), func(_ object.Scheduler, args []object.Value) bool {
		v.Stdout.WriteString("\n")
		args[0] = object.Null()
		return true
	})
	bindStatic(v, cls, method("write", 1), func(_ object.Scheduler, args []object.Value) bool {
		if !writeString(args[1]) {
			return fail(v, "System.write: write failed")
		}
		args[0] = args[1]
		return true
	})
}
