package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindObject installs the universal root-class primitives every value
// inherits unless a subclass overrides them (spec.md §3, Object being the
// superclass of everything but itself).
func bindObject(v *vm.VM, cls *object.Class) {
	bind(v, cls, method("==", 1), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Bool(object.Equal(args[0], args[1]))
		return true
	})
	bind(v, cls, method("!=", 1), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Bool(!object.Equal(args[0], args[1]))
		return true
	})
	bind(v, cls, getter("!"), func(_ object.Scheduler, args []object.Value) bool {
		// Ordinary objects are truthy; Bool and Null override this with their
		// own meaning of negation (spec.md §4.3, IsFalsy is Null|False only).
		args[0] = object.Bool(false)
		return true
	})
	bind(v, cls, getter("toString"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.FromObj(v.NewString(args[0].String()))
		return true
	})
	bind(v, cls, getter("class"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.FromObj(args[0].ClassOf(v.Classes))
		return true
	})
	bind(v, cls, method("is", 1), func(_ object.Scheduler, args []object.Value) bool {
		target, ok := args[1].AsObj().(*object.Class)
		if !ok {
			return fail(v, "right-hand side of 'is' must be a class")
		}
		args[0] = object.Bool(args[0].ClassOf(v.Classes).IsSubclassOf(target))
		return true
	})
}

// bindClass installs the handful of primitives meaningful on a Class value
// itself (spec.md §3: "the metaclass of the root class Class is itself").
func bindClass(v *vm.VM, cls *object.Class) {
	bind(v, cls, getter("name"), func(_ object.Scheduler, args []object.Value) bool {
		recv := args[0].AsObj().(*object.Class)
		args[0] = object.FromObj(v.NewString(recv.Name))
		return true
	})
	bind(v, cls, getter("superclass"), func(_ object.Scheduler, args []object.Value) bool {
		recv := args[0].AsObj().(*object.Class)
		if recv.Super == nil {
			args[0] = object.Null()
			return true
		}
		args[0] = object.FromObj(recv.Super)
		return true
	})
}
