package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindNull installs Null's only override: negating null is always true
// (spec.md §4.3: Null is one of the two falsy values); toString is already
// correct via Object's default (Value.String() renders "null").
func bindNull(v *vm.VM, cls *object.Class) {
	bind(v, cls, getter("!"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Bool(true)
		return true
	})
}
