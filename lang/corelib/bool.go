package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindBool installs Bool's only override: Object already renders
// "true"/"false" via Value.String() and handles == , so negation is the
// one thing Bool needs of its own (spec.md §4.3: False is one of the two
// falsy values).
func bindBool(v *vm.VM, cls *object.Class) {
	bind(v, cls, getter("!"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Bool(!args[0].AsBool())
		return true
	})
}
