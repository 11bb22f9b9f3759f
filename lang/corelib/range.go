package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindRange installs Range's endpoint getters and the for-loop iteration
// protocol (spec.md §3 "Range", §4.3 "for"). A Range iterates its own
// From..To endpoints directly; unlike List/Map there is no backing
// collection to index into, so iteratorValue just returns the iterator
// value unchanged.
func bindRange(v *vm.VM, cls *object.Class) {
	bind(v, cls, getter("from"), func(_ object.Scheduler, args []object.Value) bool {
		r := args[0].AsObj().(*object.Range)
		args[0] = object.Num(r.From)
		return true
	})
	bind(v, cls, getter("to"), func(_ object.Scheduler, args []object.Value) bool {
		r := args[0].AsObj().(*object.Range)
		args[0] = object.Num(r.To)
		return true
	})
	bind(v, cls, getter("isAscending"), func(_ object.Scheduler, args []object.Value) bool {
		r := args[0].AsObj().(*object.Range)
		args[0] = object.Bool(r.IsAscending())
		return true
	})

	bind(v, cls, method("iterate", 1), func(_ object.Scheduler, args []object.Value) bool {
		r := args[0].AsObj().(*object.Range)
		if args[1].IsNull() {
			if r.From == r.To {
				args[0] = object.Bool(false)
				return true
			}
			args[0] = object.Num(r.From)
			return true
		}

		cur := args[1].AsNum()
		var next float64
		if r.IsAscending() {
			next = cur + 1
			if next > r.To {
				args[0] = object.Bool(false)
				return true
			}
		} else {
			next = cur - 1
			if next < r.To {
				args[0] = object.Bool(false)
				return true
			}
		}
		args[0] = object.Num(next)
		return true
	})
	bind(v, cls, method("iteratorValue", 1), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = args[1]
		return true
	})
}
