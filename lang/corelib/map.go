package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindMap installs Map's static constructor and the mutation/subscript/
// iteration primitives (spec.md §3 "Map"). iterate/iteratorValue walk table
// slots directly via object.Map's Cap/NextIndex/KeyAt (see the doc comment
// there), the same resumable-by-slot-index shape as List/Range.
func bindMap(v *vm.VM, cls *object.Class) {
	bindStatic(v, cls, ctor(0), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.FromObj(v.NewMap(0))
		return true
	})

	bind(v, cls, method("addPair", 2), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		if err := m.Set(args[1], args[2]); err != nil {
			return fail(v, "%s", err)
		}
		return true
	})

	bind(v, cls, getter("count"), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		args[0] = object.Num(float64(m.Count()))
		return true
	})
	bind(v, cls, getter("isEmpty"), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		args[0] = object.Bool(m.Count() == 0)
		return true
	})

	bind(v, cls, subscript(1), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		val, found, err := m.Get(args[1])
		if err != nil {
			return fail(v, "%s", err)
		}
		if !found {
			args[0] = object.Null()
			return true
		}
		args[0] = val
		return true
	})
	bind(v, cls, subscriptSetter(1), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		if err := m.Set(args[1], args[2]); err != nil {
			return fail(v, "%s", err)
		}
		args[0] = args[2]
		return true
	})

	bind(v, cls, method("containsKey", 1), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		found, err := m.ContainsKey(args[1])
		if err != nil {
			return fail(v, "%s", err)
		}
		args[0] = object.Bool(found)
		return true
	})
	bind(v, cls, method("remove", 1), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		val, err := m.Remove(args[1])
		if err != nil {
			return fail(v, "%s", err)
		}
		args[0] = val
		return true
	})
	bind(v, cls, method("clear", 0), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		m.Clear()
		args[0] = object.Null()
		return true
	})

	bind(v, cls, method("iterate", 1), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		from := 0
		if !args[1].IsNull() {
			from = int(args[1].AsNum()) + 1
		}
		next := m.NextIndex(from)
		if next < 0 {
			args[0] = object.Bool(false)
			return true
		}
		args[0] = object.Num(float64(next))
		return true
	})
	bind(v, cls, method("iteratorValue", 1), func(_ object.Scheduler, args []object.Value) bool {
		m := args[0].AsObj().(*object.Map)
		args[0] = m.KeyAt(int(args[1].AsNum()))
		return true
	})
}
