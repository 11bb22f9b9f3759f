package corelib

import (
	"golang.org/x/exp/slices"

	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindList installs List's static constructor and the mutation/subscript/
// iteration primitives (spec.md §3 "List"). iterate/iteratorValue follow the
// same by-index resumable protocol as Range and Map: iterate(_) receives the
// previous iterator value (Null to start) and returns the next one, or False
// when exhausted; iteratorValue(_) turns that iterator value into the
// element a for-loop binds.
func bindList(v *vm.VM, cls *object.Class) {
	bindStatic(v, cls, ctor(0), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.FromObj(v.NewList(0))
		return true
	})

	bind(v, cls, method("add", 1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		l.Append(args[1])
		return true
	})

	bind(v, cls, getter("count"), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		args[0] = object.Num(float64(l.Len()))
		return true
	})
	bind(v, cls, getter("isEmpty"), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		args[0] = object.Bool(l.Len() == 0)
		return true
	})

	resolveIndex := func(l *object.List, v object.Value) (int, bool) {
		if !v.IsNum() {
			return 0, false
		}
		i := int(v.AsNum())
		if i < 0 {
			i += l.Len()
		}
		return i, true
	}

	bind(v, cls, subscript(1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		i, ok := resolveIndex(l, args[1])
		if !ok || i < 0 || i >= l.Len() {
			return fail(v, "list index out of bounds")
		}
		args[0] = l.At(i)
		return true
	})
	bind(v, cls, subscriptSetter(1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		i, ok := resolveIndex(l, args[1])
		if !ok || i < 0 || i >= l.Len() {
			return fail(v, "list index out of bounds")
		}
		l.SetAt(i, args[2])
		args[0] = args[2]
		return true
	})

	bind(v, cls, method("insert", 2), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		i, ok := resolveIndex(l, args[1])
		if !ok || i < 0 || i > l.Len() {
			return fail(v, "list index out of bounds")
		}
		l.InsertAt(i, args[2])
		args[0] = args[2]
		return true
	})
	bind(v, cls, method("removeAt", 1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		i, ok := resolveIndex(l, args[1])
		if !ok || i < 0 || i >= l.Len() {
			return fail(v, "list index out of bounds")
		}
		args[0] = l.RemoveAt(i)
		return true
	})
	bind(v, cls, method("indexOf", 1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		for i := 0; i < l.Len(); i++ {
			if object.Equal(l.At(i), args[1]) {
				args[0] = object.Num(float64(i))
				return true
			}
		}
		args[0] = object.Num(-1)
		return true
	})
	bind(v, cls, method("contains", 1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		for i := 0; i < l.Len(); i++ {
			if object.Equal(l.At(i), args[1]) {
				args[0] = object.Bool(true)
				return true
			}
		}
		args[0] = object.Bool(false)
		return true
	})

	bind(v, cls, method("iterate", 1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		next := 0
		if !args[1].IsNull() {
			next = int(args[1].AsNum()) + 1
		}
		if next >= l.Len() {
			args[0] = object.Bool(false)
			return true
		}
		args[0] = object.Num(float64(next))
		return true
	})
	bind(v, cls, method("iteratorValue", 1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		args[0] = l.At(int(args[1].AsNum()))
		return true
	})

	// sort(_) takes a two-argument block used as a strict less-than
	// comparator, so sorting needs vm.Invoke to call back into script code
	// mid-primitive (unlike every other List primitive, which is pure Go).
	bind(v, cls, method("sort", 1), func(_ object.Scheduler, args []object.Value) bool {
		l := args[0].AsObj().(*object.List)
		block := args[1]
		var callErr error
		slices.SortFunc(l.Elems, func(a, b object.Value) int {
			if callErr != nil {
				return 0
			}
			less := func(x, y object.Value) bool {
				result, err := v.Invoke(block, method("call", 2), x, y)
				if err != nil {
					callErr = err
					return false
				}
				return result.IsTruthy()
			}
			if less(a, b) {
				return -1
			}
			if callErr == nil && less(b, a) {
				return 1
			}
			return 0
		})
		if callErr != nil {
			return fail(v, "sort comparator failed: %s", callErr)
		}
		return true
	})
}
