package corelib

import (
	"math"

	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindNum installs every arithmetic/bitwise/comparison/range operator
// (spec.md §4.2: "all operators ... are sugar for a method call") plus a
// few read-only query getters. toString is inherited from Object
// (Value.String's formatNum already renders "infinity"/"-infinity"/"nan"/integral-looking
// floats the way spec.md §7 wants for division edge cases).
func bindNum(v *vm.VM, cls *object.Class) {
	arith := func(op func(a, b float64) float64) object.PrimitiveFn {
		return func(s object.Scheduler, args []object.Value) bool {
			if !args[1].IsNum() {
				return fail(v, "right-hand operand must be a number")
			}
			args[0] = object.Num(op(args[0].AsNum(), args[1].AsNum()))
			return true
		}
	}
	compare := func(op func(a, b float64) bool) object.PrimitiveFn {
		return func(s object.Scheduler, args []object.Value) bool {
			if !args[1].IsNum() {
				return fail(v, "right-hand operand must be a number")
			}
			args[0] = object.Bool(op(args[0].AsNum(), args[1].AsNum()))
			return true
		}
	}
	bitwise := func(op func(a, b int64) int64) object.PrimitiveFn {
		return func(s object.Scheduler, args []object.Value) bool {
			if !args[1].IsNum() {
				return fail(v, "right-hand operand must be a number")
			}
			result := op(int64(args[0].AsNum()), int64(args[1].AsNum()))
			args[0] = object.Num(float64(result))
			return true
		}
	}

	bind(v, cls, method("+", 1), arith(func(a, b float64) float64 { return a + b }))
	bind(v, cls, method("-", 1), arith(func(a, b float64) float64 { return a - b }))
	bind(v, cls, method("*", 1), arith(func(a, b float64) float64 { return a * b }))
	bind(v, cls, method("/", 1), arith(func(a, b float64) float64 { return a / b }))
	bind(v, cls, method("%", 1), arith(math.Mod))

	bind(v, cls, getter("-"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Num(-args[0].AsNum())
		return true
	})
	bind(v, cls, getter("~"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Num(float64(^int64(args[0].AsNum())))
		return true
	})

	bind(v, cls, method("&", 1), bitwise(func(a, b int64) int64 { return a & b }))
	bind(v, cls, method("|", 1), bitwise(func(a, b int64) int64 { return a | b }))
	bind(v, cls, method("<<", 1), bitwise(func(a, b int64) int64 { return a << uint(b) }))
	bind(v, cls, method(">>", 1), bitwise(func(a, b int64) int64 { return a >> uint(b) }))

	bind(v, cls, method("<", 1), compare(func(a, b float64) bool { return a < b }))
	bind(v, cls, method("<=", 1), compare(func(a, b float64) bool { return a <= b }))
	bind(v, cls, method(">", 1), compare(func(a, b float64) bool { return a > b }))
	bind(v, cls, method(">=", 1), compare(func(a, b float64) bool { return a >= b }))

	bind(v, cls, method("..", 1), func(_ object.Scheduler, args []object.Value) bool {
		if !args[1].IsNum() {
			return fail(v, "range endpoint must be a number")
		}
		args[0] = object.FromObj(v.NewRange(args[0].AsNum(), args[1].AsNum()))
		return true
	})

	bind(v, cls, getter("isNan"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Bool(math.IsNaN(args[0].AsNum()))
		return true
	})
	bind(v, cls, getter("isInfinity"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Bool(math.IsInf(args[0].AsNum(), 0))
		return true
	})
	bind(v, cls, getter("abs"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Num(math.Abs(args[0].AsNum()))
		return true
	})
	bind(v, cls, getter("floor"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Num(math.Floor(args[0].AsNum()))
		return true
	})
	bind(v, cls, getter("ceil"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Num(math.Ceil(args[0].AsNum()))
		return true
	})
	bind(v, cls, getter("sqrt"), func(_ object.Scheduler, args []object.Value) bool {
		args[0] = object.Num(math.Sqrt(args[0].AsNum()))
		return true
	})
}
