package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// maxFnArity bounds the call(...) overloads bound below (spec.md §3 "Fn").
// 16 matches the C source's MAX_ARGUMENTS.
const maxFnArity = 16

// bindFn installs Fn's call/call(_)/.../call(_,...,_) overloads, every one
// of them the same object.FnCallMethod marker: dispatchCall treats the
// receiver itself as the closure to invoke (vm.go's MethodFnCall case),
// rather than running any Go or script code here.
func bindFn(v *vm.VM, cls *object.Class) {
	bindStatic(v, cls, ctor(1), func(_ object.Scheduler, args []object.Value) bool {
		closure, ok := args[1].AsObj().(*object.Closure)
		if !ok {
			return fail(v, "Fn.new argument must be a function")
		}
		args[0] = object.FromObj(closure)
		return true
	})

	cls.BindMethod(v.MethodNames.Intern(getter("call")), object.FnCallMethod)
	for n := 1; n <= maxFnArity; n++ {
		cls.BindMethod(v.MethodNames.Intern(method("call", n)), object.FnCallMethod)
	}

	bind(v, cls, getter("arity"), func(_ object.Scheduler, args []object.Value) bool {
		closure := args[0].AsObj().(*object.Closure)
		args[0] = object.Num(float64(closure.Fn.ArgNum))
		return true
	})
}
