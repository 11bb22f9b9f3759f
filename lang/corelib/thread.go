package corelib

import (
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// bindThread installs Thread.new(fn) and the cooperative call/yield/
// suspend/abort primitives (spec.md §4.4 "Thread"). Every fiber switch here
// follows the same shape: shrink
// the currently-running fiber's operand stack back to the call site (so
// whoever resumes it later sees exactly the one result slot dispatchCall
// would otherwise have collapsed, per vm.go's dispatchCall comment), arrange
// the target fiber's stack, then SwitchTo + Suspend so vm.handlePrimitiveFailure
// picks the new fiber up.
func bindThread(v *vm.VM, cls *object.Class) {
	bindStatic(v, cls, ctor(1), func(s object.Scheduler, args []object.Value) bool {
		closure, ok := args[1].AsObj().(*object.Closure)
		if !ok {
			return fail(v, "Thread.new argument must be a function")
		}
		f := v.NewFiber()
		f.Entry = closure
		args[0] = object.FromObj(f)
		return true
	})

	call := func(s object.Scheduler, args []object.Value) bool {
		current := s.CurrentFiber()
		argsStart := current.StackTop - len(args)

		target, ok := args[0].AsObj().(*object.Fiber)
		if !ok {
			return fail(v, "Thread.call receiver must be a Thread")
		}
		if target.IsDone() {
			return fail(v, "cannot call a finished or aborted thread")
		}
		if target.Caller != nil {
			return fail(v, "thread is already running")
		}

		var arg object.Value
		if len(args) > 1 {
			arg = args[1]
		} else {
			arg = object.Null()
		}

		current.StackTop = argsStart

		if !target.Started() {
			entry := target.Entry
			target.Entry = nil
			if entry.Fn.ArgNum != len(args)-1 {
				return fail(v, "expected %d argument(s), got %d", entry.Fn.ArgNum, len(args)-1)
			}
			target.Push(object.FromObj(entry))
			if entry.Fn.ArgNum == 1 {
				target.Push(arg)
			}
			target.PushFrame(entry, 0)
		} else {
			target.Push(arg)
		}

		target.Caller = current
		s.SwitchTo(target)
		s.Suspend()
		return false
	}
	bind(v, cls, getter("call"), call)
	bind(v, cls, method("call", 1), call)

	bind(v, cls, getter("isDone"), func(_ object.Scheduler, args []object.Value) bool {
		f := args[0].AsObj().(*object.Fiber)
		args[0] = object.Bool(f.IsDone())
		return true
	})

	yield := func(s object.Scheduler, args []object.Value) bool {
		current := s.CurrentFiber()
		argsStart := current.StackTop - len(args)
		caller := current.Caller
		if caller == nil {
			return fail(v, "cannot yield from the root thread")
		}

		var result object.Value
		if len(args) > 1 {
			result = args[1]
		} else {
			result = object.Null()
		}

		current.StackTop = argsStart
		current.Caller = nil
		caller.Push(result)
		s.SwitchTo(caller)
		s.Suspend()
		return false
	}
	bindStatic(v, cls, getter("yield"), yield)
	bindStatic(v, cls, method("yield", 1), yield)

	bindStatic(v, cls, method("suspend", 0), func(s object.Scheduler, args []object.Value) bool {
		current := s.CurrentFiber()
		argsStart := current.StackTop - len(args)
		current.StackTop = argsStart
		s.SwitchTo(nil)
		s.Suspend()
		return false
	})

	bindStatic(v, cls, method("abort", 1), func(_ object.Scheduler, args []object.Value) bool {
		v.CurrentFiber().SetError(args[1])
		return false
	})
}
