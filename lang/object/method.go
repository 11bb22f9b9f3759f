package object

// MethodKind tags the variant of Method (spec.md §3).
type MethodKind uint8

const ( //nolint:revive
	MethodNone MethodKind = iota
	MethodPrimitive
	MethodScript
	MethodFnCall
)

// Scheduler is the narrow surface a primitive method needs from the VM to
// implement Thread.call/yield/suspend/abort (spec.md §4.4) without the
// object package importing lang/vm.
type Scheduler interface {
	// CurrentFiber returns the fiber presently executing.
	CurrentFiber() *Fiber
	// SwitchTo makes f the current fiber.
	SwitchTo(f *Fiber)
	// Suspend marks the pending fiber switch as deliberate: the VM's dispatch
	// loop carries on with whatever fiber SwitchTo last named, or returns
	// control to its Go caller if that is nil. It does not change the
	// current fiber itself.
	Suspend()
}

// PrimitiveFn is a native method implementation. recv is args[0]; args[1:]
// are the call's arguments. On success it overwrites args[0] with the
// result and returns true. On failure it returns false, having either set
// the current fiber's error (see Fiber.SetError) or performed a fiber
// switch via the Scheduler (spec.md §4.4, dispatch step 4).
type PrimitiveFn func(s Scheduler, args []Value) bool

// Method is the tagged variant stored in a Class's method table.
type Method struct {
	Kind      MethodKind
	Primitive PrimitiveFn
	Script    *Closure
}

// NoneMethod is the zero value, explicit for readability at call sites.
var NoneMethod = Method{Kind: MethodNone}

func PrimitiveMethod(fn PrimitiveFn) Method { return Method{Kind: MethodPrimitive, Primitive: fn} }
func ScriptMethod(c *Closure) Method         { return Method{Kind: MethodScript, Script: c} }

// FnCallMethod is the marker method kind used to implement Fn.call(...)
// overloads: the receiver itself is treated as a callable closure.
var FnCallMethod = Method{Kind: MethodFnCall}
