// Package vm implements Fen's bytecode interpreter (spec.md §4.4): a
// dispatch loop over lang/bytecode's instruction set, operating on
// lang/object's Fiber/Frame/Value model, triggering lang/gc from its
// allocation helpers.
//
// Grounded on the teacher's lang/machine/machine.go dispatch loop (the
// switch-per-opcode shape, a running step counter, deferred cleanup on
// unwind) generalized in three ways machine.go has no equivalent of:
// per-fiber frame stacks with cooperative suspend/resume (nenuphar's Thread
// runs exactly one call to completion), class-based method dispatch by
// receiver (nenuphar calls *Function/*Builtin values directly, it has no
// class hierarchy), and an explicit GC trigger check on every tracked
// allocation (nenuphar has no language-level heap to collect).
package vm

import (
	"fmt"

	"github.com/mna/fen/lang/bytecode"
	"github.com/mna/fen/lang/gc"
	"github.com/mna/fen/lang/object"
)

// RuntimeError is returned by Run/Invoke when a fiber aborts uncaught.
type RuntimeError struct {
	Value      object.Value
	StackTrace []string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s", e.Value.String())
}

// VM holds everything shared across every fiber: the class table, loaded
// modules, the interned method symbol table, and the collector.
type VM struct {
	Classes     *object.ClassTable
	Modules     map[string]*object.Module
	MethodNames *object.SymbolTable
	Collector   *gc.Collector

	// Import loads the module at path (spec.md §6), returning its compiled
	// top-level Fn; String's import_ primitive (lang/corelib) wraps it in a
	// closure and runs it. Caching by path is left to the function itself
	// (internal/runner's importer does it). Left nil disables import
	// entirely (every import_ call fails at runtime).
	Import func(path string) (*object.Fn, error)

	Stdout interface{ WriteString(string) (int, error) }

	fiber     *object.Fiber
	suspended bool

	temp []object.Value
}

var _ object.Scheduler = (*VM)(nil)

// New returns a VM with a freshly built class table; corelib.Install fills
// in the class table's entries and binds their primitive methods.
func New() *VM {
	return &VM{
		Classes:     &object.ClassTable{},
		Modules:     make(map[string]*object.Module),
		MethodNames: object.NewSymbolTable(),
		Collector:   gc.New(2, 1<<20),
	}
}

// CurrentFiber implements object.Scheduler.
func (vm *VM) CurrentFiber() *object.Fiber { return vm.fiber }

// SwitchTo implements object.Scheduler.
func (vm *VM) SwitchTo(f *object.Fiber) { vm.fiber = f }

// Suspend implements object.Scheduler: it unwinds the dispatch loop back to
// whichever Go call started it (Run, or a nested primitive call), leaving
// vm.fiber as the caller set it (Thread.yield/suspend both call SwitchTo
// first, then Suspend).
func (vm *VM) Suspend() { vm.suspended = true }

// track registers a freshly allocated object with the collector and runs a
// collection first if the heap has grown past its threshold.
func (vm *VM) track(o object.Obj, size int) {
	if vm.Collector.ShouldCollect() {
		vm.collect()
	}
	vm.Collector.Track(o, size)
}

// collect assembles the current root set and runs one GC cycle (spec.md
// §4.5).
func (vm *VM) collect() {
	vm.Collector.Collect(gc.Roots{
		Fiber:       vm.fiber,
		Modules:     vm.Modules,
		Classes:     vm.Classes,
		MethodNames: vm.MethodNames.Strings(),
		Temp:        vm.temp,
	})
}

// Hold appends v to the VM's GC temp-root list for the duration of fn, so an
// allocation in progress (e.g. building a List element by element from Go
// code in a corelib primitive, not bytecode) survives a GC triggered
// mid-construction.
func (vm *VM) Hold(v object.Value, fn func()) {
	vm.temp = append(vm.temp, v)
	defer func() { vm.temp = vm.temp[:len(vm.temp)-1] }()
	fn()
}

// NewInstance allocates and tracks a new Instance of class.
func (vm *VM) NewInstance(class *object.Class) *object.Instance {
	inst := object.NewInstance(class)
	vm.track(inst, 16+8*class.FieldNum)
	return inst
}

// NewClosure allocates and tracks a closure over fn.
func (vm *VM) NewClosure(fn *object.Fn) *object.Closure {
	c := object.NewClosure(fn)
	vm.track(c, 16+8*fn.UpvalueNum)
	return c
}

// NewFiber allocates and tracks a fiber.
func (vm *VM) NewFiber() *object.Fiber {
	f := object.NewFiber()
	vm.track(f, 64*16)
	return f
}

// NewList allocates and tracks a list.
func (vm *VM) NewList(size int) *object.List {
	l := object.NewList(size)
	vm.track(l, 16+8*size)
	return l
}

// NewMap allocates and tracks a map.
func (vm *VM) NewMap(size int) *object.Map {
	m := object.NewMap(size)
	vm.track(m, 16+32*size)
	return m
}

// NewString allocates and tracks a string.
func (vm *VM) NewString(s string) *object.String {
	str := object.NewString(s)
	vm.track(str, 24+len(s))
	return str
}

// NewRange allocates and tracks a range.
func (vm *VM) NewRange(from, to float64) *object.Range {
	r := object.NewRange(from, to)
	vm.track(r, 24)
	return r
}

// NewClass allocates and tracks a class, installing class's own metaclass
// as a second tracked object (spec.md §3: "every class has a metaclass").
func (vm *VM) NewClass(name string, super *object.Class) *object.Class {
	var superMeta *object.Class
	if super != nil {
		superMeta = super.Metaclass()
	}
	meta := object.NewClass(name+" metaclass", vm.Classes.ClassClass)
	if superMeta != nil {
		meta.Super = superMeta
		meta.Methods = append([]object.Method(nil), superMeta.Methods...)
	}
	vm.track(meta, 32)

	cls := object.NewClass(name, super)
	cls.Header.Class = meta
	vm.track(cls, 32+8*len(cls.Methods))
	return cls
}

// Run compiles nothing itself: it executes closure as a new fiber's initial
// call with args already pushed as slot 0 (receiver, typically Null for a
// top-level script) followed by argNum positional arguments, and runs the
// dispatch loop until that fiber (and any it calls into and waits on)
// completes or aborts.
func (vm *VM) Run(closure *object.Closure, receiver object.Value, args []object.Value) (object.Value, error) {
	f := vm.NewFiber()
	f.Push(receiver)
	for _, a := range args {
		f.Push(a)
	}
	f.PushFrame(closure, 0)
	prev := vm.fiber
	vm.fiber = f
	result, err := vm.dispatch()
	vm.fiber = prev
	return result, err
}

// readByte/readUint16 advance frame.IP past a fixed-width operand.
func readByte(code []byte, ip int) byte { return code[ip] }

func readUint16(code []byte, ip int) int {
	return int(code[ip])<<8 | int(code[ip+1])
}

// dispatch is the core bytecode loop. It runs until vm.fiber has no more
// frames across the whole fiber chain (the initial fiber and anything it
// Thread.call'd into returned), or a fiber aborts with an uncaught error.
func (vm *VM) dispatch() (object.Value, error) {
	for {
		f := vm.fiber
		if f == nil || len(f.Frames) == 0 {
			return object.Null(), nil
		}
		frame := f.TopFrame()
		code := frame.Closure.Fn.Code

		op := bytecode.Op(code[frame.IP])
		frame.IP++

		switch {
		case bytecode.IsCall(op):
			argNum := bytecode.CallArgCount(op)
			symbol := readUint16(code, frame.IP)
			frame.IP += 2
			if prior := vm.fiber; !vm.dispatchCall(symbol, argNum, false, 0) {
				if done, result, err := vm.handlePrimitiveFailure(prior); done {
					return result, err
				}
			}
			continue

		case bytecode.IsSuperCall(op):
			argNum := bytecode.CallArgCount(op)
			symbol := readUint16(code, frame.IP)
			frame.IP += 2
			superVarIdx := readUint16(code, frame.IP)
			frame.IP += 2
			if prior := vm.fiber; !vm.dispatchCall(symbol, argNum, true, superVarIdx) {
				if done, result, err := vm.handlePrimitiveFailure(prior); done {
					return result, err
				}
			}
			continue
		}

		switch op {
		case bytecode.LoadConstant:
			idx := readUint16(code, frame.IP)
			frame.IP += 2
			f.Push(frame.Closure.Fn.Constants[idx])

		case bytecode.PushNull:
			f.Push(object.Null())

		case bytecode.PushTrue:
			f.Push(object.Bool(true))

		case bytecode.PushFalse:
			f.Push(object.Bool(false))

		case bytecode.LoadLocalVar:
			slot := int(readByte(code, frame.IP))
			frame.IP++
			f.Push(f.Stack[frame.StackStart+slot])

		case bytecode.StoreLocalVar:
			slot := int(readByte(code, frame.IP))
			frame.IP++
			f.Stack[frame.StackStart+slot] = f.Stack[f.StackTop-1]

		case bytecode.LoadUpvalue:
			idx := int(readByte(code, frame.IP))
			frame.IP++
			f.Push(frame.Closure.Upvalues[idx].Get())

		case bytecode.StoreUpvalue:
			idx := int(readByte(code, frame.IP))
			frame.IP++
			frame.Closure.Upvalues[idx].Set(f.Stack[f.StackTop-1])

		case bytecode.LoadModuleVar:
			idx := readUint16(code, frame.IP)
			frame.IP += 2
			f.Push(frame.Closure.Fn.Module.VarValues[idx])

		case bytecode.StoreModuleVar:
			idx := readUint16(code, frame.IP)
			frame.IP += 2
			frame.Closure.Fn.Module.VarValues[idx] = f.Stack[f.StackTop-1]

		case bytecode.LoadSelfField:
			idx := int(readByte(code, frame.IP))
			frame.IP++
			self := f.Stack[frame.StackStart].AsObj().(*object.Instance)
			f.Push(self.Fields[idx])

		case bytecode.StoreSelfField:
			idx := int(readByte(code, frame.IP))
			frame.IP++
			self := f.Stack[frame.StackStart].AsObj().(*object.Instance)
			self.Fields[idx] = f.Stack[f.StackTop-1]

		case bytecode.LoadField:
			idx := int(readByte(code, frame.IP))
			frame.IP++
			recv := f.Pop().AsObj().(*object.Instance)
			f.Push(recv.Fields[idx])

		case bytecode.StoreField:
			idx := int(readByte(code, frame.IP))
			frame.IP++
			v := f.Pop()
			recv := f.Pop().AsObj().(*object.Instance)
			recv.Fields[idx] = v
			f.Push(v)

		case bytecode.Pop:
			f.Pop()

		case bytecode.Jump:
			offset := readUint16(code, frame.IP)
			frame.IP += 2 + offset

		case bytecode.Loop:
			offset := readUint16(code, frame.IP)
			frame.IP = frame.IP + 2 - offset

		case bytecode.JumpIfFalse:
			// Peeks only; every emission site (if/while/for/ternary) pops the
			// condition explicitly on whichever branch it takes.
			offset := readUint16(code, frame.IP)
			frame.IP += 2
			if f.Stack[f.StackTop-1].IsFalsy() {
				frame.IP += offset
			}

		case bytecode.And:
			offset := readUint16(code, frame.IP)
			frame.IP += 2
			if f.Stack[f.StackTop-1].IsFalsy() {
				frame.IP += offset
			} else {
				f.Pop()
			}

		case bytecode.Or:
			offset := readUint16(code, frame.IP)
			frame.IP += 2
			if f.Stack[f.StackTop-1].IsFalsy() {
				f.Pop()
			} else {
				frame.IP += offset
			}

		case bytecode.CloseUpvalue:
			f.CloseUpvaluesFrom(f.StackTop - 1)
			f.Pop()

		case bytecode.Return:
			result := f.Pop()
			f.CloseUpvaluesFrom(frame.StackStart)
			f.StackTop = frame.StackStart
			f.PopFrame()
			if len(f.Frames) == 0 {
				if done, r, err := vm.finishFiber(result); done {
					return r, err
				}
				continue
			}
			f.Push(result)

		case bytecode.CreateClosure:
			idx := readUint16(code, frame.IP)
			frame.IP += 2
			fn := frame.Closure.Fn.Constants[idx].AsObj().(*object.Fn)
			closure := vm.NewClosure(fn)
			for i := range closure.Upvalues {
				isLocal := readByte(code, frame.IP) != 0
				frame.IP++
				index := int(readByte(code, frame.IP))
				frame.IP++
				if isLocal {
					closure.Upvalues[i] = f.FindOrOpenUpvalue(frame.StackStart + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}
			f.Push(object.FromObj(closure))

		case bytecode.Construct:
			cls := f.Stack[frame.StackStart].AsObj().(*object.Class)
			f.Stack[frame.StackStart] = object.FromObj(vm.NewInstance(cls))

		case bytecode.CreateClass:
			fieldNum := int(readByte(code, frame.IP))
			frame.IP++
			super := f.Pop().AsObj().(*object.Class)
			name := fmt.Sprintf("%s$%d", frame.Closure.Fn.Module.Name, frame.IP)
			cls := vm.NewClass(name, super)
			cls.FieldNum = super.FieldNum + fieldNum
			f.Push(object.FromObj(cls))

		case bytecode.InstanceMethod:
			symbol := readUint16(code, frame.IP)
			frame.IP += 2
			closure := f.Pop().AsObj().(*object.Closure)
			cls := f.Stack[f.StackTop-1].AsObj().(*object.Class)
			cls.BindMethod(symbol, object.ScriptMethod(closure))

		case bytecode.StaticMethod:
			symbol := readUint16(code, frame.IP)
			frame.IP += 2
			closure := f.Pop().AsObj().(*object.Closure)
			cls := f.Stack[f.StackTop-1].AsObj().(*object.Class)
			cls.Metaclass().BindMethod(symbol, object.ScriptMethod(closure))

		case bytecode.End:
			// sentinel only; never emitted by the compiler into live code.

		default:
			panic(fmt.Sprintf("vm: unhandled opcode %v", op))
		}
	}
}

// dispatchCall resolves and invokes a method call already laid out on the
// stack as [receiver, arg0, ..., argN-1] (spec.md §4.4, "Method dispatch").
// It returns false if the call failed (error set on the current fiber, or a
// fiber switch already performed by a primitive), true otherwise.
func (vm *VM) dispatchCall(symbol, argNum int, isSuper bool, superVarIdx int) bool {
	f := vm.fiber
	argsStart := f.StackTop - (argNum + 1)
	args := f.Stack[argsStart:f.StackTop]

	var cls *object.Class
	if isSuper {
		frame := f.TopFrame()
		superVal := frame.Closure.Fn.Module.VarValues[superVarIdx]
		cls = superVal.AsObj().(*object.Class)
	} else {
		cls = args[0].ClassOf(vm.Classes)
	}

	m := cls.MethodAt(symbol)
	switch m.Kind {
	case object.MethodNone:
		vm.runtimeErrorf("%s does not understand %s", args[0].String(), vm.MethodNames.NameAt(symbol).String())
		return false

	case object.MethodPrimitive:
		// On success the primitive has overwritten args[0] (still a view into
		// f.Stack) with the result; collapse the call's operand slots down to
		// just that one value. On failure the primitive is responsible for its
		// own stack bookkeeping (an error leaves the fiber dead anyway; a
		// fiber switch/suspend has already arranged whatever the resuming call
		// needs to see), so dispatchCall must not touch f's stack at all.
		ok := m.Primitive(vm, args)
		if ok {
			f.StackTop = argsStart + 1
			f.Stack[argsStart] = args[0]
		}
		return ok

	case object.MethodScript:
		f.PushFrame(m.Script, argsStart)
		return true

	case object.MethodFnCall:
		closure, ok := args[0].AsObj().(*object.Closure)
		if !ok {
			vm.runtimeErrorf("Fn.call receiver is not callable")
			return false
		}
		if closure.Fn.ArgNum != argNum {
			vm.runtimeErrorf("expected %d arguments, got %d", closure.Fn.ArgNum, argNum)
			return false
		}
		f.PushFrame(closure, argsStart)
		return true

	default:
		panic("vm: unknown method kind")
	}
}

// handlePrimitiveFailure interprets a false return from a PrimitiveFn
// invoked while prior was the current fiber (spec.md §4.4 step 4): either
// prior aborted with an error, which unwinds to its caller (or ends Run if
// prior was the root fiber), or the primitive performed a cooperative fiber
// switch (Thread.yield/suspend), in which case vm.fiber already names where
// execution continues and dispatch simply resumes there.
func (vm *VM) handlePrimitiveFailure(prior *object.Fiber) (done bool, result object.Value, err error) {
	if vm.suspended {
		vm.suspended = false
		if vm.fiber == nil {
			return true, object.Null(), nil
		}
		return false, object.Value{}, nil
	}
	if prior.Caller == nil {
		return true, object.Null(), &RuntimeError{Value: prior.Error}
	}
	caller := prior.Caller
	caller.SetError(prior.Error)
	vm.fiber = caller
	return false, object.Value{}, nil
}

// finishFiber handles a fiber's last frame returning: if it has a caller
// (Thread.call resumed into it), hand result back to the caller and resume
// it; otherwise the whole Run is complete.
func (vm *VM) finishFiber(result object.Value) (done bool, out object.Value, err error) {
	f := vm.fiber
	if f.Caller == nil {
		return true, result, nil
	}
	caller := f.Caller
	caller.Push(result)
	vm.fiber = caller
	return false, object.Value{}, nil
}

// runtimeErrorf sets the current fiber's error to a String built from
// format/args (spec.md §4.4 step 4's "error" outcome).
func (vm *VM) runtimeErrorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	vm.fiber.SetError(object.FromObj(vm.NewString(msg)))
}

// Invoke performs the same dispatch CallN would (spec.md §4.4, "Dispatch"),
// but from Go rather than from a running frame: corelib primitives that
// need to call back into script code (System.print's toString, List.sort's
// comparator block) use this instead of duplicating dispatchCall's switch.
// symbolText is the callee's canonical signature text (see
// lang/compiler.Signature.Text), interned on demand.
func (vm *VM) Invoke(recv object.Value, symbolText string, args ...object.Value) (object.Value, error) {
	symbol := vm.MethodNames.Intern(symbolText)
	cls := recv.ClassOf(vm.Classes)
	m := cls.MethodAt(symbol)
	full := append([]object.Value{recv}, args...)

	switch m.Kind {
	case object.MethodPrimitive:
		if !m.Primitive(vm, full) {
			if vm.fiber != nil && vm.fiber.HasError() {
				return object.Null(), &RuntimeError{Value: vm.fiber.Error}
			}
			return object.Null(), fmt.Errorf("vm: %s primitive invocation did not complete synchronously", symbolText)
		}
		return full[0], nil

	case object.MethodScript:
		return vm.Run(m.Script, recv, args)

	case object.MethodFnCall:
		closure, ok := recv.AsObj().(*object.Closure)
		if !ok {
			return object.Null(), fmt.Errorf("vm: receiver of %s is not callable", symbolText)
		}
		return vm.Run(closure, object.Null(), args)

	default:
		return object.Null(), fmt.Errorf("%s does not understand %s", recv.String(), symbolText)
	}
}
