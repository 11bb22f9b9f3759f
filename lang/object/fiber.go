package object

// Fiber (called Thread at the language level, spec.md GLOSSARY) is a
// cooperatively scheduled execution context: its own value stack, frame
// stack, and open-upvalue list.
type Fiber struct {
	Header

	Name string

	Stack    []Value
	StackTop int // index one past the last live slot ("esp")

	Frames []Frame

	OpenUpvalues *Upvalue // head of the list, sorted by descending Slot

	Caller *Fiber
	Error  Value // non-Null signals abort; zero Value (KindUndefined) means "no error"

	// Entry is the closure Thread.call starts running the first time this
	// fiber is resumed (spec.md Thread.new(fn)); nil once started, since from
	// then on Frames itself records where execution is.
	Entry *Closure
}

var _ Obj = (*Fiber)(nil)

const initialStackSize = 64

// NewFiber allocates a fiber with an empty stack and frame list.
func NewFiber() *Fiber {
	f := &Fiber{Stack: make([]Value, initialStackSize)}
	f.Header.Type = TypeFiber
	return f
}

// HasError reports whether the fiber aborted with an error.
func (f *Fiber) HasError() bool { return f.Error.IsObj() || f.Error.IsNum() || f.Error.IsBool() }

// SetError records err as the fiber's abort reason (spec.md §4.4/§7).
func (f *Fiber) SetError(err Value) { f.Error = err }

// IsDone reports whether the fiber has no more frames to run, or has
// aborted, and so may not be resumed (spec.md §3, invariant 5).
func (f *Fiber) IsDone() bool { return (f.Entry == nil && len(f.Frames) == 0) || f.HasError() }

// Started reports whether this fiber has ever been given to Thread.call,
// i.e. whether Entry has already been consumed.
func (f *Fiber) Started() bool { return f.Entry == nil }

// EnsureStack grows f.Stack, doubling its capacity (rounded up to a power of
// two) until it holds at least need slots in total (spec.md §4.4). Because open upvalues reference a fiber+slot pair rather
// than a raw pointer (spec.md §9), growing the backing array never requires
// fixing up any upvalue.
func (f *Fiber) EnsureStack(need int) {
	if need <= len(f.Stack) {
		return
	}
	size := len(f.Stack)
	if size == 0 {
		size = initialStackSize
	}
	for size < need {
		size *= 2
	}
	grown := make([]Value, size)
	copy(grown, f.Stack)
	f.Stack = grown
}

// PushFrame appends a new frame and ensures the stack can hold its maximum
// stack usage above stackStart.
func (f *Fiber) PushFrame(closure *Closure, stackStart int) *Frame {
	f.EnsureStack(stackStart + closure.Fn.MaxStack + 1)
	f.Frames = append(f.Frames, Frame{Closure: closure, StackStart: stackStart})
	return &f.Frames[len(f.Frames)-1]
}

// PopFrame removes and returns the top frame.
func (f *Fiber) PopFrame() Frame {
	fr := f.Frames[len(f.Frames)-1]
	f.Frames = f.Frames[:len(f.Frames)-1]
	return fr
}

// TopFrame returns a pointer to the currently executing frame.
func (f *Fiber) TopFrame() *Frame { return &f.Frames[len(f.Frames)-1] }

// Push appends v to the operand stack, growing it first if necessary.
func (f *Fiber) Push(v Value) {
	f.EnsureStack(f.StackTop + 1)
	f.Stack[f.StackTop] = v
	f.StackTop++
}

// Pop removes and returns the top of the operand stack.
func (f *Fiber) Pop() Value {
	f.StackTop--
	return f.Stack[f.StackTop]
}

// CloseUpvaluesFrom closes every open upvalue whose slot is >= from,
// copying its pointee into its own storage (spec.md §4.4). The list being
// sorted by descending slot lets this stop at the first slot below from.
func (f *Fiber) CloseUpvaluesFrom(from int) {
	for f.OpenUpvalues != nil && f.OpenUpvalues.Slot() >= from {
		uv := f.OpenUpvalues
		f.OpenUpvalues = uv.Next
		uv.Close()
	}
}

// FindOrOpenUpvalue returns the existing open upvalue at slot, or creates and
// links a new one in descending-slot order (spec.md §4.4, CreateClosure).
func (f *Fiber) FindOrOpenUpvalue(slot int) *Upvalue {
	var prev *Upvalue
	cur := f.OpenUpvalues
	for cur != nil && cur.Slot() > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot() == slot {
		return cur
	}
	uv := NewOpenUpvalue(f, slot)
	uv.Next = cur
	if prev == nil {
		f.OpenUpvalues = uv
	} else {
		prev.Next = uv
	}
	return uv
}
