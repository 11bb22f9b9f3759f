package object

// Upvalue is a cell that lets a closure refer to a variable living in an
// outer frame (spec.md §3, GLOSSARY). It is open while that frame's fiber
// stack slot is still live, closed once the value has been copied out.
//
// Design note (spec.md §9): rather than an unsafe raw pointer into a
// fiber's stack slice, which would dangle across the slice growth described
// in spec.md §4.4, an open Upvalue is a (Fiber, slot index) handle pair; a
// stack grow needs no upvalue fixups at all, since the handle is rebased by
// construction (it names a logical slot, not a memory address).
type Upvalue struct {
	Header

	fiber  *Fiber // non-nil while open
	slot   int    // index into fiber.Stack while open
	closed Value  // valid once closed

	// Next links open upvalues for the same fiber in descending-slot order
	// (spec.md §3, invariant 3), so closing can stop at the first upvalue
	// below the target slot.
	Next *Upvalue
}

var _ Obj = (*Upvalue)(nil)

// NewOpenUpvalue allocates an upvalue open over fiber's stack at slot.
func NewOpenUpvalue(fiber *Fiber, slot int) *Upvalue {
	uv := &Upvalue{fiber: fiber, slot: slot}
	uv.Header.Type = TypeUpvalue
	return uv
}

// IsOpen reports whether the upvalue still refers to a live stack slot.
func (uv *Upvalue) IsOpen() bool { return uv.fiber != nil }

// Slot returns the stack slot this upvalue is open over; only valid while
// IsOpen().
func (uv *Upvalue) Slot() int { return uv.slot }

// Get returns the upvalue's current value, whichever storage backs it.
func (uv *Upvalue) Get() Value {
	if uv.fiber != nil {
		return uv.fiber.Stack[uv.slot]
	}
	return uv.closed
}

// Set stores v into the upvalue's current storage.
func (uv *Upvalue) Set(v Value) {
	if uv.fiber != nil {
		uv.fiber.Stack[uv.slot] = v
		return
	}
	uv.closed = v
}

// Close moves the upvalue's value out of the fiber's stack into its own
// inline storage and detaches it from the fiber (spec.md §4.4).
func (uv *Upvalue) Close() {
	if uv.fiber == nil {
		return
	}
	uv.closed = uv.fiber.Stack[uv.slot]
	uv.fiber = nil
	uv.slot = 0
}
