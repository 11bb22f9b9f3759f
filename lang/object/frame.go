package object

// Frame records one active call on a fiber's frame stack: which closure is
// executing, where (the instruction pointer), and where its locals begin on
// the fiber's value stack (spec.md §3, "Frame"). Slot 0 relative to
// StackStart is always the receiver (`self`).
type Frame struct {
	Closure    *Closure
	IP         int
	StackStart int
}
