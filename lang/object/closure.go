package object

// Closure pairs a Fn with the upvalues it captured at creation time
// (spec.md §3). Invariant 2: len(Upvalues) == Fn.UpvalueNum.
type Closure struct {
	Header

	Fn       *Fn
	Upvalues []*Upvalue
}

var _ Obj = (*Closure)(nil)

// NewClosure allocates a closure over fn with freshly-sized (nil) upvalue
// slots; the VM fills them in as CreateClosure executes (spec.md §4.4).
func NewClosure(fn *Fn) *Closure {
	c := &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueNum)}
	c.Header.Type = TypeClosure
	return c
}
