// Package gc implements the tracing mark-and-sweep collector of spec.md
// §4.5: tri-color marking over an explicit gray worklist, non-moving,
// stop-the-world with respect to script execution.
//
// The teacher has no garbage collector of its own (machine.Value objects
// are ordinary Go heap allocations left to the Go runtime's GC), so this
// package has no teacher file to adapt; it is grounded directly on
// spec.md §4.5 and on the original C source's gc/gc.c (algorithm shape:
// reset-mark/gray-roots/blacken-worklist/sweep-list/resize-threshold), given
// idiomatic Go shape: a gray/grayValue method pair instead of C
// function pointers, and object.Obj used as the uniform node type the way
// lang/object's Header/Obj pair was designed for exactly this (spec.md §9:
// "a systems-language implementation should use arena/handle indices...
// rather than raw back-pointers to make the mark phase cheap and safe" —
// here, Header.Next/Class double as that handle graph).
package gc

import "github.com/mna/fen/lang/object"

// Roots is the full root set of spec.md §4.5: the current fiber, every
// loaded module, the VM's built-in class table, the live method-name symbol
// strings, a bounded array of temporary roots held by in-flight allocator
// callers, and a hook back into the compiler for the live compile-unit
// chain (so in-progress Fns and their constants survive a GC triggered
// while compiling).
type Roots struct {
	Fiber        *object.Fiber
	Modules      map[string]*object.Module
	Classes      *object.ClassTable
	MethodNames  []*object.String
	Temp         []object.Value
	CompileUnits func() []object.Value
}

// Collector owns the VM-wide all-objects list and heap-growth bookkeeping.
type Collector struct {
	all      object.Obj
	worklist []object.Obj

	AllocatedBytes   int64
	NextGC           int64
	HeapGrowthFactor float64
	MinHeapSize      int64
}

// New returns a Collector with the given growth factor and minimum heap
// size (spec.md §4.5, "Triggering").
func New(growthFactor float64, minHeapSize int64) *Collector {
	if growthFactor <= 1 {
		growthFactor = 2
	}
	if minHeapSize <= 0 {
		minHeapSize = 1 << 20
	}
	return &Collector{HeapGrowthFactor: growthFactor, MinHeapSize: minHeapSize, NextGC: minHeapSize}
}

// Track links a freshly allocated object into the all-objects list and
// records its accounted size (spec.md §3, invariant 1).
func (c *Collector) Track(o object.Obj, size int) {
	h := object.HeaderOf(o)
	h.Size = size
	h.Mark = object.White
	h.Next = c.all
	c.all = o
	c.AllocatedBytes += int64(size)
}

// ShouldCollect reports whether AllocatedBytes has crossed NextGC (spec.md
// §4.5, "Triggering").
func (c *Collector) ShouldCollect() bool { return c.AllocatedBytes > c.NextGC }

func (c *Collector) gray(o object.Obj) {
	if o == nil {
		return
	}
	h := object.HeaderOf(o)
	if h.Mark != object.White {
		return
	}
	h.Mark = object.Gray
	c.worklist = append(c.worklist, o)
}

func (c *Collector) grayValue(v object.Value) {
	if v.IsObj() {
		c.gray(v.AsObj())
	}
}

// Collect runs one full mark-and-sweep cycle over roots (spec.md §4.5,
// "Algorithm").
func (c *Collector) Collect(roots Roots) {
	// 1. reset all marks to white.
	for o := c.all; o != nil; o = object.HeaderOf(o).Next {
		object.HeaderOf(o).Mark = object.White
	}

	// 2. gray every root.
	c.worklist = c.worklist[:0]
	if roots.Fiber != nil {
		c.gray(roots.Fiber)
	}
	for _, m := range roots.Modules {
		c.gray(m)
	}
	if ct := roots.Classes; ct != nil {
		for _, cls := range []*object.Class{
			ct.ObjectClass, ct.ClassClass, ct.BoolClass, ct.NumClass, ct.StringClass,
			ct.ListClass, ct.MapClass, ct.RangeClass, ct.NullClass, ct.FnClass, ct.FiberClass,
		} {
			c.gray(cls)
		}
	}
	for _, s := range roots.MethodNames {
		c.gray(s)
	}
	for _, v := range roots.Temp {
		c.grayValue(v)
	}
	if roots.CompileUnits != nil {
		for _, v := range roots.CompileUnits() {
			c.grayValue(v)
		}
	}

	// 3. drain the gray worklist, blackening as we go and accumulating the
	// live byte total (spec.md §4.5, step 3).
	var liveBytes int64
	for len(c.worklist) > 0 {
		o := c.worklist[len(c.worklist)-1]
		c.worklist = c.worklist[:len(c.worklist)-1]
		h := object.HeaderOf(o)
		h.Mark = object.Black
		liveBytes += int64(h.Size)
		c.blacken(o)
	}

	// 4. sweep: free every object still white, unlink it from the list.
	var prev object.Obj
	for o := c.all; o != nil; {
		h := object.HeaderOf(o)
		next := h.Next
		if h.Mark == object.White {
			if prev == nil {
				c.all = next
			} else {
				object.HeaderOf(prev).Next = next
			}
		} else {
			prev = o
		}
		o = next
	}

	// 5. recompute the next collection threshold.
	c.AllocatedBytes = liveBytes
	grown := int64(float64(liveBytes) * c.HeapGrowthFactor)
	if grown < c.MinHeapSize {
		grown = c.MinHeapSize
	}
	c.NextGC = grown
}

// blacken visits every outgoing reference of o, the way spec.md §4.5's
// "Blacken per type" table specifies.
func (c *Collector) blacken(o object.Obj) {
	switch v := o.(type) {
	case *object.Class:
		c.gray(v.Class) // metaclass, via the shared Header.Class slot
		c.gray(v.Super)
		for _, m := range v.Methods {
			if m.Kind == object.MethodScript {
				c.gray(m.Script)
			}
		}

	case *object.Closure:
		c.gray(v.Fn)
		for _, uv := range v.Upvalues {
			c.gray(uv)
		}

	case *object.Fiber:
		for _, fr := range v.Frames {
			c.gray(fr.Closure)
		}
		for i := 0; i < v.StackTop; i++ {
			c.grayValue(v.Stack[i])
		}
		for uv := v.OpenUpvalues; uv != nil; uv = uv.Next {
			c.gray(uv)
		}
		c.gray(v.Caller)
		c.grayValue(v.Error)

	case *object.Fn:
		for _, k := range v.Constants {
			c.grayValue(k)
		}
		c.gray(v.Module)

	case *object.Instance:
		c.gray(v.Class)
		for _, f := range v.Fields {
			c.grayValue(f)
		}

	case *object.List:
		for _, e := range v.Elems {
			c.grayValue(e)
		}

	case *object.Map:
		v.Each(func(k, val object.Value) {
			c.grayValue(k)
			c.grayValue(val)
		})

	case *object.Module:
		for _, val := range v.VarValues {
			c.grayValue(val)
		}

	case *object.Upvalue:
		// Open upvalues are reachable via the owning fiber's stack, not via
		// the upvalue itself (spec.md §4.5); only closed storage is traced.
		if !v.IsOpen() {
			c.grayValue(v.Get())
		}

	case *object.Range, *object.String:
		// no outgoing references.
	}
}
