// Package object defines the runtime value representation of spec.md §3: the
// tagged Value union, the common object header carried by every heap kind,
// and each concrete heap object (Class, List, Map, Module, Range, String,
// Upvalue, Fn, Closure, Instance, Fiber).
//
// None of this is adapted from the teacher: mna-nenuphar represents values
// as a Go interface (machine.Value, satisfied by *String/*List/...), which
// is idiomatic for a tree-walking-flavored evaluator but does not give the
// tracing collector of spec.md §4.5 a single non-polymorphic place to hang a
// mark bit and an all-objects link. Fen instead uses a struct-tagged union
// (kind + float64 + Obj) the way the spec's own source (a C struct with a
// tag union) shapes it, translated to idiomatic Go: Obj is a small interface
// implemented by every heap kind via an embedded Header, so the GC can walk
// a homogeneous linked list without reflection.
package object

// Type is the heap object kind tag stored in every Header (spec.md §3,
// "Object header").
type Type uint8

const ( //nolint:revive
	TypeClass Type = iota
	TypeList
	TypeMap
	TypeModule
	TypeRange
	TypeString
	TypeUpvalue
	TypeFn
	TypeClosure
	TypeInstance
	TypeFiber
)

func (t Type) String() string {
	switch t {
	case TypeClass:
		return "Class"
	case TypeList:
		return "List"
	case TypeMap:
		return "Map"
	case TypeModule:
		return "Module"
	case TypeRange:
		return "Range"
	case TypeString:
		return "String"
	case TypeUpvalue:
		return "Upvalue"
	case TypeFn:
		return "Fn"
	case TypeClosure:
		return "Closure"
	case TypeInstance:
		return "Instance"
	case TypeFiber:
		return "Thread"
	default:
		return "?"
	}
}

// Color is the tri-color mark used by the mark-and-sweep collector of
// spec.md §4.5: White (not yet visited, collected if still white at sweep),
// Gray (queued, not yet blackened) and Black (visited, all references
// pushed to the gray worklist).
type Color uint8

const (
	White Color = iota
	Gray
	Black
)

// Header is the common prefix embedded in every heap object: its type tag,
// GC mark, owning class, link in the VM-wide all-objects list, and the
// accounted byte size used for GC heap-growth bookkeeping (spec.md §3,
// invariant 1).
type Header struct {
	Type  Type
	Mark  Color
	Class *Class
	Next  Obj
	Size  int
}

func (h *Header) header() *Header { return h }

// Obj is implemented by every heap object kind; the GC and the all-objects
// list operate exclusively through this interface.
type Obj interface {
	header() *Header
}

// HeaderOf returns the Header embedded in any Obj.
func HeaderOf(o Obj) *Header {
	if o == nil {
		return nil
	}
	return o.header()
}

// ClassOf returns the class recorded in o's header.
func ClassOf(o Obj) *Class {
	if o == nil {
		return nil
	}
	return o.header().Class
}
