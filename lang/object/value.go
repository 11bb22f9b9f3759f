package object

import (
	"fmt"
	"math"
)

// Kind discriminates the variants of Value (spec.md §3).
type Kind uint8

const ( //nolint:revive
	KindUndefined Kind = iota
	KindNull
	KindTrue
	KindFalse
	KindNum
	KindObj
)

// Value is the tagged union manipulated by the compiler and VM. Undefined is
// distinct from Null and is used only as an internal sentinel (unset map
// entries, unresolved forward references); no script-visible expression ever
// produces it.
type Value struct {
	kind Kind
	num  float64
	obj  Obj
}

var (
	undefinedValue = Value{kind: KindUndefined}
	nullValue      = Value{kind: KindNull}
	trueValue      = Value{kind: KindTrue}
	falseValue     = Value{kind: KindFalse}
)

// Undefined returns the internal "unset" sentinel value.
func Undefined() Value { return undefinedValue }

// Null returns the null value.
func Null() Value { return nullValue }

// Bool returns True or False for b.
func Bool(b bool) Value {
	if b {
		return trueValue
	}
	return falseValue
}

// Num returns a numeric value wrapping f.
func Num(f float64) Value { return Value{kind: KindNum, num: f} }

// FromObj returns a Value wrapping the heap object o.
func FromObj(o Obj) Value { return Value{kind: KindObj, obj: o} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNum() bool       { return v.kind == KindNum }
func (v Value) IsObj() bool       { return v.kind == KindObj }
func (v Value) IsBool() bool      { return v.kind == KindTrue || v.kind == KindFalse }

// IsFalsy reports whether v is one of the two falsy values (Null, False);
// every other value, including 0 and "", is truthy (spec.md §4.3).
func (v Value) IsFalsy() bool { return v.kind == KindNull || v.kind == KindFalse }

// IsTruthy is the negation of IsFalsy.
func (v Value) IsTruthy() bool { return !v.IsFalsy() }

// AsNum returns the numeric payload; only valid when IsNum().
func (v Value) AsNum() float64 { return v.num }

// AsBool returns the boolean payload; only valid when IsBool().
func (v Value) AsBool() bool { return v.kind == KindTrue }

// AsObj returns the heap object payload; only valid when IsObj().
func (v Value) AsObj() Obj { return v.obj }

// ClassTable holds the VM's built-in class pointers so Value.ClassOf can map
// any value, including unboxed bools/nums/null, to its class without the
// object package depending on lang/vm.
type ClassTable struct {
	ObjectClass *Class
	ClassClass  *Class
	BoolClass   *Class
	NumClass    *Class
	StringClass *Class
	ListClass   *Class
	MapClass    *Class
	RangeClass  *Class
	NullClass   *Class
	FnClass     *Class
	FiberClass  *Class
}

// ClassOf returns the class of v. For Obj values this is the header's class,
// or, for a built-in kind whose header carries none, the matching entry of
// ct; for unboxed kinds it comes from ct.
func (v Value) ClassOf(ct *ClassTable) *Class {
	switch v.kind {
	case KindNull:
		return ct.NullClass
	case KindTrue, KindFalse:
		return ct.BoolClass
	case KindNum:
		return ct.NumClass
	case KindObj:
		if c := ClassOf(v.obj); c != nil {
			return c
		}
		switch v.obj.(type) {
		case *String:
			return ct.StringClass
		case *List:
			return ct.ListClass
		case *Map:
			return ct.MapClass
		case *Range:
			return ct.RangeClass
		case *Closure:
			return ct.FnClass
		case *Fiber:
			return ct.FiberClass
		}
		return nil
	default:
		return nil
	}
}

// Equal implements spec.md §3's equality rule: numbers by IEEE-754 equality,
// strings by byte content, ranges by from/to, other objects by identity,
// differing variants are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull, KindTrue, KindFalse:
		return true
	case KindNum:
		return a.num == b.num
	case KindObj:
		return equalObj(a.obj, b.obj)
	default:
		return false
	}
}

func equalObj(a, b Obj) bool {
	if a == b {
		return true
	}
	if as, ok := a.(*String); ok {
		if bs, ok := b.(*String); ok {
			return as.Hash == bs.Hash && string(as.Bytes) == string(bs.Bytes)
		}
		return false
	}
	if ar, ok := a.(*Range); ok {
		if br, ok := b.(*Range); ok {
			return ar.From == br.From && ar.To == br.To
		}
		return false
	}
	return false
}

// String renders v for debug/print purposes; script-level `toString`
// dispatch happens at the VM/corelib layer, where Object's default toString
// primitive returns this rendering. It also serves error messages and REPL
// echo of non-instance values.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "<undefined>"
	case KindNull:
		return "null"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindNum:
		return formatNum(v.num)
	case KindObj:
		switch o := v.obj.(type) {
		case *String:
			return string(o.Bytes)
		case *Range:
			return fmt.Sprintf("%s...%s", formatNum(o.From), formatNum(o.To))
		case *List:
			return "[list]"
		case *Map:
			return "[map]"
		case *Class:
			return o.Name
		case *Instance:
			return fmt.Sprintf("instance of %s", o.Class.Name)
		case *Closure, *Fn:
			return "<fn>"
		case *Fiber:
			return "<fiber>"
		default:
			return "<object>"
		}
	default:
		return "?"
	}
}

func formatNum(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "infinity"
	}
	if math.IsInf(f, -1) {
		return "-infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}
