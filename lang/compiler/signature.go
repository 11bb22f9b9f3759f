package compiler

import "strings"

// SignatureKind distinguishes the callable shapes spec.md §4.2 assigns a
// method symbol: a bare getter, a one-argument setter, an ordinary method
// with a fixed arity, a constructor, and the two subscript operator forms.
type SignatureKind uint8

const ( //nolint:revive
	SigGetter SignatureKind = iota
	SigSetter
	SigMethod
	SigConstructor
	SigSubscript
	SigSubscriptSetter
)

// Signature identifies one overload of a method name: spec.md §4.2 requires
// that arity be part of the symbol, so `foo()` and `foo(_)` never collide.
type Signature struct {
	Kind  SignatureKind
	Name  string
	Arity int
}

func underscores(n int) string {
	if n == 0 {
		return ""
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "_"
	}
	return strings.Join(parts, ",")
}

// Text renders the signature's canonical textual form, the string interned
// into the process-wide method symbol table (spec.md §4.2).
func (s Signature) Text() string {
	switch s.Kind {
	case SigGetter:
		return s.Name
	case SigSetter:
		return s.Name + "=(_)"
	case SigMethod:
		return s.Name + "(" + underscores(s.Arity) + ")"
	case SigConstructor:
		// Same form as SigMethod. class.go binds the allocating wrapper under
		// this text in the metaclass's method table and the initializer under
		// the same text in the class's own method table.
		return s.Name + "(" + underscores(s.Arity) + ")"
	case SigSubscript:
		return "[" + underscores(s.Arity) + "]"
	case SigSubscriptSetter:
		return "[" + underscores(s.Arity) + "]=(_)"
	default:
		return s.Name
	}
}
