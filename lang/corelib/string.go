package corelib

import (
	"errors"
	"strings"

	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

var errRangeBounds = errors.New("range out of bounds")

// bindString installs String's concatenation, comparison, subscript and
// byte/codepoint accessors (spec.md §3 "String", §6 "import_"). toString
// returning self (rather than Object's default, which would still produce
// the right text but allocate a redundant copy) mirrors how interpolation
// and System.print avoid double-converting an already-String value.
func bindString(v *vm.VM, cls *object.Class) {
	bind(v, cls, getter("toString"), func(_ object.Scheduler, args []object.Value) bool {
		return true
	})

	bind(v, cls, method("+", 1), func(_ object.Scheduler, args []object.Value) bool {
		other, ok := args[1].AsObj().(*object.String)
		if !ok {
			return fail(v, "right-hand operand of + must be a string")
		}
		recv := args[0].AsObj().(*object.String)
		args[0] = object.FromObj(v.NewString(string(recv.Bytes) + string(other.Bytes)))
		return true
	})

	cmp := func(op func(a, b string) bool) object.PrimitiveFn {
		return func(_ object.Scheduler, args []object.Value) bool {
			other, ok := args[1].AsObj().(*object.String)
			if !ok {
				return fail(v, "right-hand operand must be a string")
			}
			recv := args[0].AsObj().(*object.String)
			args[0] = object.Bool(op(string(recv.Bytes), string(other.Bytes)))
			return true
		}
	}
	bind(v, cls, method("<", 1), cmp(func(a, b string) bool { return a < b }))
	bind(v, cls, method("<=", 1), cmp(func(a, b string) bool { return a <= b }))
	bind(v, cls, method(">", 1), cmp(func(a, b string) bool { return a > b }))
	bind(v, cls, method(">=", 1), cmp(func(a, b string) bool { return a >= b }))

	bind(v, cls, getter("count"), func(_ object.Scheduler, args []object.Value) bool {
		s := args[0].AsObj().(*object.String)
		args[0] = object.Num(float64(s.RuneCount()))
		return true
	})
	bind(v, cls, getter("byteCount"), func(_ object.Scheduler, args []object.Value) bool {
		s := args[0].AsObj().(*object.String)
		args[0] = object.Num(float64(s.Len()))
		return true
	})
	bind(v, cls, getter("isEmpty"), func(_ object.Scheduler, args []object.Value) bool {
		s := args[0].AsObj().(*object.String)
		args[0] = object.Bool(s.Len() == 0)
		return true
	})

	bind(v, cls, method("byteAt_", 1), func(_ object.Scheduler, args []object.Value) bool {
		s := args[0].AsObj().(*object.String)
		i := int(args[1].AsNum())
		if i < 0 || i >= s.Len() {
			return fail(v, "byte index out of bounds")
		}
		args[0] = object.Num(float64(s.ByteAt(i)))
		return true
	})
	bind(v, cls, method("codePointAt_", 1), func(_ object.Scheduler, args []object.Value) bool {
		s := args[0].AsObj().(*object.String)
		i := int(args[1].AsNum())
		if i < 0 || i >= s.Len() {
			return fail(v, "byte index out of bounds")
		}
		r, _ := s.CodePointAt(i)
		args[0] = object.Num(float64(r))
		return true
	})

	bind(v, cls, subscript(1), func(_ object.Scheduler, args []object.Value) bool {
		s := args[0].AsObj().(*object.String)
		if r, ok := args[1].AsObj().(*object.Range); ok {
			sub, err := sliceString(s.Bytes, r)
			if err != nil {
				return fail(v, "%s", err)
			}
			args[0] = object.FromObj(v.NewString(sub))
			return true
		}
		i := int(args[1].AsNum())
		if i < 0 {
			i += s.RuneCount()
		}
		runes := []rune(string(s.Bytes))
		if i < 0 || i >= len(runes) {
			return fail(v, "string index out of bounds")
		}
		args[0] = object.FromObj(v.NewString(string(runes[i])))
		return true
	})

	bind(v, cls, method("contains", 1), func(_ object.Scheduler, args []object.Value) bool {
		recv := args[0].AsObj().(*object.String)
		needle, ok := args[1].AsObj().(*object.String)
		if !ok {
			return fail(v, "argument to contains must be a string")
		}
		args[0] = object.Bool(strings.Contains(string(recv.Bytes), string(needle.Bytes)))
		return true
	})

	// import_ runs the target module for its side effects (declaring its own
	// module variables); importStatement drops the result (spec.md §4.2,
	// "import"). vm.VM.Import is responsible for caching by path so a module
	// already loaded compiles to a cheap no-op rather than re-running.
	bind(v, cls, getter("import_"), func(_ object.Scheduler, args []object.Value) bool {
		path := args[0].AsObj().(*object.String)
		if v.Import == nil {
			return fail(v, "import is not available")
		}
		fn, err := v.Import(string(path.Bytes))
		if err != nil {
			return fail(v, "%s", err)
		}
		closure := v.NewClosure(fn)
		if _, err := v.Run(closure, object.Null(), nil); err != nil {
			return fail(v, "%s", err)
		}
		args[0] = object.Null()
		return true
	})
}

// sliceString resolves a Range subscript against s's rune sequence,
// returning the selected substring (spec.md §3, String subscript by Range).
func sliceString(s []byte, r *object.Range) (string, error) {
	runes := []rune(string(s))
	n := len(runes)
	from, to := int(r.From), int(r.To)
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	if r.IsAscending() {
		if from < 0 || to > n || from > to+1 {
			return "", errRangeBounds
		}
		if from > n {
			from = n
		}
		end := to + 1
		if end > n {
			end = n
		}
		if from > end {
			from = end
		}
		return string(runes[from:end]), nil
	}
	if from >= n || to < -1 || from < to {
		return "", errRangeBounds
	}
	out := make([]rune, 0, from-to)
	for i := from; i > to; i-- {
		out = append(out, runes[i])
	}
	return string(out), nil
}
