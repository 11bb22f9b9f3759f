package object

// Range is an immutable pair of endpoints; direction is encoded by the sign
// of To-From (spec.md §3).
type Range struct {
	Header

	From, To float64
}

var _ Obj = (*Range)(nil)

// NewRange allocates a Range from `from` to `to`.
func NewRange(from, to float64) *Range {
	r := &Range{From: from, To: to}
	r.Header.Type = TypeRange
	return r
}

// IsAscending reports whether iterating the range moves from From upward.
func (r *Range) IsAscending() bool { return r.To >= r.From }
