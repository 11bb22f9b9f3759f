package object

// List is a growable Value vector (spec.md §3).
type List struct {
	Header

	Elems []Value
}

var _ Obj = (*List)(nil)

// NewList allocates an empty list with capacity for size elements.
func NewList(size int) *List {
	l := &List{Elems: make([]Value, 0, size)}
	l.Header.Type = TypeList
	return l
}

func (l *List) Len() int { return len(l.Elems) }

func (l *List) Append(v Value) { l.Elems = append(l.Elems, v) }

func (l *List) At(i int) Value { return l.Elems[i] }

func (l *List) SetAt(i int, v Value) { l.Elems[i] = v }

// InsertAt inserts v before index i, shifting later elements right.
func (l *List) InsertAt(i int, v Value) {
	l.Elems = append(l.Elems, Undefined())
	copy(l.Elems[i+1:], l.Elems[i:])
	l.Elems[i] = v
}

// RemoveAt removes and returns the element at index i.
func (l *List) RemoveAt(i int) Value {
	v := l.Elems[i]
	copy(l.Elems[i:], l.Elems[i+1:])
	l.Elems = l.Elems[:len(l.Elems)-1]
	return v
}
