package object

// Instance is a user-defined object: a class pointer (in Header.Class) plus
// an inline array of class.FieldNum values (spec.md §3).
type Instance struct {
	Header

	Fields []Value
}

var _ Obj = (*Instance)(nil)

// NewInstance allocates an instance of class with every field initialized
// to Null.
func NewInstance(class *Class) *Instance {
	inst := &Instance{Fields: make([]Value, class.FieldNum)}
	inst.Header.Type = TypeInstance
	inst.Header.Class = class
	for i := range inst.Fields {
		inst.Fields[i] = Null()
	}
	return inst
}
