package object

// Module is the dynamic counterpart of a compiled unit: a name, and two
// parallel vectors of module-variable names and values (spec.md §3). A name
// whose value is still a Num holding a line number is a forward-reference
// placeholder awaiting definition (spec.md §4.2).
type Module struct {
	Header

	Name      string
	VarNames  []string
	VarValues []Value
	varIndex  map[string]int
}

var _ Obj = (*Module)(nil)

// NewModule allocates an empty module.
func NewModule(name string) *Module {
	m := &Module{Name: name, varIndex: make(map[string]int)}
	m.Header.Type = TypeModule
	return m
}

// IndexOf returns the slot index of name, or -1 if it has never been
// referenced in this module.
func (m *Module) IndexOf(name string) int {
	if i, ok := m.varIndex[name]; ok {
		return i
	}
	return -1
}

// Declare ensures name has a slot, creating one initialized to initial if it
// doesn't exist yet, and returns its stable index (spec.md §3, invariant 6).
func (m *Module) Declare(name string, initial Value) int {
	if i, ok := m.varIndex[name]; ok {
		return i
	}
	i := len(m.VarNames)
	m.varIndex[name] = i
	m.VarNames = append(m.VarNames, name)
	m.VarValues = append(m.VarValues, initial)
	return i
}

// Define replaces the value at index i, used both for ordinary assignment
// and for resolving a forward-reference placeholder.
func (m *Module) Define(i int, v Value) { m.VarValues[i] = v }
