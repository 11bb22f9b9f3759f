package object

import "github.com/dolthub/swiss"

// SymbolTable interns method-name signatures to a dense process-wide
// integer id (spec.md GLOSSARY, "Method symbol id"). A
// Class's method table and a compile unit's emitted Call/Super operands both
// index by this id.
//
// Backed by github.com/dolthub/swiss (via the teacher's own
// github.com/mna/swiss replace) rather than a plain Go map: the teacher
// pulls this dependency in for its own machine.Map, but spec.md's Map needs
// hand-rolled tombstone semantics a swiss table can't expose (see
// object/map.go and DESIGN.md) — so the dependency is instead put to work
// here, which is exactly the insert/Get-heavy, identity-keyed workload swiss
// tables are built for.
type SymbolTable struct {
	byName *swiss.Map[string, int]
	names  []*String // names[id] is the interned String for id; also GC roots
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: swiss.NewMap[string, int](64)}
}

// Intern returns the id for name, assigning a new one if this is the first
// time it's been seen.
func (t *SymbolTable) Intern(name string) int {
	if id, ok := t.byName.Get(name); ok {
		return id
	}
	id := len(t.names)
	t.byName.Put(name, id)
	t.names = append(t.names, NewString(name))
	return id
}

// Lookup returns the id for name without interning it, and whether it was
// found.
func (t *SymbolTable) Lookup(name string) (int, bool) {
	return t.byName.Get(name)
}

// NameAt returns the interned String object for id (used by the GC root
// set and by error messages).
func (t *SymbolTable) NameAt(id int) *String {
	if id < 0 || id >= len(t.names) {
		return nil
	}
	return t.names[id]
}

// Strings returns every interned name string, for use as GC roots
// (spec.md §4.5: "the allMethodNames symbol table (only the strings...)").
func (t *SymbolTable) Strings() []*String { return t.names }
