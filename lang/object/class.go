package object

// Class is a heap object describing a set of instance fields and a method
// table indexed by the process-wide method-name symbol id (spec.md §3). The
// metaclass of the root class Class is itself.
type Class struct {
	Header

	Super    *Class
	Name     string
	FieldNum int // includes inherited fields
	Methods  []Method
}

var _ Obj = (*Class)(nil)

// Metaclass returns c's metaclass. Every object's Header.Class field points
// at its class; for a Class object that field holds its metaclass, so this
// is just a readable alias for c.Header.Class (spec.md §3: "Every class has
// a metaclass; the metaclass of the root class Class is itself").
func (c *Class) Metaclass() *Class { return c.Header.Class }

// NewClass allocates a class with super as its superclass (may be nil only
// for the bootstrap Object class), inheriting super's field count and a copy
// of its method table; the caller adds the class's own fields to FieldNum.
func NewClass(name string, super *Class) *Class {
	c := &Class{Name: name, Super: super}
	c.Header.Type = TypeClass
	if super != nil {
		c.FieldNum = super.FieldNum
		c.Methods = append([]Method(nil), super.Methods...)
	}
	return c
}

// BindMethod installs m at the global symbol id for the method's signature,
// growing the method table as needed. This is how a subclass's own
// definitions overlay the copied superclass table (spec.md §3, "Class").
func (c *Class) BindMethod(symbol int, m Method) {
	if symbol >= len(c.Methods) {
		grown := make([]Method, symbol+1)
		copy(grown, c.Methods)
		c.Methods = grown
	}
	c.Methods[symbol] = m
}

// MethodAt returns the method bound at symbol, or the zero Method (kind
// MethodNone) if the slot is absent (spec.md §3, invariant 4).
func (c *Class) MethodAt(symbol int) Method {
	if symbol < 0 || symbol >= len(c.Methods) {
		return Method{}
	}
	return c.Methods[symbol]
}

// IsSubclassOf reports whether c is other or descends from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == other {
			return true
		}
	}
	return false
}

// BootstrapRootClasses builds the closed metaclass loop spec.md §3 and
// SPEC_FULL.md §4 require before any other class can be created: Object has
// no superclass; Class is itself a subclass of Object; Object's metaclass
// is an ordinary Class instance whose superclass is Class; and Class's own
// metaclass is Class itself. Every class created afterwards (lang/vm's
// NewClass) extends this chain by copying a superclass's metaclass, which
// only works once this base case exists.
//
// Grounded on wren_core.c's wrenInitializeCore bootstrap (same three-object
// dance, no reusable Go library expresses a metaclass loop like this one).
func BootstrapRootClasses() (objectClass, classClass *Class) {
	objectClass = &Class{Name: "Object"}
	objectClass.Header.Type = TypeClass

	classClass = &Class{Name: "Class", Super: objectClass}
	classClass.Header.Type = TypeClass

	objectMeta := &Class{Name: "Object metaclass", Super: classClass}
	objectMeta.Header.Type = TypeClass

	objectClass.Header.Class = objectMeta
	objectMeta.Header.Class = classClass
	classClass.Header.Class = classClass // "the metaclass of the root class Class is itself"

	return objectClass, classClass
}
