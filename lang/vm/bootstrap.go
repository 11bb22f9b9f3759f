package vm

import "github.com/mna/fen/lang/object"

// Bootstrap builds Object and Class (and Object's metaclass) via
// object.BootstrapRootClasses, tracks all three so the GC can sweep them
// like any other allocation, and installs the two public ones into
// vm.Classes. Every other built-in class (lang/corelib's job) is created
// afterwards with the ordinary vm.NewClass, which depends on ClassClass
// already existing — hence this has to run first, and separately.
func (vm *VM) Bootstrap() (objectClass, classClass *object.Class) {
	objectClass, classClass = object.BootstrapRootClasses()

	vm.Collector.Track(objectClass, 32)
	vm.Collector.Track(classClass, 32)
	vm.Collector.Track(objectClass.Metaclass(), 32)

	vm.Classes.ObjectClass = objectClass
	vm.Classes.ClassClass = classClass
	return objectClass, classClass
}
