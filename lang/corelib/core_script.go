package corelib

// coreSource is compiled and run into the core module by Install, the way
// the original source's buildCore loads CORE_MODULE_STR before any user
// code runs (vm/core.c). Its shape, not its text, is grounded on that file:
// a handful of top-level helpers built out of primitives already bound on
// Num/List, available to every module without an import (spec.md §4.4,
// "inherits core-module variables").
const coreSource = `
define abs(n) {
	if (n < 0) { return -n }
	return n
}

define max(a, b) {
	if (a > b) { return a }
	return b
}

define min(a, b) {
	if (a < b) { return a }
	return b
}

define clamp(n, low, high) {
	if (n < low) { return low }
	if (n > high) { return high }
	return n
}

define sum(list) {
	var total = 0
	for (n in list) { total = total + n }
	return total
}
`
