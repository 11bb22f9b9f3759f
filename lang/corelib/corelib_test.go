package corelib_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/corelib"
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/vm"
)

// newVM installs the core library onto a fresh VM whose Stdout writes to buf,
// so tests can assert on System.print output.
func newVM(t *testing.T, buf *bytes.Buffer) (*vm.VM, *corelib.Core) {
	t.Helper()
	v := vm.New()
	v.Stdout = buf
	core, err := corelib.Install(v)
	require.NoError(t, err)
	return v, core
}

// run compiles and executes src as a fresh module, returning its result.
func run(t *testing.T, v *vm.VM, core *corelib.Core, src string) (object.Value, error) {
	t.Helper()
	mod := object.NewModule("test")
	core.Inject(mod)
	fn, err := compiler.Compile("test", []byte(src), mod, v.MethodNames)
	require.NoError(t, err)
	closure := v.NewClosure(fn)
	return v.Run(closure, object.Null(), nil)
}

func TestInstallDeclaresEveryBuiltin(t *testing.T) {
	var buf bytes.Buffer
	_, core := newVM(t, &buf)
	for _, name := range []string{
		"Object", "Class", "Bool", "Num", "String",
		"List", "Map", "Range", "Null", "Fn", "Thread", "System",
	} {
		assert.NotEqual(t, -1, core.Module.IndexOf(name), "missing builtin %s", name)
	}
}

func TestNumArithmetic(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `return 1 + 2 * 3`)
	require.NoError(t, err)
	assert.Equal(t, float64(7), result.AsNum())
}

func TestStringConcatAndCount(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `return ("foo" + "bar").count`)
	require.NoError(t, err)
	assert.Equal(t, float64(6), result.AsNum())
}

func TestListMutationAndIteration(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `
		var list = [1, 2, 3]
		var total = 0
		for (n in list) { total = total + n }
		list.add(4)
		return total + list.count
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(10), result.AsNum())
}

func TestMapSubscriptAndIteration(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `
		var m = {"a": 1, "b": 2}
		m["c"] = 3
		var total = 0
		for (k in m) { total = total + m[k] }
		return total
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(6), result.AsNum())
}

func TestRangeIteration(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `
		var total = 0
		for (i in 1..3) { total = total + i }
		return total
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(6), result.AsNum())
}

func TestFnCall(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `
		var add = Fn.new |a, b| { return a + b }
		return add.call(2, 3)
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(5), result.AsNum())
}

func TestThreadCallAndYield(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `
		var t = Thread.new {
			Thread.yield(1)
			return 2
		}
		var first = t.call
		var second = t.call
		return first + second
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.AsNum())
}

func TestSystemPrint(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	_, err := run(t, v, core, `System.print("hello")`)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", buf.String())
}

func TestCoreScriptHelpers(t *testing.T) {
	var buf bytes.Buffer
	v, core := newVM(t, &buf)
	result, err := run(t, v, core, `return max(min(5, 3), abs(-1))`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.AsNum())
}
