package compiler

import (
	"github.com/mna/fen/lang/bytecode"
	"github.com/mna/fen/lang/object"
)

// unitKind distinguishes the handful of things a single compile unit can be
// compiling (spec.md §4.2): the implicit top-level script function, a
// `define`d function, a method body, a constructor body, or a block-argument
// closure body. All five share the same local/upvalue/loop machinery below.
type unitKind uint8

const ( //nolint:revive
	unitScript unitKind = iota
	unitFunction
	unitMethod
	unitConstructor
	unitBlock
)

type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records how a unit's Nth upvalue is captured from its
// enclosing unit: either directly off an enclosing local slot, or
// transitively off one of the enclosing unit's own upvalues (spec.md §4.4,
// CreateClosure).
type upvalueRef struct {
	index   int
	isLocal bool
}

// loopCtx tracks the two patch points `break` and `continue` need: the byte
// offset to loop back to, and every forward Jump operand emitted by a
// `break` inside this loop, patched once the loop's end address is known
// (spec.md §9: Fen uses a dedicated pending-jump list rather than reusing
// the disassembly End opcode as a break placeholder the way the original C
// source does, since that quirk only exists to make a debug disassembler
// skip dead bytes — out of scope here per spec.md's Non-goals).
type loopCtx struct {
	continueTarget int
	scopeDepth     int
	breakJumps     []int
}

// classCtx is pushed while compiling the body of a class declaration, so
// `self`/`super` and static-vs-instance method dispatch can be resolved
// without threading extra parameters through every statement/expression
// function.
type classCtx struct {
	enclosing     *classCtx
	name          string
	superName     string // the declared superclass, or "Object" when none was declared
	inStaticScope bool
}

func (cc *classCtx) hasSuper() bool { return cc != nil && cc.superName != "" }

// unit holds everything needed to compile one Fn body: its growing bytecode
// buffer, constant pool, local/upvalue tables, and enclosing-unit link for
// upvalue capture (spec.md §4.2, §4.4).
type unit struct {
	enclosing *unit
	kind      unitKind
	class     *classCtx

	fn *object.Fn

	code  []byte
	lines []int

	constants    []object.Value
	constIndex   map[string]int // keyed by a discriminated textual form, literals only

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef

	loops []*loopCtx

	curStack, maxStack int
}

func newUnit(enclosing *unit, kind unitKind, fn *object.Fn, class *classCtx) *unit {
	u := &unit{enclosing: enclosing, kind: kind, fn: fn, class: class, constIndex: make(map[string]int)}
	// Slot 0 is always reserved for the receiver (spec.md §4.4 calling
	// convention, mirrored from object.PrimitiveFn's args[0]-is-receiver
	// rule). Only a method/constructor names it "self"; a plain function,
	// the script unit, or a block argument literal must resolve `self` by
	// capturing it as an upvalue from the nearest enclosing method instead,
	// since their own slot 0 holds something else (the running closure, or
	// the block itself).
	recv := ""
	if kind == unitMethod || kind == unitConstructor {
		recv = "self"
	}
	u.locals = append(u.locals, local{name: recv, depth: 0})
	return u
}

func (u *unit) emitByte(b byte, line int) {
	u.code = append(u.code, b)
	u.lines = append(u.lines, line)
}

func (u *unit) emitUint16(v uint16, line int) {
	u.emitByte(byte(v>>8), line)
	u.emitByte(byte(v), line)
}

// emit writes op and tracks the resulting operand stack depth so fn.MaxStack
// can be computed without a second pass (see unit.go doc and gc.go's
// analogous single-table-driven design).
func (u *unit) emit(op bytecode.Op, line int) int {
	pos := len(u.code)
	u.emitByte(byte(op), line)
	u.trackStack(bytecode.StackEffect(op))
	return pos
}

func (u *unit) trackStack(effect int) {
	u.curStack += effect
	if u.curStack > u.maxStack {
		u.maxStack = u.curStack
	}
}

func (u *unit) emitOperand16(v int, line int) {
	u.emitUint16(uint16(v), line)
}

func (u *unit) emitByteOperand(v int, line int) {
	u.emitByte(byte(v), line)
}

// emitConstant interns v (by its rendered literal form) into the constant
// pool, reusing an existing slot when the same literal already appears, and
// emits LoadConstant for it.
func (u *unit) emitConstant(v object.Value, key string, line int) {
	idx, ok := u.constIndex[key]
	if !ok {
		idx = len(u.constants)
		u.constants = append(u.constants, v)
		u.constIndex[key] = idx
	}
	u.emit(bytecode.LoadConstant, line)
	u.emitOperand16(idx, line)
}

// emitJump emits a two-operand-byte placeholder jump and returns its operand
// offset, to be resolved later by patchJump.
func (u *unit) emitJump(op bytecode.Op, line int) int {
	u.emit(op, line)
	pos := len(u.code)
	u.emitUint16(0xFFFF, line)
	return pos
}

// patchJump backfills the jump at operandPos with the distance from just
// after its operand to the current end of code.
func (u *unit) patchJump(operandPos int) {
	offset := len(u.code) - (operandPos + 2)
	u.code[operandPos] = byte(offset >> 8)
	u.code[operandPos+1] = byte(offset)
}

// emitLoop emits a backward Loop jump to target.
func (u *unit) emitLoop(target int, line int) {
	u.emit(bytecode.Loop, line)
	offset := len(u.code) + 2 - target
	u.emitUint16(uint16(offset), line)
}

func (u *unit) beginScope() { u.scopeDepth++ }

// endScope pops every local declared at or below the departing scope depth,
// emitting CloseUpvalue for any that were captured so the heap copy
// survives the stack frame going away (spec.md §4.4).
func (u *unit) endScope(line int) {
	u.scopeDepth--
	for len(u.locals) > 0 && u.locals[len(u.locals)-1].depth > u.scopeDepth {
		last := u.locals[len(u.locals)-1]
		if last.isCaptured {
			u.emit(bytecode.CloseUpvalue, line)
		} else {
			u.emit(bytecode.Pop, line)
		}
		u.locals = u.locals[:len(u.locals)-1]
	}
}

func (u *unit) addLocal(name string) int {
	u.locals = append(u.locals, local{name: name, depth: u.scopeDepth})
	return len(u.locals) - 1
}

// resolveLocal finds name among this unit's own locals, innermost scope
// first.
func (u *unit) resolveLocal(name string) int {
	for i := len(u.locals) - 1; i >= 0; i-- {
		if u.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue finds name in an enclosing unit, capturing it through as
// many levels of nested closures as needed and returning this unit's own
// upvalue index for it (spec.md §4.4, CreateClosure).
func (u *unit) resolveUpvalue(name string) int {
	if u.enclosing == nil {
		return -1
	}
	if slot := u.enclosing.resolveLocal(name); slot != -1 {
		u.enclosing.locals[slot].isCaptured = true
		return u.addUpvalue(slot, true)
	}
	if up := u.enclosing.resolveUpvalue(name); up != -1 {
		return u.addUpvalue(up, false)
	}
	return -1
}

func (u *unit) addUpvalue(index int, isLocal bool) int {
	for i, uv := range u.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	u.upvalues = append(u.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(u.upvalues) - 1
}

func (u *unit) currentLoop() *loopCtx {
	if len(u.loops) == 0 {
		return nil
	}
	return u.loops[len(u.loops)-1]
}

// finish copies the accumulated buffer into u.fn, ready for the VM.
func (u *unit) finish(argNum int) *object.Fn {
	u.fn.Code = u.code
	u.fn.Lines = u.lines
	u.fn.DebugLines = true
	u.fn.Constants = u.constants
	u.fn.MaxStack = u.maxStack
	u.fn.UpvalueNum = len(u.upvalues)
	u.fn.ArgNum = argNum
	return u.fn
}
