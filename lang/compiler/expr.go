package compiler

import (
	"fmt"

	"github.com/mna/fen/lang/bytecode"
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/token"
)

type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prec    Precedence
	prefix  parseFn
	infix   parseFn
}

// rules is the Pratt table: for each token kind, how it behaves as the
// start of an expression (prefix/nud) and how it behaves following one
// (infix/led) along with the left-binding power used to decide whether the
// running expression() loop should keep consuming it. Grounded on the
// teacher's lang/parser/expr.go binopPriority array, generalized to also
// carry prefix and postfix behavior in the same table (see compiler.go's
// package doc).
var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.NUM:           {prec: PrecNone, prefix: numberLit},
		token.STRING:        {prec: PrecNone, prefix: stringLit},
		token.INTERPOLATION: {prec: PrecNone, prefix: interpolationLit},
		token.TRUE:          {prec: PrecNone, prefix: boolLit},
		token.FALSE:         {prec: PrecNone, prefix: boolLit},
		token.NULL:          {prec: PrecNone, prefix: nullLit},
		token.ID:            {prec: PrecNone, prefix: identifierExpr},
		token.SELF:          {prec: PrecNone, prefix: selfExpr},
		token.SUPER:         {prec: PrecNone, prefix: superExpr},
		token.LPAREN:        {prec: PrecCall, prefix: groupingExpr, infix: callExpr},
		token.LBRACKET:      {prec: PrecCall, prefix: listLit, infix: subscriptExpr},
		token.LBRACE:        {prec: PrecNone, prefix: mapLit},
		token.PIPE_DELIM:    {prec: PrecNone, prefix: blockLit},
		token.DOT:           {prec: PrecCall, infix: dotExpr},

		token.MINUS: {prec: PrecTerm, prefix: unaryExpr, infix: binaryExpr},
		token.BANG:  {prec: PrecNone, prefix: unaryExpr},
		token.TILDE: {prec: PrecNone, prefix: unaryExpr},

		token.PLUS:    {prec: PrecTerm, infix: binaryExpr},
		token.STAR:    {prec: PrecFactor, infix: binaryExpr},
		token.SLASH:   {prec: PrecFactor, infix: binaryExpr},
		token.PERCENT: {prec: PrecFactor, infix: binaryExpr},

		token.AMP:  {prec: PrecBitAnd, infix: binaryExpr},
		token.PIPE: {prec: PrecBitOr, infix: binaryExpr},
		token.SHL:  {prec: PrecBitShift, infix: binaryExpr},
		token.SHR:  {prec: PrecBitShift, infix: binaryExpr},

		token.EQEQ:   {prec: PrecEquality, infix: binaryExpr},
		token.BANGEQ: {prec: PrecEquality, infix: binaryExpr},
		token.LT:     {prec: PrecCompare, infix: binaryExpr},
		token.LTEQ:   {prec: PrecCompare, infix: binaryExpr},
		token.GT:     {prec: PrecCompare, infix: binaryExpr},
		token.GTEQ:   {prec: PrecCompare, infix: binaryExpr},

		token.IS: {prec: PrecIs, infix: isExpr},

		token.DOTDOT: {prec: PrecRange, infix: binaryExpr},

		token.ANDAND: {prec: PrecAnd, infix: andExpr},
		token.OROR:   {prec: PrecOr, infix: orExpr},

		token.QUESTION: {prec: PrecCond, infix: ternaryExpr},
	}
}

// expression parses and compiles the expression starting at the current
// token, consuming operators whose left-binding power exceeds minPrec
// (precedence climbing), and returns with exactly one net value left on the
// operand stack.
func (c *Compiler) expression(minPrec Precedence) {
	r, ok := rules[c.cur.Kind]
	if !ok || r.prefix == nil {
		c.errorAtCurrent(fmt.Sprintf("unexpected token %s in expression", c.cur))
		c.advance()
		c.u.emit(bytecode.PushNull, c.line())
		return
	}
	canAssign := minPrec <= PrecAssign
	c.advance()
	r.prefix(c, canAssign)

	for {
		nr, ok := rules[c.cur.Kind]
		if !ok || nr.infix == nil || nr.prec <= minPrec {
			break
		}
		c.advance()
		nr.infix(c, canAssign)
	}

	if canAssign && c.check(token.EQ) {
		c.errorAtPrev("invalid assignment target")
		c.advance()
		c.expression(PrecAssign)
	}
}

// --- literals --------------------------------------------------------------

func numberLit(c *Compiler, _ bool) {
	line := c.prev.Line
	key := fmt.Sprintf("n:%v", c.prev.Num)
	c.u.emitConstant(object.Num(c.prev.Num), key, line)
}

func stringLit(c *Compiler, _ bool) {
	emitStringConstant(c, c.prev.Str)
}

func emitStringConstant(c *Compiler, s string) {
	key := "s:" + s
	c.u.emitConstant(object.FromObj(object.NewString(s)), key, c.prev.Line)
}

// interpolationLit desugars "a %(x) b" into repeated toString + "+" method
// calls: push each literal chunk as a String constant, push each embedded
// expression stringified via a 0-arg `toString` call, then fold the whole
// sequence together with `+` method calls (spec.md §6 string interpolation,
// generalized from the two-method convention original_source/'s lexer and
// compiler use for the same feature).
func interpolationLit(c *Compiler, _ bool) {
	line := c.prev.Line
	emitStringConstant(c, c.prev.Str)
	emitToStringOf(c)

	for {
		c.expression(PrecLowest)
		emitToStringOf(c)
		c.emitMethodCall("+", 1, line)

		if !c.check(token.INTERPOLATION) {
			break
		}
		c.advance()
		emitStringConstant(c, c.prev.Str)
		c.emitMethodCall("+", 1, line)
		emitToStringOf(c)
	}

	c.consume(token.STRING, "expected end of string interpolation")
	emitStringConstant(c, c.prev.Str)
	c.emitMethodCall("+", 1, line)
}

// emitToStringOf replaces the value on top of the stack with its
// `toString` getter result.
func emitToStringOf(c *Compiler) {
	c.emitMethodCall("toString", 0, c.prev.Line)
}

func boolLit(c *Compiler, _ bool) {
	if c.prev.Kind == token.TRUE {
		c.u.emit(bytecode.PushTrue, c.prev.Line)
	} else {
		c.u.emit(bytecode.PushFalse, c.prev.Line)
	}
}

func nullLit(c *Compiler, _ bool) {
	c.u.emit(bytecode.PushNull, c.prev.Line)
}

func groupingExpr(c *Compiler, _ bool) {
	c.expression(PrecAssign)
	c.consume(token.RPAREN, "expected ')' after expression")
}

// listLit compiles `[e1, e2, ...]` by constructing an empty List and folding
// `add` calls onto it. List.add is specified (see corelib) to return the
// receiver rather than the appended element precisely so a literal's chain
// of add calls stays on the same list value with no need to re-fetch a
// saved reference between elements (spec.md §4.2 leaves list-literal codegen
// unspecified beyond "calls into the core List type"; this is Fen's choice
// of shape for it).
func listLit(c *Compiler, _ bool) {
	line := c.prev.Line
	c.emitCoreConstruct("List", line)
	if !c.check(token.RBRACKET) {
		for {
			c.expression(PrecAssign)
			c.emitMethodCall("add", 1, line)
			if !c.match(token.COMMA) {
				break
			}
			if c.check(token.RBRACKET) {
				break
			}
		}
	}
	c.consume(token.RBRACKET, "expected ']' after list elements")
}

// mapLit compiles `{k1: v1, k2: v2}` the same way, via Map's `addPair(_,_)`
// mutator (distinct from the public `[_]=(_)` subscript-setter, which must
// keep returning the assigned value per ordinary assignment-expression
// semantics, not the map, so it can't double as the literal's chaining
// primitive).
func mapLit(c *Compiler, _ bool) {
	line := c.prev.Line
	c.emitCoreConstruct("Map", line)
	if !c.check(token.RBRACE) {
		for {
			c.expression(PrecAssign)
			c.consume(token.COLON, "expected ':' after map key")
			c.expression(PrecAssign)
			c.emitMethodCall("addPair", 2, line)
			if !c.match(token.COMMA) {
				break
			}
			if c.check(token.RBRACE) {
				break
			}
		}
	}
	c.consume(token.RBRACE, "expected '}' after map entries")
}

// emitCoreConstruct loads the named built-in class from its module variable
// and emits the zero-arg constructor call for it, leaving the new instance
// on the stack.
func (c *Compiler) emitCoreConstruct(className string, line int) {
	idx := c.module.Declare(className, object.Undefined())
	c.u.emit(bytecode.LoadModuleVar, line)
	c.u.emitOperand16(idx, line)
	symbol := c.methodNames.Intern(Signature{Kind: SigConstructor, Name: "new", Arity: 0}.Text())
	c.u.emit(bytecode.CallN(0), line)
	c.u.emitOperand16(symbol, line)
}

// blockLit compiles a block-argument closure literal: `|a, b| expr-or-block`
// (spec.md §4.2/§6: block arguments are how `for`/iteration-style core
// methods like List.each take a callback without a dedicated lambda
// keyword).
func blockLit(c *Compiler, _ bool) {
	argNum := 0
	if !c.check(token.PIPE_DELIM) {
		for {
			argNum++
			c.consume(token.ID, "expected block parameter name")
			if argNum == 1 {
				beginBlockUnit(c)
			}
			c.u.addLocal(c.prev.Str)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.PIPE_DELIM, "expected '|' after block parameters")
	if argNum == 0 {
		beginBlockUnit(c)
	}
	finishBlockBody(c, argNum)
}

// bareBlockLit compiles a trailing block argument with no `|params|` at all,
// e.g. `Fn.new { n = n + 1; return n }`: a bare brace directly after a
// method name is sugar for a zero-parameter block argument (spec.md §8
// scenario 2).
func bareBlockLit(c *Compiler) {
	beginBlockUnit(c)
	finishBlockBody(c, 0)
}

func beginBlockUnit(c *Compiler) {
	fn := object.NewFn(c.module, "<block>")
	sub := newUnit(c.u, unitBlock, fn, c.u.class)
	c.u = sub
	c.u.beginScope()
}

func finishBlockBody(c *Compiler, argNum int) {
	if c.match(token.LBRACE) {
		c.block()
		c.emitReturn()
	} else {
		line := c.cur.Line
		c.expression(PrecAssign)
		c.u.emit(bytecode.Return, line)
	}

	compiled := c.u.finish(argNum)
	upvalues := c.u.upvalues
	c.u = c.u.enclosing
	c.emitClosure(compiled, upvalues)
}

// trailingBlockArg compiles the block-argument literal following a call, if
// one is present, and reports whether it compiled one: either the explicit
// `|params| { ... }` form or the bare `{ ... }` zero-parameter form.
func (c *Compiler) trailingBlockArg() bool {
	switch {
	case c.check(token.PIPE_DELIM):
		c.advance()
		blockLit(c, false)
		return true
	case c.check(token.LBRACE):
		bareBlockLit(c)
		return true
	default:
		return false
	}
}

// --- names -------------------------------------------------------------

// identifierExpr resolves name as a local, an upvalue, or (failing both) a
// module variable, declaring a forward reference if it hasn't been seen
// yet (spec.md §4.2, module variables may be referenced before their
// defining statement runs as long as it runs before first use).
func identifierExpr(c *Compiler, canAssign bool) {
	name := c.prev.Str
	line := c.prev.Line

	if slot := c.u.resolveLocal(name); slot != -1 {
		if canAssign && c.match(token.EQ) {
			c.expression(PrecAssign)
			c.emitStoreLocal(slot, line)
			return
		}
		c.emitLoadLocal(slot, line)
		return
	}
	if up := c.u.resolveUpvalue(name); up != -1 {
		if canAssign && c.match(token.EQ) {
			c.expression(PrecAssign)
			c.u.emit(bytecode.StoreUpvalue, line)
			c.u.emitByteOperand(up, line)
			return
		}
		c.u.emit(bytecode.LoadUpvalue, line)
		c.u.emitByteOperand(up, line)
		return
	}

	idx := c.module.IndexOf(name)
	if idx == -1 {
		// forward reference: the line number doubles as a placeholder value so
		// a use-before-define error can report where the read happened
		// (spec.md §3, Module invariant 6).
		idx = c.module.Declare(name, object.Num(float64(line)))
	}
	if canAssign && c.match(token.EQ) {
		c.expression(PrecAssign)
		c.u.emit(bytecode.StoreModuleVar, line)
		c.u.emitOperand16(idx, line)
		return
	}
	c.u.emit(bytecode.LoadModuleVar, line)
	c.u.emitOperand16(idx, line)
}

func selfExpr(c *Compiler, _ bool) {
	if c.u.class == nil {
		c.errorAtPrev("'self' used outside of a method")
	}
	if slot := c.u.resolveLocal("self"); slot != -1 {
		c.emitLoadLocal(slot, c.prev.Line)
		return
	}
	if up := c.u.resolveUpvalue("self"); up != -1 {
		c.u.emit(bytecode.LoadUpvalue, c.prev.Line)
		c.u.emitByteOperand(up, c.prev.Line)
		return
	}
	c.errorAtPrev("'self' is not available in this scope")
}

// superExpr compiles `super.method(args)` (the parenthesized argument list
// is required; there is no `super.field` form), always emitting a
// SuperN opcode so dispatch starts one link above the defining class
// (spec.md §4.3/§4.4).
func superExpr(c *Compiler, _ bool) {
	line := c.prev.Line
	if !c.u.class.hasSuper() {
		c.errorAtPrev("'super' used outside of a subclass method")
	}
	c.consume(token.DOT, "expected '.' after 'super'")
	c.consume(token.ID, "expected method name after 'super.'")
	name := c.prev.Str

	// push self (the receiver for the super call)
	if slot := c.u.resolveLocal("self"); slot != -1 {
		c.emitLoadLocal(slot, line)
	} else if up := c.u.resolveUpvalue("self"); up != -1 {
		c.u.emit(bytecode.LoadUpvalue, line)
		c.u.emitByteOperand(up, line)
	}

	argNum := c.argumentList()
	c.emitSuperCall(name, argNum, line)
}

func (c *Compiler) emitSuperCall(name string, argNum int, line int) {
	sig := Signature{Kind: SigMethod, Name: name, Arity: argNum}
	if argNum == 0 {
		sig.Kind = SigGetter
	}
	symbol := c.methodNames.Intern(sig.Text())
	// The second SuperN operand names the module-variable slot holding the
	// superclass, resolved the same way an ordinary identifier reference is
	// (including the use-before-define placeholder), not a constant-pool
	// entry: the superclass is a runtime value, possibly not yet assigned
	// when this call compiles.
	superVarIdx := c.module.IndexOf(c.u.class.superName)
	if superVarIdx == -1 {
		superVarIdx = c.module.Declare(c.u.class.superName, object.Num(float64(line)))
	}
	c.u.emit(bytecode.SuperN(argNum), line)
	c.u.emitOperand16(symbol, line)
	c.u.emitOperand16(superVarIdx, line)
}

// --- calls, dot, subscript --------------------------------------------

// argumentList parses a parenthesized, comma-separated argument list,
// consuming the opening '(' itself, and returns the argument count.
func (c *Compiler) argumentList() int {
	c.consume(token.LPAREN, "expected '(' to start argument list")
	n := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression(PrecAssign)
			n++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expected ')' after arguments")
	return n
}

// callExpr handles a bare `(args)` following a primary expression that is
// itself already a callable value (e.g. a parenthesized or returned
// closure): `expr(args)` dispatches through Fn's call-arity methods
// (spec.md §6, Fn.call/0..16), via the FnCallMethod marker.
func callExpr(c *Compiler, _ bool) {
	line := c.prev.Line
	n := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression(PrecAssign)
			n++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expected ')' after call arguments")
	c.emitMethodCall("call", n, line)
}

// dotExpr compiles `.name`, `.name(args)`, `.name = value`, optionally
// followed by a trailing block-argument literal (spec.md §4.2/§6).
func dotExpr(c *Compiler, canAssign bool) {
	line := c.prev.Line
	c.consume(token.ID, "expected property or method name after '.'")
	name := c.prev.Str

	switch {
	case canAssign && c.check(token.EQ):
		c.advance()
		c.expression(PrecAssign)
		symbol := c.methodNames.Intern(Signature{Kind: SigSetter, Name: name}.Text())
		c.u.emit(bytecode.CallN(1), line)
		c.u.emitOperand16(symbol, line)

	case c.check(token.LPAREN):
		n := c.argumentList()
		if c.trailingBlockArg() {
			n++
		}
		c.emitMethodCall(name, n, line)

	case c.check(token.PIPE_DELIM), c.check(token.LBRACE):
		c.trailingBlockArg()
		c.emitMethodCall(name, 1, line)

	default:
		c.emitMethodCall(name, 0, line)
	}
}

// subscriptExpr compiles `recv[args]` and `recv[args] = value`.
func subscriptExpr(c *Compiler, canAssign bool) {
	line := c.prev.Line
	n := 0
	for {
		c.expression(PrecAssign)
		n++
		if !c.match(token.COMMA) {
			break
		}
	}
	c.consume(token.RBRACKET, "expected ']' after subscript")

	if canAssign && c.check(token.EQ) {
		c.advance()
		c.expression(PrecAssign)
		symbol := c.methodNames.Intern(Signature{Kind: SigSubscriptSetter, Arity: n}.Text())
		c.u.emit(bytecode.CallN(n+1), line)
		c.u.emitOperand16(symbol, line)
		return
	}
	symbol := c.methodNames.Intern(Signature{Kind: SigSubscript, Arity: n}.Text())
	c.u.emit(bytecode.CallN(n), line)
	c.u.emitOperand16(symbol, line)
}

// --- operators ---------------------------------------------------------

// unaryExpr compiles prefix -, !, ~ as zero-argument getter calls on the
// operand (spec.md §4.2: "all operators, including unary ones, are sugar
// for a method call"), except that the bytecode table has no dedicated
// arithmetic opcodes at all — every operator dispatches dynamically so
// user classes can overload them.
func unaryExpr(c *Compiler, _ bool) {
	op := c.prev
	c.expression(PrecUnary)
	name := op.Lexeme
	if op.Kind == token.MINUS {
		name = "-" // unary minus: Getter "-" vs binary Method "-(_)", distinct symbols
	}
	c.emitMethodCall(name, 0, op.Line)
}

// binaryExpr compiles infix arithmetic/bitwise/comparison/range operators,
// all as one-argument method calls on the left operand (same rationale as
// unaryExpr).
func binaryExpr(c *Compiler, _ bool) {
	op := c.prev
	r := rules[op.Kind]
	c.expression(r.prec) // left-associative: parse right operand at this op's own precedence
	name := op.Lexeme
	if op.Kind == token.DOTDOT {
		name = ".."
	}
	c.emitMethodCall(name, 1, op.Line)
}

// isExpr compiles `a is B`: evaluate b (expected to be a Class), then call
// the receiver's `is(_)` primitive which walks its class chain.
func isExpr(c *Compiler, _ bool) {
	line := c.prev.Line
	c.expression(PrecIs)
	c.emitMethodCall("is", 1, line)
}

// andExpr/orExpr compile the short-circuit logical operators with the
// dedicated And/Or opcodes (spec.md §4.3): when short-circuiting, both keep
// the left operand as the result and jump past the right-hand evaluation;
// otherwise they pop it and fall through to the right-hand side.
func andExpr(c *Compiler, _ bool) {
	line := c.prev.Line
	jump := c.u.emitJump(bytecode.And, line)
	c.expression(PrecAnd)
	c.u.patchJump(jump)
}

func orExpr(c *Compiler, _ bool) {
	line := c.prev.Line
	jump := c.u.emitJump(bytecode.Or, line)
	c.expression(PrecOr)
	c.u.patchJump(jump)
}

// ternaryExpr compiles `cond ? then : else`.
func ternaryExpr(c *Compiler, _ bool) {
	line := c.prev.Line
	thenJump := c.u.emitJump(bytecode.JumpIfFalse, line)
	c.u.emit(bytecode.Pop, line)
	c.expression(PrecAssign)
	elseJump := c.u.emitJump(bytecode.Jump, line)
	c.u.patchJump(thenJump)
	c.u.emit(bytecode.Pop, line)
	c.consume(token.COLON, "expected ':' in ternary expression")
	c.expression(PrecCond)
	c.u.patchJump(elseJump)
}
