package compiler

import (
	"github.com/mna/fen/lang/bytecode"
	"github.com/mna/fen/lang/object"
	"github.com/mna/fen/lang/token"
)

// operatorMethodNames is the set of token kinds a method signature may use
// in place of a plain identifier, so classes can overload operators
// (spec.md §4.2: "all operators... are sugar for a method call", which only
// has teeth if user classes can supply their own).
var operatorMethodNames = map[token.Kind]string{
	token.PLUS: "+", token.MINUS: "-", token.STAR: "*", token.SLASH: "/", token.PERCENT: "%",
	token.AMP: "&", token.PIPE: "|", token.TILDE: "~", token.SHL: "<<", token.SHR: ">>",
	token.EQEQ: "==", token.BANGEQ: "!=", token.LT: "<", token.LTEQ: "<=",
	token.GT: ">", token.GTEQ: ">=", token.DOTDOT: "..", token.BANG: "!", token.IS: "is",
}

// classDeclaration compiles `class Name (is Super)? { members }` (spec.md
// §4.2/§3). The emission sequence is: push the superclass value, emit
// CreateClass (with the class's own declared field count as its one-byte
// operand), immediately store the new class into its module variable slot
// with a peek-store (StoreModuleVar leaves the class on the stack, spec.md
// §4.3's stack-effect table), so nested method bodies can reference the
// class recursively by name before the declaration statement finishes, then
// one InstanceMethod/StaticMethod per member (each pops only its closure,
// peeking the class underneath), and finally a Pop to discard the class
// value a statement doesn't need.
func (c *Compiler) classDeclaration() {
	line := c.line()
	c.consume(token.ID, "expected class name")
	name := c.prev.Str

	superName := "Object"
	if c.match(token.IS) {
		c.consume(token.ID, "expected superclass name")
		superName = c.prev.Str
	}

	superIdx := c.module.IndexOf(superName)
	if superIdx == -1 {
		superIdx = c.module.Declare(superName, object.Num(float64(line)))
	}
	c.u.emit(bytecode.LoadModuleVar, line)
	c.u.emitOperand16(superIdx, line)

	classIdx := c.module.IndexOf(name)
	if classIdx == -1 {
		classIdx = c.module.Declare(name, object.Undefined())
	}

	cc := &classCtx{enclosing: c.u.class, name: name, superName: superName}
	c.u.class = cc

	c.consume(token.LBRACE, "expected '{' to start class body")

	fieldNum := 0
	var fieldJump int
	fieldJump = c.u.emit(bytecode.CreateClass, line)
	c.u.emitByteOperand(0, line) // patched below once every field is counted

	c.u.emit(bytecode.StoreModuleVar, line)
	c.u.emitOperand16(classIdx, line)

	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		if c.match(token.VAR) {
			c.consume(token.ID, "expected field name")
			fieldNum++
			continue
		}
		c.classMember(name, line)
	}
	c.consume(token.RBRACE, "expected '}' after class body")

	c.u.code[fieldJump+1] = byte(fieldNum)

	c.u.emit(bytecode.Pop, line)
	c.u.class = cc.enclosing
}

// classMember parses one method/getter/setter/subscript/constructor and
// emits its InstanceMethod or StaticMethod binding.
func (c *Compiler) classMember(className string, declLine int) {
	isStatic := c.match(token.STATIC)

	if c.match(token.LBRACKET) {
		c.subscriptMember(isStatic)
		return
	}

	line := c.cur.Line
	name, ok := c.methodName()
	if !ok {
		c.errorAtCurrent("expected method name, operator, or '[' to start a class member")
		c.advance()
		return
	}

	switch {
	case c.check(token.LPAREN):
		if isStatic && name == "new" {
			c.constructorMember(className, line)
			return
		}
		c.ordinaryMethod(name, isStatic, line)

	case c.match(token.EQ):
		c.setterMember(name, isStatic, line)

	default:
		c.getterMember(name, isStatic, line)
	}
}

// methodName consumes and returns a plain identifier or an operator token
// usable as a method name.
func (c *Compiler) methodName() (string, bool) {
	if c.check(token.ID) {
		c.advance()
		return c.prev.Str, true
	}
	if name, ok := operatorMethodNames[c.cur.Kind]; ok {
		c.advance()
		return name, true
	}
	return "", false
}

func (c *Compiler) ordinaryMethod(name string, isStatic bool, line int) {
	params := c.methodParamList()
	body := c.methodBodyWithParams(unitMethod, params)
	c.bindMethod(Signature{Kind: SigMethod, Name: name, Arity: len(params)}, isStatic, body, line)
}

func (c *Compiler) setterMember(name string, isStatic bool, line int) {
	c.consume(token.LPAREN, "expected '(' after '=' in setter declaration")
	c.consume(token.ID, "expected setter parameter name")
	paramName := c.prev.Str
	c.consume(token.RPAREN, "expected ')' after setter parameter")
	body := c.methodBodyWithParams(unitMethod, []string{paramName})
	c.bindMethod(Signature{Kind: SigSetter, Name: name}, isStatic, body, line)
}

func (c *Compiler) getterMember(name string, isStatic bool, line int) {
	body := c.methodBodyWithParams(unitMethod, nil)
	c.bindMethod(Signature{Kind: SigGetter, Name: name}, isStatic, body, line)
}

func (c *Compiler) subscriptMember(isStatic bool) {
	line := c.cur.Line
	var params []string
	for {
		c.consume(token.ID, "expected subscript parameter name")
		params = append(params, c.prev.Str)
		if !c.match(token.COMMA) {
			break
		}
	}
	c.consume(token.RBRACKET, "expected ']' after subscript parameters")

	if c.match(token.EQ) {
		c.consume(token.LPAREN, "expected '(' after '=' in subscript setter declaration")
		c.consume(token.ID, "expected subscript setter value parameter name")
		params = append(params, c.prev.Str)
		c.consume(token.RPAREN, "expected ')' after subscript setter parameter")
		body := c.methodBodyWithParams(unitMethod, params)
		c.bindMethod(Signature{Kind: SigSubscriptSetter, Arity: len(params) - 1}, isStatic, body, line)
		return
	}
	body := c.methodBodyWithParams(unitMethod, params)
	c.bindMethod(Signature{Kind: SigSubscript, Arity: len(params)}, isStatic, body, line)
}

// constructorMember compiles `static new(params) { body }`: the body runs
// as an instance method (self bound to the freshly allocated object, stored
// on the class's own method table), and a synthesized static twin carries
// the allocation protocol (spec.md §4.2 "constructor glue", supplemented
// from original_source/'s equivalent new/init pairing): Construct, call the
// instance-side initializer, return self.
func (c *Compiler) constructorMember(className string, line int) {
	params := c.methodParamList()
	body := c.methodBodyWithParams(unitConstructor, params)

	sig := Signature{Kind: SigConstructor, Name: "new", Arity: len(params)}
	c.bindMethod(sig, false, body, line) // instance-side initializer

	wrapper := c.synthesizeConstructorWrapper(sig, len(params), line)
	c.bindMethod(sig, true, wrapper, line) // metaclass-side allocator
}

// synthesizeConstructorWrapper hand-emits the allocator body directly,
// rather than through the parser, since no source text exists for it.
func (c *Compiler) synthesizeConstructorWrapper(sig Signature, argNum int, line int) *object.Fn {
	fn := object.NewFn(c.module, "new")
	sub := newUnit(nil, unitConstructor, fn, nil)
	for i := 0; i < argNum; i++ {
		sub.addLocal("")
	}

	sub.emit(bytecode.Construct, line)
	sub.emit(bytecode.LoadLocalVar, line)
	sub.emitByteOperand(0, line)
	for i := 1; i <= argNum; i++ {
		sub.emit(bytecode.LoadLocalVar, line)
		sub.emitByteOperand(i, line)
	}
	symbol := c.methodNames.Intern(sig.Text())
	sub.emit(bytecode.CallN(argNum), line)
	sub.emitOperand16(symbol, line)
	sub.emit(bytecode.Pop, line)

	sub.emit(bytecode.LoadLocalVar, line)
	sub.emitByteOperand(0, line)
	sub.emit(bytecode.Return, line)

	return sub.finish(argNum)
}

// methodParamList parses `(a, b, c)` and returns the parameter names.
func (c *Compiler) methodParamList() []string {
	c.consume(token.LPAREN, "expected '(' after method name")
	var params []string
	if !c.check(token.RPAREN) {
		for {
			c.consume(token.ID, "expected parameter name")
			params = append(params, c.prev.Str)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expected ')' after parameters")
	return params
}

// methodBodyWithParams compiles `{ stmts }` as a new unit of the given kind,
// naming each parameter as a local in order so the body can refer to them.
func (c *Compiler) methodBodyWithParams(kind unitKind, params []string) *object.Fn {
	fn := object.NewFn(c.module, "<method>")
	sub := newUnit(c.u, kind, fn, c.u.class)
	c.u = sub
	c.u.beginScope()
	for _, p := range params {
		c.u.addLocal(p)
	}
	c.consume(token.LBRACE, "expected '{' before method body")
	c.block()
	c.emitReturn()
	compiled := c.u.finish(len(params))
	c.u = c.u.enclosing
	return compiled
}

// bindMethod interns sig's text and emits the closure-creation plus
// InstanceMethod/StaticMethod binding in the enclosing (class-declaration)
// unit, which still has the class value on top of its stack.
func (c *Compiler) bindMethod(sig Signature, isStatic bool, fn *object.Fn, line int) {
	symbol := c.methodNames.Intern(sig.Text())
	c.emitClosure(fn, nil) // method bodies never capture upvalues from the class-decl unit
	op := bytecode.InstanceMethod
	if isStatic {
		op = bytecode.StaticMethod
	}
	c.u.emit(op, line)
	c.u.emitOperand16(symbol, line)
}
