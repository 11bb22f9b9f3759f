package compiler

// Precedence is a binding power in the expression grammar, lowest first
// (spec.md §4.2). Grounded on the teacher's lang/parser/expr.go
// binopPriority table (a token-indexed array of left/right binding powers
// driving precedence climbing); Fen generalizes the same idea into a full
// Pratt table (precedence.go/expr.go) since, unlike the teacher, Fen's
// grammar also needs prefix (unary, literal) and postfix (call, subscript)
// parsing unified with infix operators in one table-driven dispatch.
type Precedence int

const ( //nolint:revive
	PrecNone Precedence = iota
	PrecLowest
	PrecAssign     // used only as the "not inside a higher-precedence position" floor
	PrecCond       // ?:
	PrecOr         // ||
	PrecAnd        // &&
	PrecEquality   // == !=
	PrecIs         // is
	PrecCompare    // < <= > >=
	PrecBitOr      // |
	PrecBitAnd     // &
	PrecBitShift   // << >>
	PrecRange      // ..
	PrecTerm       // + -
	PrecFactor     // * / %
	PrecUnary      // prefix - ! ~
	PrecCall       // . ( ) [ ]
)
