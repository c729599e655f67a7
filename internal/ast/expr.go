package ast

// Expr is a closed sum of expression kinds. Literal numbers/strings/booleans
// and bare variable/list references are inlined by the expression emitter
// and require no block node; every other variant allocates one (spec 4.7).
type Expr interface {
	isExpr()
	Span() Span
}

type exprSpan struct{ S Span }

func (e exprSpan) Span() Span { return e.S }

// ValueKind distinguishes the literal shapes Scratch's [type, literal]
// input encoding can carry.
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueString
	ValueBoolean
)

// Value is an inline literal: a number, string, or boolean.
type Value struct {
	exprSpan
	Kind ValueKind
	Str  string // canonical text form of the literal, used verbatim in inputs
}

func (*Value) isExpr() {}

// NameExpr is a bare variable or list reference used in expression
// position; like Value it requires no block node of its own.
type NameExpr struct {
	exprSpan
	Name Name
}

func (*NameExpr) isExpr() {}

// ArgRef is a reference to an enclosing callable's parameter.
type ArgRef struct {
	exprSpan
	Name Name
}

func (*ArgRef) isExpr() {}

// Repr is a call to a built-in reporter opcode (e.g. "x position",
// "distance to"). The sub-emitters for individual reporters are leaf
// functions dispatched by Repr, out of scope in full but represented by a
// small set in internal/sb3/block.go.
type Repr struct {
	exprSpan
	Opcode Block
	Args   []Expr
}

func (*Repr) isExpr() {}

// FuncCallExpr is a call to a user-defined function in expression position.
// If Name does not resolve to a declared function this is diagnosed as
// UnrecognizedFunction and emits nothing (spec 4.7).
type FuncCallExpr struct {
	exprSpan
	Name string
	Args []Expr
}

func (*FuncCallExpr) isExpr() {}

// UnOp is a unary operator applied to Operand.
type UnOp struct {
	exprSpan
	Op      string
	Operand Expr
}

func (*UnOp) isExpr() {}

// BinOp is a binary operator applied to Lhs and Rhs.
type BinOp struct {
	exprSpan
	Op  string
	Lhs Expr
	Rhs Expr
}

func (*BinOp) isExpr() {}

// StructLiteral constructs a struct value. It is only legal where a struct
// type is expected (argument passing, struct var initialisers); in scalar
// expression context it is diagnosed as TypeMismatch (spec 4.7).
type StructLiteral struct {
	exprSpan
	TypeName string
	Fields   map[string]Expr
}

func (*StructLiteral) isExpr() {}

// Dot is a struct field access: Lhs.Rhs.
type Dot struct {
	exprSpan
	Lhs     Expr
	Rhs     string
	RhsSpan Span
}

func (*Dot) isExpr() {}
