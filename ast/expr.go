package ast

import (
	"github.com/snowdamiz/mesh-lang-sub005/typing"
)

// Expr represents an expression simple or complex.  All expression nodes
// implement the `Expr` interface.
type Expr interface {
	ASTNode

	// Type is the yielded type of the expression as resolved by the checker.
	Type() *typing.Ty
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	ASTBase

	typ *typing.Ty
}

// NewExprBase creates a new expression base with the given type and span base.
func NewExprBase(typ *typing.Ty, base ASTBase) ExprBase {
	return ExprBase{ASTBase: base, typ: typ}
}

func (eb *ExprBase) Type() *typing.Ty {
	return eb.typ
}

// -----------------------------------------------------------------------------

// IntLit is an integer literal.
type IntLit struct {
	ExprBase

	Value int64
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	ExprBase

	Value float64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	ExprBase

	Value bool
}

// StringLit is a string literal.
type StringLit struct {
	ExprBase

	Value string
}

// UnitLit is the unit value `()`.
type UnitLit struct {
	ExprBase
}

// Ident is a reference to a named value: a local, a parameter, or a top-level
// function.
type Ident struct {
	ExprBase

	Name string
}

// BinaryOp is a binary operator application.  The operator is stored as its
// source token; user-defined operators on named types are resolved to trait
// implementations during lowering.
type BinaryOp struct {
	ExprBase

	Op       string
	Lhs, Rhs Expr
}

// The pipe operator token.  `x |> f(a)` is desugared during lowering into
// `f(x, a)`; no pipe construct survives into MIR.
const OpPipe = "|>"

// UnaryOp is a unary operator application.
type UnaryOp struct {
	ExprBase

	Op      string
	Operand Expr
}

// Call is a function call.  The callee may be a bare identifier (direct call,
// variant constructor, or trait method resolved by first-argument type) or an
// arbitrary expression of function or closure type.
type Call struct {
	ExprBase

	Func Expr
	Args []Expr
}

// If is a two-armed conditional expression.  The checker guarantees both arms
// yield the expression's type.
type If struct {
	ExprBase

	Cond Expr
	Then Expr
	Else Expr
}

// Let is an immutable binding.  It only appears inside a Block; its scope is
// the remainder of the enclosing block.  The pattern may be a bare name or a
// destructuring pattern, in which case lowering rewrites the binding into a
// single-armed match.
type Let struct {
	ExprBase

	Pattern Pattern
	Value   Expr
}

// Block is an ordered sequence of expressions yielding the value of the last.
type Block struct {
	ExprBase

	Exprs []Expr
}

// Case is a pattern match over a subject expression.
type Case struct {
	ExprBase

	Subject Expr
	Clauses []CaseClause
}

// CaseClause is a single arm of a Case: a pattern, an optional boolean guard
// (nil when absent), and a body.
type CaseClause struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
}

// FnLit is an anonymous function literal.  Lowering lifts it to a top-level
// function and closure-converts its free variables.
type FnLit struct {
	ExprBase

	Params []Param
	Body   Expr
}

// StructLit constructs a named struct value.  Fields are listed in the
// struct's declaration order (the checker reorders them).
type StructLit struct {
	ExprBase

	StructName string
	Fields     []FieldInit
}

// FieldInit is one field initializer of a struct literal.
type FieldInit struct {
	Name  string
	Value Expr
}

// FieldAccess reads a named field from a struct value.
type FieldAccess struct {
	ExprBase

	Object Expr
	Field  string
}

// Interp is an interpolated string: a sequence of literal and expression
// segments.  Lowering rewrites it into conversion and concatenation calls.
type Interp struct {
	ExprBase

	Segments []Expr
}
