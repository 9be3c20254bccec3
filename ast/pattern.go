package ast

import (
	"github.com/snowdamiz/mesh-lang-sub005/typing"
)

// Pattern is the abstract interface for all match patterns.
type Pattern interface {
	ASTNode

	// Type is the type of value the pattern matches against.
	Type() *typing.Ty
}

// PatternBase is the base struct for all patterns.
type PatternBase struct {
	ASTBase

	typ *typing.Ty
}

// NewPatternBase creates a new pattern base with the given type and span base.
func NewPatternBase(typ *typing.Ty, base ASTBase) PatternBase {
	return PatternBase{ASTBase: base, typ: typ}
}

func (pb *PatternBase) Type() *typing.Ty {
	return pb.typ
}

// -----------------------------------------------------------------------------

// WildcardPattern matches anything and binds nothing.
type WildcardPattern struct {
	PatternBase
}

// VarPattern matches anything and binds the matched value to a name.
type VarPattern struct {
	PatternBase

	Name string
}

// LitPattern matches a literal value exactly.
type LitPattern struct {
	PatternBase

	// Lit is the literal expression: one of IntLit, FloatLit, BoolLit,
	// StringLit.
	Lit Expr
}

// CtorPattern matches one variant of a sum type, destructuring its fields.
type CtorPattern struct {
	PatternBase

	Variant string
	Args    []Pattern
}

// TuplePattern destructures a tuple element-wise.
type TuplePattern struct {
	PatternBase

	Elems []Pattern
}

// OrPattern matches if any of its alternatives match.  All alternatives bind
// the same names at the same types (checked upstream).
type OrPattern struct {
	PatternBase

	Alts []Pattern
}
