// Package ast defines the type-annotated expression tree the backend receives
// from the type checker.  Every node carries its resolved type (or an
// unresolved type variable if the checker already reported an error for it)
// and its source span.  The backend never mutates this tree.
package ast

import (
	"github.com/snowdamiz/mesh-lang-sub005/report"
	"github.com/snowdamiz/mesh-lang-sub005/typing"
)

// ASTNode is the abstract interface for all AST nodes.
type ASTNode interface {
	// Span returns the text span of the node.
	Span() *report.TextSpan
}

// ASTBase is a utility base struct for all AST nodes.
type ASTBase struct {
	// The span over which the AST node occurs.
	span *report.TextSpan
}

// NewASTBaseOn creates a new AST base with the given span.
func NewASTBaseOn(span *report.TextSpan) ASTBase {
	return ASTBase{span: span}
}

func (ab ASTBase) Span() *report.TextSpan {
	return ab.span
}

// -----------------------------------------------------------------------------

// Program is the full type-checked input to the backend: the source file name
// (for locations baked into runtime aborts) and the top-level definitions.
type Program struct {
	// File is the representative path of the compiled source file.
	File string

	// Defs are the top-level definitions in declaration order.
	Defs []Def
}

// Def is the abstract interface for all top-level definitions.
type Def interface {
	ASTNode

	// Name returns the declared name of the definition.
	Name() string
}

// FuncDef is a top-level function definition.
type FuncDef struct {
	ASTBase

	FuncName string
	Params   []Param
	RetType  *typing.Ty
	Body     Expr
}

// Param is a single named, typed function parameter.
type Param struct {
	Name string
	Type *typing.Ty
}

func (fd *FuncDef) Name() string { return fd.FuncName }

// ImplDef is a trait implementation block for one concrete type.  Each method
// is an ordinary function definition whose first parameter is the receiver.
type ImplDef struct {
	ASTBase

	Trait    string
	For      *typing.Ty
	Methods  []*FuncDef
}

func (id *ImplDef) Name() string { return id.Trait }
