package mir

import (
	"fmt"
	"strconv"
)

// Expr is the interface for all MIR expression nodes.  MIR is expression
// oriented: every node yields a value, unit included.
type Expr interface {
	// Type returns the result type of the expression.
	Type() *Type
}

// ExprBase is the base struct embedded in all MIR expressions.
type ExprBase struct {
	typ *Type
}

// NewExprBase creates a new expression base with the given result type.
func NewExprBase(typ *Type) ExprBase {
	return ExprBase{typ: typ}
}

func (eb ExprBase) Type() *Type {
	return eb.typ
}

// -----------------------------------------------------------------------------

// LitKind enumerates the kinds of MIR literals.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
	LitUnit
)

// Literal is a constant value.  Literals are also used as the test values of
// pattern matrix rows, so they support exact comparison and map keying.
type Literal struct {
	ExprBase

	Kind     LitKind
	IntVal   int64
	FloatVal float64
	BoolVal  bool
	StrVal   string
}

// NewIntLit creates an integer literal.
func NewIntLit(v int64) *Literal {
	return &Literal{ExprBase: NewExprBase(IntType), Kind: LitInt, IntVal: v}
}

// NewFloatLit creates a float literal.
func NewFloatLit(v float64) *Literal {
	return &Literal{ExprBase: NewExprBase(FloatType), Kind: LitFloat, FloatVal: v}
}

// NewBoolLit creates a boolean literal.
func NewBoolLit(v bool) *Literal {
	return &Literal{ExprBase: NewExprBase(BoolType), Kind: LitBool, BoolVal: v}
}

// NewStringLit creates a string literal.
func NewStringLit(v string) *Literal {
	return &Literal{ExprBase: NewExprBase(StringType), Kind: LitString, StrVal: v}
}

// NewUnitLit creates the unit literal.
func NewUnitLit() *Literal {
	return &Literal{ExprBase: NewExprBase(UnitType), Kind: LitUnit}
}

// EqualTo returns whether two literals denote the same constant.
func (lit *Literal) EqualTo(other *Literal) bool {
	if lit.Kind != other.Kind {
		return false
	}

	switch lit.Kind {
	case LitInt:
		return lit.IntVal == other.IntVal
	case LitFloat:
		return lit.FloatVal == other.FloatVal
	case LitBool:
		return lit.BoolVal == other.BoolVal
	case LitString:
		return lit.StrVal == other.StrVal
	default:
		return true
	}
}

// Key returns a string that identifies the literal's value uniquely within
// its kind, suitable for deduplication maps.
func (lit *Literal) Key() string {
	switch lit.Kind {
	case LitInt:
		return "i" + strconv.FormatInt(lit.IntVal, 10)
	case LitFloat:
		return "f" + strconv.FormatFloat(lit.FloatVal, 'g', -1, 64)
	case LitBool:
		return "b" + strconv.FormatBool(lit.BoolVal)
	case LitString:
		return "s" + lit.StrVal
	default:
		return "u"
	}
}

// Repr returns the literal's printed form.
func (lit *Literal) Repr() string {
	switch lit.Kind {
	case LitInt:
		return strconv.FormatInt(lit.IntVal, 10)
	case LitFloat:
		return strconv.FormatFloat(lit.FloatVal, 'g', -1, 64)
	case LitBool:
		return strconv.FormatBool(lit.BoolVal)
	case LitString:
		return strconv.Quote(lit.StrVal)
	default:
		return "()"
	}
}

// -----------------------------------------------------------------------------

// Var is a reference to a parameter or local binding.
type Var struct {
	ExprBase

	Name string
}

// NewVar creates a variable reference of the given type.
func NewVar(name string, typ *Type) *Var {
	return &Var{ExprBase: NewExprBase(typ), Name: name}
}

// Let binds the value of an expression to a local name.  The binding is
// visible for the remainder of the enclosing block; the let itself yields
// unit.
type Let struct {
	ExprBase

	Name  string
	Value Expr
}

// NewLet creates a let binding.
func NewLet(name string, value Expr) *Let {
	return &Let{ExprBase: NewExprBase(UnitType), Name: name, Value: value}
}

// Block evaluates its expressions in order and yields the value of the last
// one, or unit if it is empty.
type Block struct {
	ExprBase

	Exprs []Expr
}

// NewBlock creates a block whose result type is that of the final expression.
func NewBlock(exprs []Expr) *Block {
	typ := UnitType
	if len(exprs) > 0 {
		typ = exprs[len(exprs)-1].Type()
	}

	return &Block{ExprBase: NewExprBase(typ), Exprs: exprs}
}

// If is a two-armed conditional.  Else is never nil: a missing else branch is
// lowered to a unit literal.
type If struct {
	ExprBase

	Cond Expr
	Then Expr
	Else Expr
}

// NewIf creates a conditional expression of the given result type.
func NewIf(cond, then, els Expr, typ *Type) *If {
	return &If{ExprBase: NewExprBase(typ), Cond: cond, Then: then, Else: els}
}

// -----------------------------------------------------------------------------

// BinOpKind enumerates the primitive binary operators that survive lowering.
// Operators with trait implementations are rewritten into direct calls before
// MIR, so these apply only to primitive operand types.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNeq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr
)

var binOpNames = map[BinOpKind]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLtEq: "<=", OpGt: ">", OpGtEq: ">=",
	OpAnd: "and", OpOr: "or",
}

// Repr returns the operator's source spelling.
func (op BinOpKind) Repr() string {
	return binOpNames[op]
}

// BinaryExpr applies a primitive binary operator.  And and or evaluate their
// right operand only when needed.
type BinaryExpr struct {
	ExprBase

	Op       BinOpKind
	Lhs, Rhs Expr
}

// NewBinaryExpr creates a primitive binary operation of the given result
// type.
func NewBinaryExpr(op BinOpKind, lhs, rhs Expr, typ *Type) *BinaryExpr {
	return &BinaryExpr{ExprBase: NewExprBase(typ), Op: op, Lhs: lhs, Rhs: rhs}
}

// UnaryOpKind enumerates the primitive unary operators.
type UnaryOpKind int

const (
	OpNeg UnaryOpKind = iota
	OpNot
)

// UnaryExpr applies a primitive unary operator.
type UnaryExpr struct {
	ExprBase

	Op      UnaryOpKind
	Operand Expr
}

// NewUnaryExpr creates a primitive unary operation.
func NewUnaryExpr(op UnaryOpKind, operand Expr, typ *Type) *UnaryExpr {
	return &UnaryExpr{ExprBase: NewExprBase(typ), Op: op, Operand: operand}
}

// -----------------------------------------------------------------------------

// Call is a direct call to a named function, runtime symbols included.
type Call struct {
	ExprBase

	Func string
	Args []Expr
}

// NewCall creates a direct call.
func NewCall(fn string, args []Expr, typ *Type) *Call {
	return &Call{ExprBase: NewExprBase(typ), Func: fn, Args: args}
}

// ClosureCall invokes a closure value: it extracts the function and
// environment pointers and calls the function with the environment prepended
// to the arguments.
type ClosureCall struct {
	ExprBase

	Closure Expr
	Args    []Expr
}

// NewClosureCall creates an indirect call through a closure value.
func NewClosureCall(closure Expr, args []Expr, typ *Type) *ClosureCall {
	return &ClosureCall{ExprBase: NewExprBase(typ), Closure: closure, Args: args}
}

// MakeClosure constructs a closure value over a named function and the
// current values of its captured variables.
type MakeClosure struct {
	ExprBase

	Func     string
	Captures []Expr
}

// NewMakeClosure creates a closure construction expression.
func NewMakeClosure(fn string, captures []Expr, typ *Type) *MakeClosure {
	return &MakeClosure{ExprBase: NewExprBase(typ), Func: fn, Captures: captures}
}

// -----------------------------------------------------------------------------

// TupleLit constructs a tuple from element expressions.
type TupleLit struct {
	ExprBase

	Elems []Expr
}

// NewTupleLit creates a tuple literal.
func NewTupleLit(elems []Expr) *TupleLit {
	elemTypes := make([]*Type, len(elems))
	for i, elem := range elems {
		elemTypes[i] = elem.Type()
	}

	return &TupleLit{ExprBase: NewExprBase(TupleType(elemTypes...)), Elems: elems}
}

// TupleGet extracts the element at a fixed index of a tuple value.
type TupleGet struct {
	ExprBase

	Tuple Expr
	Index int
}

// NewTupleGet creates a tuple element access.
func NewTupleGet(tuple Expr, index int) *TupleGet {
	return &TupleGet{ExprBase: NewExprBase(tuple.Type().Elems[index]), Tuple: tuple, Index: index}
}

// StructLit constructs a named struct with field values in declared order.
type StructLit struct {
	ExprBase

	StructName string
	Fields     []Expr
}

// NewStructLit creates a struct literal.
func NewStructLit(name string, fields []Expr) *StructLit {
	return &StructLit{ExprBase: NewExprBase(StructType(name)), StructName: name, Fields: fields}
}

// StructGet extracts a field of a struct value by declared index.
type StructGet struct {
	ExprBase

	Struct Expr
	Field  string
	Index  int
}

// NewStructGet creates a struct field access of the given field type.
func NewStructGet(object Expr, field string, index int, typ *Type) *StructGet {
	return &StructGet{ExprBase: NewExprBase(typ), Struct: object, Field: field, Index: index}
}

// MakeVariant constructs a value of a sum type with the given variant tag and
// payload values.
type MakeVariant struct {
	ExprBase

	SumName string
	Variant string
	Tag     int
	Args    []Expr
}

// NewMakeVariant creates a sum type constructor application.
func NewMakeVariant(sumName, variant string, tag int, args []Expr) *MakeVariant {
	return &MakeVariant{
		ExprBase: NewExprBase(SumType(sumName)),
		SumName:  sumName,
		Variant:  variant,
		Tag:      tag,
		Args:     args,
	}
}

// -----------------------------------------------------------------------------

// MatchArm is one clause of a match expression.  Guard is nil when the arm is
// unguarded.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
}

// Match scrutinizes a subject value against ordered pattern arms.  The
// backend compiles the arms into a decision tree; a subject matching no arm
// aborts the program at runtime, reporting the match's source line.
type Match struct {
	ExprBase

	Subject Expr
	Arms    []MatchArm
	Line    int
}

// NewMatch creates a match expression of the given result type.
func NewMatch(subject Expr, arms []MatchArm, typ *Type) *Match {
	return &Match{ExprBase: NewExprBase(typ), Subject: subject, Arms: arms}
}

// -----------------------------------------------------------------------------

// Panic aborts the program with a message and source position.  Its result
// type is never, so it unifies with any context.
type Panic struct {
	ExprBase

	Msg  string
	File string
	Line int
}

// NewPanic creates a runtime abort expression.
func NewPanic(msg, file string, line int) *Panic {
	return &Panic{ExprBase: NewExprBase(NeverType), Msg: msg, File: file, Line: line}
}

// -----------------------------------------------------------------------------

// exprName returns a short tag for an expression node, used in diagnostics.
func exprName(expr Expr) string {
	switch expr.(type) {
	case *Literal:
		return "literal"
	case *Var:
		return "var"
	case *Let:
		return "let"
	case *Block:
		return "block"
	case *If:
		return "if"
	case *BinaryExpr:
		return "binary"
	case *UnaryExpr:
		return "unary"
	case *Call:
		return "call"
	case *ClosureCall:
		return "closure-call"
	case *MakeClosure:
		return "make-closure"
	case *TupleLit:
		return "tuple"
	case *TupleGet:
		return "tuple-get"
	case *StructLit:
		return "struct"
	case *StructGet:
		return "struct-get"
	case *MakeVariant:
		return "variant"
	case *Match:
		return "match"
	case *Panic:
		return "panic"
	default:
		return fmt.Sprintf("%T", expr)
	}
}
