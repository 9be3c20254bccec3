// Package typing defines the read-only snapshot of checker types that the
// backend receives as input: the resolved type attached to every syntax node
// and the registry of named type layouts and trait implementations.  Nothing
// in this package is mutated once lowering begins.
package typing

import "strings"

// TyKind enumerates the shapes a checker type can take.
type TyKind int

const (
	KindInt TyKind = iota
	KindFloat
	KindBool
	KindString
	KindUnit
	KindTuple
	KindNamed // a struct or sum type, by name
	KindFunc
	KindNever
	KindVar // an unresolved type variable left over from an upstream error
)

// Ty is a type as resolved by the type checker.  A Ty may still contain
// KindVar nodes: those signal an error that was already reported upstream and
// degrade to the unit type during lowering.
type Ty struct {
	Kind TyKind

	// Elems is the element list for tuples and the parameter list for
	// function types.
	Elems []*Ty

	// Ret is the return type for function types.
	Ret *Ty

	// Name is the type name for named (struct/sum) types.
	Name string

	// Closure marks a function type whose values capture an environment and
	// therefore use the closure calling convention.
	Closure bool
}

// Primitive type singletons.  These are shared and must never be mutated.
var (
	IntTy    = &Ty{Kind: KindInt}
	FloatTy  = &Ty{Kind: KindFloat}
	BoolTy   = &Ty{Kind: KindBool}
	StringTy = &Ty{Kind: KindString}
	UnitTy   = &Ty{Kind: KindUnit}
	NeverTy  = &Ty{Kind: KindNever}
	VarTy    = &Ty{Kind: KindVar}
)

// TupleTy returns a new tuple type over the given element types.
func TupleTy(elems ...*Ty) *Ty {
	return &Ty{Kind: KindTuple, Elems: elems}
}

// NamedTy returns a new named type.
func NamedTy(name string) *Ty {
	return &Ty{Kind: KindNamed, Name: name}
}

// FuncTy returns a new function type.
func FuncTy(params []*Ty, ret *Ty) *Ty {
	return &Ty{Kind: KindFunc, Elems: params, Ret: ret}
}

// ClosureTy returns a new function type marked as a capturing closure.
func ClosureTy(params []*Ty, ret *Ty) *Ty {
	return &Ty{Kind: KindFunc, Elems: params, Ret: ret, Closure: true}
}

// Repr returns a human-readable representation of the type.
func (t *Ty) Repr() string {
	switch t.Kind {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindUnit:
		return "()"
	case KindNever:
		return "Never"
	case KindVar:
		return "?"
	case KindNamed:
		return t.Name
	case KindTuple:
		sb := strings.Builder{}
		sb.WriteRune('(')
		for i, elem := range t.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(elem.Repr())
		}
		sb.WriteRune(')')
		return sb.String()
	case KindFunc:
		sb := strings.Builder{}
		sb.WriteString("fn(")
		for i, param := range t.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(param.Repr())
		}
		sb.WriteString(") -> ")
		sb.WriteString(t.Ret.Repr())
		return sb.String()
	}

	return "<unknown>"
}
