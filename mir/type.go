// Package mir defines the mid-level intermediate representation: the fully
// concrete, desugared, closure-converted form of a program between the
// checked syntax tree and target code.  MIR values are strict, cycle-free
// owned trees; each backend pass consumes its input module and produces a new
// value for the next pass.
package mir

import "strings"

// TypeKind enumerates the closed set of concrete MIR type shapes.  No type
// variables survive lowering.
type TypeKind int

const (
	TInt     TypeKind = iota // 64-bit signed integer
	TFloat                   // 64-bit IEEE float
	TBool                    // 1-bit boolean
	TString                  // opaque GC pointer to a {length, bytes} buffer
	TUnit                    // zero-size unit
	TTuple                   // anonymous fixed-offset aggregate
	TStruct                  // named aggregate in declared field order
	TSum                     // tagged union
	TFnPtr                   // raw function pointer
	TClosure                 // {function pointer, environment pointer} pair
	TPtr                     // opaque pointer
	TNever                   // diverging computation
)

// Type is a concrete MIR type.
type Type struct {
	Kind TypeKind

	// Elems is the element list for tuples and the parameter list for
	// function pointer and closure types.
	Elems []*Type

	// Ret is the return type for function pointer and closure types.
	Ret *Type

	// Name is the defining name for struct and sum types.
	Name string
}

// Shared primitive type instances.  These must never be mutated.
var (
	IntType    = &Type{Kind: TInt}
	FloatType  = &Type{Kind: TFloat}
	BoolType   = &Type{Kind: TBool}
	StringType = &Type{Kind: TString}
	UnitType   = &Type{Kind: TUnit}
	PtrType    = &Type{Kind: TPtr}
	NeverType  = &Type{Kind: TNever}
)

// TupleType returns a new tuple type over the given element types.
func TupleType(elems ...*Type) *Type {
	return &Type{Kind: TTuple, Elems: elems}
}

// StructType returns a reference to a named struct type.
func StructType(name string) *Type {
	return &Type{Kind: TStruct, Name: name}
}

// SumType returns a reference to a named sum type.
func SumType(name string) *Type {
	return &Type{Kind: TSum, Name: name}
}

// FnPtrType returns a new function pointer type.
func FnPtrType(params []*Type, ret *Type) *Type {
	return &Type{Kind: TFnPtr, Elems: params, Ret: ret}
}

// ClosureType returns a new closure type.
func ClosureType(params []*Type, ret *Type) *Type {
	return &Type{Kind: TClosure, Elems: params, Ret: ret}
}

// Equals returns whether two MIR types are structurally identical.
func (t *Type) Equals(other *Type) bool {
	if t.Kind != other.Kind || t.Name != other.Name {
		return false
	}

	if len(t.Elems) != len(other.Elems) {
		return false
	}
	for i, elem := range t.Elems {
		if !elem.Equals(other.Elems[i]) {
			return false
		}
	}

	if (t.Ret == nil) != (other.Ret == nil) {
		return false
	}
	if t.Ret != nil && !t.Ret.Equals(other.Ret) {
		return false
	}

	return true
}

// Repr returns the printed form of the type.
func (t *Type) Repr() string {
	switch t.Kind {
	case TInt:
		return "int"
	case TFloat:
		return "float"
	case TBool:
		return "bool"
	case TString:
		return "string"
	case TUnit:
		return "unit"
	case TPtr:
		return "ptr"
	case TNever:
		return "never"
	case TStruct, TSum:
		return t.Name
	case TTuple:
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
	case TFnPtr, TClosure:
		sb := strings.Builder{}
		if t.Kind == TClosure {
			sb.WriteString("closure(")
		} else {
			sb.WriteString("fn(")
		}
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

	return "<invalid>"
}
