package mir

import "strings"

// Pattern is the interface for MIR match patterns.
type Pattern interface {
	// Repr returns the pattern's printed form.
	Repr() string
}

// WildcardPattern matches any value and binds nothing.
type WildcardPattern struct{}

func (p WildcardPattern) Repr() string {
	return "_"
}

// VarPattern matches any value and binds it to a name.
type VarPattern struct {
	Name string
	Type *Type
}

func (p VarPattern) Repr() string {
	return p.Name
}

// LitPattern matches a value equal to a constant.
type LitPattern struct {
	Lit *Literal
}

func (p LitPattern) Repr() string {
	return p.Lit.Repr()
}

// CtorPattern matches a sum type value built with a particular variant and
// recursively matches its payload fields.
type CtorPattern struct {
	SumName string
	Variant string
	Tag     int
	Args    []Pattern
}

func (p CtorPattern) Repr() string {
	if len(p.Args) == 0 {
		return p.Variant
	}

	sb := strings.Builder{}
	sb.WriteString(p.Variant)
	sb.WriteRune('(')
	for i, arg := range p.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.Repr())
	}
	sb.WriteRune(')')
	return sb.String()
}

// TuplePattern destructures a tuple, matching each element positionally.
type TuplePattern struct {
	Elems []Pattern
}

func (p TuplePattern) Repr() string {
	sb := strings.Builder{}
	sb.WriteRune('(')
	for i, elem := range p.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(elem.Repr())
	}
	sb.WriteRune(')')
	return sb.String()
}

// OrPattern matches if any of its alternatives matches.  Alternatives bind no
// variables.
type OrPattern struct {
	Alts []Pattern
}

func (p OrPattern) Repr() string {
	sb := strings.Builder{}
	for i, alt := range p.Alts {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(alt.Repr())
	}
	return sb.String()
}
