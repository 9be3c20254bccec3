package lower

import (
	"github.com/snowdamiz/mesh-lang-sub005/ast"
	"github.com/snowdamiz/mesh-lang-sub005/mir"
)

// lowerPattern lowers a match pattern, resolving constructor patterns to
// their declaration-order tags.
func (l *Lowerer) lowerPattern(pat ast.Pattern) mir.Pattern {
	switch v := pat.(type) {
	case *ast.WildcardPattern:
		return mir.WildcardPattern{}
	case *ast.VarPattern:
		return mir.VarPattern{Name: v.Name, Type: l.lowerType(v.Type())}
	case *ast.LitPattern:
		return mir.LitPattern{Lit: l.lowerPatternLit(v)}
	case *ast.CtorPattern:
		sum, tag, ok := l.reg.SumForVariant(v.Variant)
		if !ok {
			l.warn(v, "unknown variant `%s`", v.Variant)
			return mir.WildcardPattern{}
		}

		args := make([]mir.Pattern, len(v.Args))
		for i, arg := range v.Args {
			args[i] = l.lowerPattern(arg)
		}

		return mir.CtorPattern{SumName: sum.Name, Variant: v.Variant, Tag: tag, Args: args}
	case *ast.TuplePattern:
		elems := make([]mir.Pattern, len(v.Elems))
		for i, elem := range v.Elems {
			elems[i] = l.lowerPattern(elem)
		}
		return mir.TuplePattern{Elems: elems}
	case *ast.OrPattern:
		alts := make([]mir.Pattern, len(v.Alts))
		for i, alt := range v.Alts {
			alts[i] = l.lowerPattern(alt)
		}
		return mir.OrPattern{Alts: alts}
	}

	l.warn(pat, "unknown pattern form %T", pat)
	return mir.WildcardPattern{}
}

// lowerPatternLit converts the literal of a literal pattern.
func (l *Lowerer) lowerPatternLit(pat *ast.LitPattern) *mir.Literal {
	switch lit := pat.Lit.(type) {
	case *ast.IntLit:
		return mir.NewIntLit(lit.Value)
	case *ast.FloatLit:
		return mir.NewFloatLit(lit.Value)
	case *ast.BoolLit:
		return mir.NewBoolLit(lit.Value)
	case *ast.StringLit:
		return mir.NewStringLit(lit.Value)
	}

	l.warn(pat, "unsupported literal pattern %T", pat.Lit)
	return mir.NewUnitLit()
}

// bindPatternVars introduces the variables a pattern binds into the current
// scope so guard and body lowering can resolve them.
func (l *Lowerer) bindPatternVars(pat ast.Pattern) {
	switch v := pat.(type) {
	case *ast.VarPattern:
		l.bind(v.Name, l.lowerType(v.Type()))
	case *ast.CtorPattern:
		for _, arg := range v.Args {
			l.bindPatternVars(arg)
		}
	case *ast.TuplePattern:
		for _, elem := range v.Elems {
			l.bindPatternVars(elem)
		}
	case *ast.OrPattern:
		// Alternatives bind the same names; the first covers them all.
		if len(v.Alts) > 0 {
			l.bindPatternVars(v.Alts[0])
		}
	}
}
