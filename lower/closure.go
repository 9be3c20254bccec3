package lower

import (
	"github.com/snowdamiz/mesh-lang-sub005/ast"
	"github.com/snowdamiz/mesh-lang-sub005/mir"
)

// lowerFnLit closure-converts an anonymous function: the body is lifted to a
// top-level `__closure_N` function and the expression becomes a MakeClosure
// over the free variables captured from the enclosing scope, by value, in
// first-use order.
func (l *Lowerer) lowerFnLit(v *ast.FnLit) mir.Expr {
	name := l.nextClosureName()

	fnTy := v.Type()
	params := make([]mir.Param, len(v.Params))
	paramTys := make([]*mir.Type, len(v.Params))
	for i, p := range v.Params {
		paramTys[i] = l.lowerType(p.Type)
		params[i] = mir.Param{Name: p.Name, Type: paramTys[i]}
	}

	var retTy *mir.Type
	if fnTy != nil && fnTy.Ret != nil {
		retTy = l.lowerType(fnTy.Ret)
	}

	l.pushScope()
	for _, p := range params {
		l.bind(p.Name, p.Type)
	}
	body := l.lowerExpr(v.Body)
	l.popScope()

	if retTy == nil {
		retTy = body.Type()
	}

	captures := l.collectCaptures(body, params)

	fn := &mir.Function{
		Name:        name,
		Params:      params,
		Return:      retTy,
		Body:        body,
		IsClosureFn: true,
		Captures:    captures,
	}
	l.lifted = append(l.lifted, fn)

	captureVars := make([]mir.Expr, len(captures))
	for i, cap := range captures {
		captureVars[i] = mir.NewVar(cap.Name, cap.Type)
	}

	return mir.NewMakeClosure(name, captureVars, mir.ClosureType(paramTys, retTy))
}

// collectCaptures scans a lowered closure body for free variables: names
// used before any local binding that resolve in the enclosing scope stack.
// Order of first use is capture order and therefore environment layout
// order.
func (l *Lowerer) collectCaptures(body mir.Expr, params []mir.Param) []mir.Param {
	bound := make(map[string]struct{}, len(params))
	for _, p := range params {
		bound[p.Name] = struct{}{}
	}

	var captures []mir.Param
	seen := make(map[string]struct{})

	var visit func(expr mir.Expr, bound map[string]struct{})
	visit = func(expr mir.Expr, bound map[string]struct{}) {
		switch v := expr.(type) {
		case *mir.Var:
			if _, ok := bound[v.Name]; ok {
				return
			}
			if _, ok := seen[v.Name]; ok {
				return
			}

			// Only names visible in the enclosing scopes are
			// captures; function references resolve globally.
			if typ, ok := l.lookup(v.Name); ok {
				seen[v.Name] = struct{}{}
				captures = append(captures, mir.Param{Name: v.Name, Type: typ})
			}
		case *mir.Let:
			visit(v.Value, bound)
			bound[v.Name] = struct{}{}
		case *mir.Block:
			inner := copyBound(bound)
			for _, sub := range v.Exprs {
				visit(sub, inner)
			}
		case *mir.If:
			visit(v.Cond, bound)
			visit(v.Then, copyBound(bound))
			visit(v.Else, copyBound(bound))
		case *mir.BinaryExpr:
			visit(v.Lhs, bound)
			visit(v.Rhs, bound)
		case *mir.UnaryExpr:
			visit(v.Operand, bound)
		case *mir.Call:
			for _, arg := range v.Args {
				visit(arg, bound)
			}
		case *mir.ClosureCall:
			visit(v.Closure, bound)
			for _, arg := range v.Args {
				visit(arg, bound)
			}
		case *mir.MakeClosure:
			for _, cap := range v.Captures {
				visit(cap, bound)
			}
		case *mir.TupleLit:
			for _, elem := range v.Elems {
				visit(elem, bound)
			}
		case *mir.TupleGet:
			visit(v.Tuple, bound)
		case *mir.StructLit:
			for _, field := range v.Fields {
				visit(field, bound)
			}
		case *mir.StructGet:
			visit(v.Struct, bound)
		case *mir.MakeVariant:
			for _, arg := range v.Args {
				visit(arg, bound)
			}
		case *mir.Match:
			visit(v.Subject, bound)
			for _, arm := range v.Arms {
				armBound := copyBound(bound)
				addPatternNames(arm.Pattern, armBound)

				if arm.Guard != nil {
					visit(arm.Guard, armBound)
				}
				visit(arm.Body, armBound)
			}
		}
	}

	visit(body, bound)
	return captures
}

func copyBound(bound map[string]struct{}) map[string]struct{} {
	c := make(map[string]struct{}, len(bound))
	for name := range bound {
		c[name] = struct{}{}
	}
	return c
}

// addPatternNames records the names a MIR pattern binds.
func addPatternNames(pat mir.Pattern, bound map[string]struct{}) {
	switch v := pat.(type) {
	case mir.VarPattern:
		bound[v.Name] = struct{}{}
	case mir.CtorPattern:
		for _, arg := range v.Args {
			addPatternNames(arg, bound)
		}
	case mir.TuplePattern:
		for _, elem := range v.Elems {
			addPatternNames(elem, bound)
		}
	case mir.OrPattern:
		for _, alt := range v.Alts {
			addPatternNames(alt, bound)
		}
	}
}
