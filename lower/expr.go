package lower

import (
	"github.com/snowdamiz/mesh-lang-sub005/ast"
	"github.com/snowdamiz/mesh-lang-sub005/mir"
	"github.com/snowdamiz/mesh-lang-sub005/typing"
)

// opTraits maps overloadable operator tokens to the trait and method they
// resolve through when applied to a named type.
var opTraits = map[string]struct {
	trait  string
	method string
}{
	"+":  {"Add", "add"},
	"-":  {"Sub", "sub"},
	"*":  {"Mul", "mul"},
	"/":  {"Div", "div"},
	"%":  {"Rem", "rem"},
	"==": {"Eq", "eq"},
	"!=": {"Eq", "eq"},
}

// primBinOps maps primitive operator tokens to MIR operators.
var primBinOps = map[string]mir.BinOpKind{
	"+":   mir.OpAdd,
	"-":   mir.OpSub,
	"*":   mir.OpMul,
	"/":   mir.OpDiv,
	"%":   mir.OpRem,
	"==":  mir.OpEq,
	"!=":  mir.OpNeq,
	"<":   mir.OpLt,
	"<=":  mir.OpLtEq,
	">":   mir.OpGt,
	">=":  mir.OpGtEq,
	"and": mir.OpAnd,
	"or":  mir.OpOr,
}

// lowerExpr lowers one expression.  Recursion depth is capped: past the
// configured limit the node lowers to a runtime abort instead of risking an
// unbounded compiler stack.
func (l *Lowerer) lowerExpr(expr ast.Expr) mir.Expr {
	l.depth++
	defer func() { l.depth-- }()

	if l.depth > l.depthLimit {
		return mir.NewPanic("lowering depth limit exceeded", l.file, spanLine(expr))
	}

	switch v := expr.(type) {
	case *ast.IntLit:
		return mir.NewIntLit(v.Value)
	case *ast.FloatLit:
		return mir.NewFloatLit(v.Value)
	case *ast.BoolLit:
		return mir.NewBoolLit(v.Value)
	case *ast.StringLit:
		return mir.NewStringLit(v.Value)
	case *ast.UnitLit:
		return mir.NewUnitLit()
	case *ast.Ident:
		return l.lowerIdent(v)
	case *ast.BinaryOp:
		return l.lowerBinaryOp(v)
	case *ast.UnaryOp:
		return l.lowerUnaryOp(v)
	case *ast.Call:
		return l.lowerCall(v, nil)
	case *ast.If:
		return l.lowerIf(v)
	case *ast.Block:
		l.pushScope()
		lowered := l.lowerBlockExprs(v.Exprs)
		l.popScope()
		return lowered
	case *ast.Let:
		// A bare let outside a block scopes nothing; lower it for its
		// effect.
		l.pushScope()
		lowered := l.lowerBlockExprs([]ast.Expr{v})
		l.popScope()
		return lowered
	case *ast.Case:
		return l.lowerCase(v)
	case *ast.FnLit:
		return l.lowerFnLit(v)
	case *ast.StructLit:
		return l.lowerStructLit(v)
	case *ast.FieldAccess:
		return l.lowerFieldAccess(v)
	case *ast.Interp:
		return l.lowerInterp(v)
	}

	l.warn(expr, "unknown expression form %T", expr)
	return mir.NewUnitLit()
}

func spanLine(node ast.ASTNode) int {
	if span := node.Span(); span != nil {
		return span.StartLine
	}

	return 0
}

// -----------------------------------------------------------------------------

// lowerIdent resolves a bare name: local binding, nullary variant
// constructor, or top-level function reference.
func (l *Lowerer) lowerIdent(v *ast.Ident) mir.Expr {
	if typ, ok := l.lookup(v.Name); ok {
		return mir.NewVar(v.Name, typ)
	}

	if sum, tag, ok := l.reg.SumForVariant(v.Name); ok {
		return mir.NewMakeVariant(sum.Name, v.Name, tag, nil)
	}

	symbol := l.symbolName(v.Name)
	if info, ok := l.funcs[symbol]; ok {
		return mir.NewVar(symbol, mir.FnPtrType(info.params, info.ret))
	}

	l.warn(v, "unresolved name `%s`", v.Name)
	return mir.NewUnitLit()
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerBinaryOp(v *ast.BinaryOp) mir.Expr {
	if v.Op == ast.OpPipe {
		return l.lowerPipe(v)
	}

	lhs := l.lowerExpr(v.Lhs)
	rhs := l.lowerExpr(v.Rhs)
	resultTy := l.lowerType(v.Type())

	// Operators on named types dispatch through trait implementations,
	// resolved here once and for all.
	lhsTy := lhs.Type()
	if lhsTy.Kind == mir.TStruct || lhsTy.Kind == mir.TSum {
		return l.lowerTraitOp(v, lhs, rhs, resultTy)
	}

	if lhsTy.Kind == mir.TString {
		switch v.Op {
		case "+", "<>":
			return mir.NewCall("mesh_string_concat", []mir.Expr{lhs, rhs}, mir.StringType)
		}
	}

	op, ok := primBinOps[v.Op]
	if !ok {
		l.warn(v, "unknown operator `%s`", v.Op)
		return lhs
	}

	return mir.NewBinaryExpr(op, lhs, rhs, resultTy)
}

// lowerTraitOp rewrites an operator on a user type into a direct call to the
// mangled trait implementation.  A missing implementation after type
// checking means the front end and the registry disagree; that is reported
// as a diagnostic and the call is left under its bare method name.
func (l *Lowerer) lowerTraitOp(v *ast.BinaryOp, lhs, rhs mir.Expr, resultTy *mir.Type) mir.Expr {
	typeName := implTypeName(lhs.Type())

	ot, ok := opTraits[v.Op]
	if !ok {
		l.warn(v, "operator `%s` has no trait mapping for type %s", v.Op, typeName)
		return mir.NewCall(v.Op, []mir.Expr{lhs, rhs}, resultTy)
	}

	var call mir.Expr
	if l.reg.HasImpl(ot.trait, ot.method, typeName) {
		mangled := typing.MangleImpl(ot.trait, ot.method, typeName)
		call = mir.NewCall(mangled, []mir.Expr{lhs, rhs}, l.opResultType(v.Op, resultTy))
	} else {
		l.warn(v, "no implementation of %s.%s for type %s", ot.trait, ot.method, typeName)
		call = mir.NewCall(ot.method, []mir.Expr{lhs, rhs}, l.opResultType(v.Op, resultTy))
	}

	if v.Op == "!=" {
		return mir.NewUnaryExpr(mir.OpNot, call, mir.BoolType)
	}

	return call
}

func (l *Lowerer) opResultType(op string, resultTy *mir.Type) *mir.Type {
	if op == "==" || op == "!=" {
		return mir.BoolType
	}

	return resultTy
}

// lowerPipe desugars `x |> f(a, b)` into `f(x, a, b)`.  A bare callee pipes
// into a one-argument call.
func (l *Lowerer) lowerPipe(v *ast.BinaryOp) mir.Expr {
	piped := l.lowerExpr(v.Lhs)

	if call, ok := v.Rhs.(*ast.Call); ok {
		return l.lowerCall(call, piped)
	}

	// `x |> f` is `f(x)`.
	synth := &ast.Call{
		ExprBase: ast.NewExprBase(v.Type(), ast.NewASTBaseOn(v.Rhs.Span())),
		Func:     v.Rhs,
	}
	return l.lowerCall(synth, piped)
}

func (l *Lowerer) lowerUnaryOp(v *ast.UnaryOp) mir.Expr {
	operand := l.lowerExpr(v.Operand)

	switch v.Op {
	case "-":
		return mir.NewUnaryExpr(mir.OpNeg, operand, operand.Type())
	case "not", "!":
		return mir.NewUnaryExpr(mir.OpNot, operand, mir.BoolType)
	}

	l.warn(v, "unknown unary operator `%s`", v.Op)
	return operand
}

// -----------------------------------------------------------------------------

// lowerCall lowers a call expression.  A non-nil piped argument is prepended
// to the argument list (pipe desugaring).
func (l *Lowerer) lowerCall(v *ast.Call, piped mir.Expr) mir.Expr {
	args := make([]mir.Expr, 0, len(v.Args)+1)
	if piped != nil {
		args = append(args, piped)
	}
	for _, arg := range v.Args {
		args = append(args, l.lowerExpr(arg))
	}

	resultTy := l.lowerType(v.Type())

	switch callee := v.Func.(type) {
	case *ast.Ident:
		return l.lowerNamedCall(v, callee.Name, args, resultTy)
	case *ast.FieldAccess:
		return l.lowerMethodCall(v, callee, args, resultTy)
	}

	target := l.lowerExpr(v.Func)
	return l.lowerIndirectCall(target, args, resultTy)
}

// lowerNamedCall resolves a call through a bare name, in order: local
// closure value, variant constructor, builtin, registered function, trait
// method on the first argument.
func (l *Lowerer) lowerNamedCall(v *ast.Call, name string, args []mir.Expr, resultTy *mir.Type) mir.Expr {
	if typ, ok := l.lookup(name); ok {
		return l.lowerIndirectCall(mir.NewVar(name, typ), args, resultTy)
	}

	if sum, tag, ok := l.reg.SumForVariant(name); ok {
		return mir.NewMakeVariant(sum.Name, name, tag, args)
	}

	if b, ok := builtins[name]; ok {
		return mir.NewCall(b.symbol, args, b.ret)
	}

	symbol := l.symbolName(name)
	if info, ok := l.funcs[symbol]; ok {
		return mir.NewCall(symbol, args, info.ret)
	}

	if len(args) > 0 {
		if call, ok := l.resolveTraitMethod(v, name, args, resultTy); ok {
			return call
		}
	}

	l.warn(v, "call to unresolved function `%s`", name)
	return mir.NewCall(name, args, resultTy)
}

// lowerMethodCall lowers `obj.f(args)`: a struct field of closure type is an
// indirect call; anything else resolves as a trait method of the receiver.
func (l *Lowerer) lowerMethodCall(v *ast.Call, fa *ast.FieldAccess, args []mir.Expr, resultTy *mir.Type) mir.Expr {
	obj := l.lowerExpr(fa.Object)

	if obj.Type().Kind == mir.TStruct {
		if sd, ok := l.reg.Structs[obj.Type().Name]; ok {
			if idx := sd.FieldIndex(fa.Field); idx >= 0 {
				fieldTy := l.lowerType(sd.Fields[idx].Type)
				if fieldTy.Kind == mir.TClosure || fieldTy.Kind == mir.TFnPtr {
					field := mir.NewStructGet(obj, fa.Field, idx, fieldTy)
					return l.lowerIndirectCall(field, args, resultTy)
				}
			}
		}
	}

	recvArgs := append([]mir.Expr{obj}, args...)
	if call, ok := l.resolveTraitMethod(v, fa.Field, recvArgs, resultTy); ok {
		return call
	}

	l.warn(v, "no implementation of method `%s` for type %s", fa.Field, obj.Type().Repr())
	return mir.NewCall(fa.Field, recvArgs, resultTy)
}

// resolveTraitMethod finds the trait implementation of a method for the
// first argument's concrete type and rewrites the call to its mangled name.
func (l *Lowerer) resolveTraitMethod(v *ast.Call, method string, args []mir.Expr, resultTy *mir.Type) (mir.Expr, bool) {
	typeName := implTypeName(args[0].Type())

	for _, trait := range l.reg.MethodTraits[method] {
		if l.reg.HasImpl(trait, method, typeName) {
			mangled := typing.MangleImpl(trait, method, typeName)
			return mir.NewCall(mangled, args, resultTy), true
		}
	}

	return nil, false
}

// lowerIndirectCall calls through a value.  Closure values extract their
// function and environment pointers; references to known functions stay
// direct calls.
func (l *Lowerer) lowerIndirectCall(target mir.Expr, args []mir.Expr, resultTy *mir.Type) mir.Expr {
	if v, ok := target.(*mir.Var); ok && target.Type().Kind == mir.TFnPtr {
		if info, ok := l.funcs[v.Name]; ok {
			return mir.NewCall(v.Name, args, info.ret)
		}
	}

	return mir.NewClosureCall(target, args, resultTy)
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerIf(v *ast.If) mir.Expr {
	cond := l.lowerExpr(v.Cond)
	then := l.lowerExpr(v.Then)

	var els mir.Expr
	if v.Else != nil {
		els = l.lowerExpr(v.Else)
	} else {
		els = mir.NewUnitLit()
	}

	return mir.NewIf(cond, then, els, l.lowerType(v.Type()))
}

// lowerBlockExprs lowers the expressions of a block.  A destructuring let
// rewrites the remainder of the block into the single arm of a match on the
// bound value.
func (l *Lowerer) lowerBlockExprs(exprs []ast.Expr) mir.Expr {
	var lowered []mir.Expr

	for i, e := range exprs {
		let, ok := e.(*ast.Let)
		if !ok {
			lowered = append(lowered, l.lowerExpr(e))
			continue
		}

		if vp, ok := let.Pattern.(*ast.VarPattern); ok {
			value := l.lowerExpr(let.Value)
			l.bind(vp.Name, value.Type())
			lowered = append(lowered, mir.NewLet(vp.Name, value))
			continue
		}

		subject := l.lowerExpr(let.Value)
		pat := l.lowerPattern(let.Pattern)
		l.bindPatternVars(let.Pattern)

		rest := l.lowerBlockExprs(exprs[i+1:])
		match := mir.NewMatch(subject, []mir.MatchArm{{Pattern: pat, Body: rest}}, rest.Type())
		match.Line = spanLine(let)
		lowered = append(lowered, match)
		return mir.NewBlock(lowered)
	}

	return mir.NewBlock(lowered)
}

func (l *Lowerer) lowerCase(v *ast.Case) mir.Expr {
	subject := l.lowerExpr(v.Subject)

	arms := make([]mir.MatchArm, len(v.Clauses))
	for i, clause := range v.Clauses {
		pat := l.lowerPattern(clause.Pattern)

		l.pushScope()
		l.bindPatternVars(clause.Pattern)

		var guard mir.Expr
		if clause.Guard != nil {
			guard = l.lowerExpr(clause.Guard)
		}
		body := l.lowerExpr(clause.Body)
		l.popScope()

		arms[i] = mir.MatchArm{Pattern: pat, Guard: guard, Body: body}
	}

	match := mir.NewMatch(subject, arms, l.lowerType(v.Type()))
	match.Line = spanLine(v)
	return match
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerStructLit(v *ast.StructLit) mir.Expr {
	sd, ok := l.reg.Structs[v.StructName]
	if !ok {
		l.warn(v, "unknown struct type `%s`", v.StructName)
		return mir.NewUnitLit()
	}

	// Field values are emitted in declaration order regardless of the
	// order they were written in.
	fields := make([]mir.Expr, len(sd.Fields))
	for i, field := range sd.Fields {
		found := false
		for _, init := range v.Fields {
			if init.Name == field.Name {
				fields[i] = l.lowerExpr(init.Value)
				found = true
				break
			}
		}

		if !found {
			l.warn(v, "struct literal %s missing field `%s`", v.StructName, field.Name)
			fields[i] = mir.NewUnitLit()
		}
	}

	return mir.NewStructLit(v.StructName, fields)
}

func (l *Lowerer) lowerFieldAccess(v *ast.FieldAccess) mir.Expr {
	obj := l.lowerExpr(v.Object)

	if obj.Type().Kind != mir.TStruct {
		l.warn(v, "field access on non-struct type %s", obj.Type().Repr())
		return mir.NewUnitLit()
	}

	sd, ok := l.reg.Structs[obj.Type().Name]
	if !ok {
		l.warn(v, "unknown struct type `%s`", obj.Type().Name)
		return mir.NewUnitLit()
	}

	idx := sd.FieldIndex(v.Field)
	if idx < 0 {
		l.warn(v, "struct %s has no field `%s`", obj.Type().Name, v.Field)
		return mir.NewUnitLit()
	}

	return mir.NewStructGet(obj, v.Field, idx, l.lowerType(sd.Fields[idx].Type))
}

// -----------------------------------------------------------------------------

// lowerInterp desugars an interpolated string into per-segment to-string
// conversions folded left to right through `mesh_string_concat`.
func (l *Lowerer) lowerInterp(v *ast.Interp) mir.Expr {
	if len(v.Segments) == 0 {
		return mir.NewStringLit("")
	}

	result := l.segmentToString(v.Segments[0])
	for _, seg := range v.Segments[1:] {
		next := l.segmentToString(seg)
		result = mir.NewCall("mesh_string_concat", []mir.Expr{result, next}, mir.StringType)
	}

	return result
}

// segmentToString converts one interpolation segment to a string value.
func (l *Lowerer) segmentToString(seg ast.Expr) mir.Expr {
	lowered := l.lowerExpr(seg)

	switch lowered.Type().Kind {
	case mir.TString:
		return lowered
	case mir.TInt:
		return mir.NewCall("mesh_int_to_string", []mir.Expr{lowered}, mir.StringType)
	case mir.TFloat:
		return mir.NewCall("mesh_float_to_string", []mir.Expr{lowered}, mir.StringType)
	case mir.TBool:
		return mir.NewCall("mesh_bool_to_string", []mir.Expr{lowered}, mir.StringType)
	}

	l.warn(seg, "cannot interpolate value of type %s", lowered.Type().Repr())
	return mir.NewStringLit("")
}
