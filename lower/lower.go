// Package lower translates the type-annotated syntax tree into MIR.  The
// lowerer desugars pipes and string interpolation, converts closures, and
// rewrites trait and operator calls into direct calls to mangled
// implementation names.  Its output is fully concrete: no type variables and
// no sugar survive this stage.
package lower

import (
	"fmt"
	"sort"

	"github.com/snowdamiz/mesh-lang-sub005/ast"
	"github.com/snowdamiz/mesh-lang-sub005/mir"
	"github.com/snowdamiz/mesh-lang-sub005/report"
	"github.com/snowdamiz/mesh-lang-sub005/typing"
)

// DefaultDepthLimit bounds lowering recursion depth when the build profile
// does not override it.
const DefaultDepthLimit = 64

// EntryName is the symbol the user's `main` is renamed to; the generated
// C-level entry wrapper calls it after runtime initialization.
const EntryName = "mesh_main"

// funcInfo is the signature of a registered callable, keyed by its final
// symbol name.
type funcInfo struct {
	params []*mir.Type
	ret    *mir.Type
}

// builtins maps source-level builtin names to runtime symbols with their
// signatures.
var builtins = map[string]struct {
	symbol string
	params []*mir.Type
	ret    *mir.Type
}{
	"println":         {"mesh_println", []*mir.Type{mir.StringType}, mir.UnitType},
	"print":           {"mesh_print", []*mir.Type{mir.StringType}, mir.UnitType},
	"int_to_string":   {"mesh_int_to_string", []*mir.Type{mir.IntType}, mir.StringType},
	"float_to_string": {"mesh_float_to_string", []*mir.Type{mir.FloatType}, mir.StringType},
	"bool_to_string":  {"mesh_bool_to_string", []*mir.Type{mir.BoolType}, mir.StringType},
}

// Lowerer lowers one file's definitions into a MIR module.
type Lowerer struct {
	// reg is the type context built by the front end.  Read-only.
	reg *typing.Registry

	file       string
	depthLimit int

	mod *mir.Module

	// funcs maps final symbol names to signatures.  Populated completely
	// before any body is lowered so forward references and mutual
	// recursion resolve.
	funcs map[string]funcInfo

	// scopes is the local binding stack; each frame maps a name to its
	// MIR type.
	scopes []map[string]*mir.Type

	// lifted accumulates synthesized closure functions.
	lifted       []*mir.Function
	closureCount int

	depth int
}

// NewLowerer creates a lowerer for one source file.  A depthLimit of zero
// selects the default.
func NewLowerer(reg *typing.Registry, file string, depthLimit int) *Lowerer {
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}

	return &Lowerer{
		reg:        reg,
		file:       file,
		depthLimit: depthLimit,
		funcs:      make(map[string]funcInfo),
	}
}

// Lower lowers a whole program with the default depth limit.
func Lower(prog *ast.Program, reg *typing.Registry) *mir.Module {
	return NewLowerer(reg, prog.File, 0).LowerProgram(prog)
}

// LowerProgram runs both lowering passes over a program and returns the MIR
// module.
func (l *Lowerer) LowerProgram(prog *ast.Program) *mir.Module {
	l.mod = &mir.Module{Name: prog.File}

	l.lowerTypeDefs()

	// Pass 1: register every callable under its final symbol name.
	for _, def := range prog.Defs {
		switch v := def.(type) {
		case *ast.FuncDef:
			l.registerFunc(l.symbolName(v.FuncName), v)
		case *ast.ImplDef:
			for _, method := range v.Methods {
				l.registerFunc(l.mangleMethod(v, method), method)
			}
		}
	}

	// Pass 2: lower bodies.
	for _, def := range prog.Defs {
		switch v := def.(type) {
		case *ast.FuncDef:
			l.lowerFuncDef(l.symbolName(v.FuncName), v)
		case *ast.ImplDef:
			for _, method := range v.Methods {
				l.lowerFuncDef(l.mangleMethod(v, method), method)
			}
		}
	}

	l.mod.Functions = append(l.mod.Functions, l.lifted...)
	return l.mod
}

// symbolName maps a top-level function name to its symbol; only the entry
// point is renamed.
func (l *Lowerer) symbolName(name string) string {
	if name == "main" {
		return EntryName
	}

	return name
}

// mangleMethod computes the stable mangled name of a trait method
// implementation from the concrete receiver type.
func (l *Lowerer) mangleMethod(impl *ast.ImplDef, method *ast.FuncDef) string {
	return typing.MangleImpl(impl.Trait, method.FuncName, typing.ImplTypeName(impl.For))
}

func (l *Lowerer) registerFunc(symbol string, fd *ast.FuncDef) {
	params := make([]*mir.Type, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = l.lowerType(p.Type)
	}

	l.funcs[symbol] = funcInfo{params: params, ret: l.lowerType(fd.RetType)}
}

func (l *Lowerer) lowerFuncDef(symbol string, fd *ast.FuncDef) {
	info := l.funcs[symbol]

	params := make([]mir.Param, len(fd.Params))
	l.pushScope()
	for i, p := range fd.Params {
		params[i] = mir.Param{Name: p.Name, Type: info.params[i]}
		l.bind(p.Name, info.params[i])
	}

	body := l.lowerExpr(fd.Body)
	l.popScope()

	fn := &mir.Function{
		Name:   symbol,
		Params: params,
		Return: info.ret,
		Body:   body,
	}

	l.mod.Functions = append(l.mod.Functions, fn)

	if symbol == EntryName {
		l.mod.Entry = EntryName
	}
}

// lowerTypeDefs copies the registry's nominal type definitions into the
// module in sorted name order so output never depends on map iteration.
func (l *Lowerer) lowerTypeDefs() {
	structNames := make([]string, 0, len(l.reg.Structs))
	for name := range l.reg.Structs {
		structNames = append(structNames, name)
	}
	sort.Strings(structNames)

	for _, name := range structNames {
		sd := l.reg.Structs[name]
		fields := make([]mir.StructField, len(sd.Fields))
		for i, f := range sd.Fields {
			fields[i] = mir.StructField{Name: f.Name, Type: l.lowerType(f.Type)}
		}
		l.mod.Structs = append(l.mod.Structs, &mir.StructDef{Name: name, Fields: fields})
	}

	sumNames := make([]string, 0, len(l.reg.Sums))
	for name := range l.reg.Sums {
		sumNames = append(sumNames, name)
	}
	sort.Strings(sumNames)

	for _, name := range sumNames {
		sd := l.reg.Sums[name]
		variants := make([]mir.VariantDef, len(sd.Variants))
		for i, v := range sd.Variants {
			fields := make([]*mir.Type, len(v.Fields))
			for j, ft := range v.Fields {
				fields[j] = l.lowerType(ft)
			}
			variants[i] = mir.VariantDef{Name: v.Name, Fields: fields}
		}
		l.mod.SumTypes = append(l.mod.SumTypes, &mir.SumTypeDef{Name: name, Variants: variants})
	}
}

// -----------------------------------------------------------------------------

// lowerType maps a front-end type onto a concrete MIR type.  An unresolved
// type variable marks a node upstream already reported an error for; it
// degrades to unit so lowering can still finish.
func (l *Lowerer) lowerType(t *typing.Ty) *mir.Type {
	if t == nil {
		return mir.UnitType
	}

	switch t.Kind {
	case typing.KindInt:
		return mir.IntType
	case typing.KindFloat:
		return mir.FloatType
	case typing.KindBool:
		return mir.BoolType
	case typing.KindString:
		return mir.StringType
	case typing.KindUnit:
		return mir.UnitType
	case typing.KindNever:
		return mir.NeverType
	case typing.KindVar:
		return mir.UnitType
	case typing.KindTuple:
		elems := make([]*mir.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = l.lowerType(e)
		}
		return mir.TupleType(elems...)
	case typing.KindNamed:
		if _, ok := l.reg.Structs[t.Name]; ok {
			return mir.StructType(t.Name)
		}
		if _, ok := l.reg.Sums[t.Name]; ok {
			return mir.SumType(t.Name)
		}
		return mir.UnitType
	case typing.KindFunc:
		params := make([]*mir.Type, len(t.Elems))
		for i, e := range t.Elems {
			params[i] = l.lowerType(e)
		}
		ret := l.lowerType(t.Ret)

		if t.Closure {
			return mir.ClosureType(params, ret)
		}
		return mir.FnPtrType(params, ret)
	}

	return mir.UnitType
}

// -----------------------------------------------------------------------------

func (l *Lowerer) pushScope() {
	l.scopes = append(l.scopes, make(map[string]*mir.Type))
}

func (l *Lowerer) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

func (l *Lowerer) bind(name string, typ *mir.Type) {
	l.scopes[len(l.scopes)-1][name] = typ
}

// lookup finds a local binding, innermost scope first.
func (l *Lowerer) lookup(name string) (*mir.Type, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if typ, ok := l.scopes[i][name]; ok {
			return typ, true
		}
	}

	return nil, false
}

// warn emits a non-fatal diagnostic attached to a syntax node.
func (l *Lowerer) warn(node ast.ASTNode, msg string, args ...interface{}) {
	report.ReportWarning(l.file, node.Span(), msg, args...)
}

// nextClosureName returns the symbol for the next lifted closure function.
func (l *Lowerer) nextClosureName() string {
	name := fmt.Sprintf("__closure_%d", l.closureCount)
	l.closureCount++
	return name
}

// implTypeName maps a MIR type onto the type segment of a mangled
// implementation name.
func implTypeName(t *mir.Type) string {
	switch t.Kind {
	case mir.TInt:
		return "Int"
	case mir.TFloat:
		return "Float"
	case mir.TBool:
		return "Bool"
	case mir.TString:
		return "String"
	case mir.TStruct, mir.TSum:
		return t.Name
	default:
		return "Unknown"
	}
}
