// Package generate converts a pruned MIR module into LLVM IR.  The generator
// is a total function over the MIR node set: any node it does not recognize
// is an internal compiler error, never a user diagnostic.
package generate

import (
	"fmt"

	"github.com/snowdamiz/mesh-lang-sub005/mir"
	"github.com/snowdamiz/mesh-lang-sub005/report"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Generator is responsible for converting a MIR module into an LLVM module.
// It owns all in-progress generation state for exactly one compilation and is
// never shared.
type Generator struct {
	// mirMod is the module being generated.
	mirMod *mir.Module

	// mod is the LLVM module being built.
	mod *ir.Module

	// structDefs and sumDefs index the MIR nominal type definitions by
	// name.
	structDefs map[string]*mir.StructDef
	sumDefs    map[string]*mir.SumTypeDef

	// namedTypes holds the emitted LLVM type definitions for MIR structs
	// and sum types.
	namedTypes map[string]types.Type

	// funcs maps MIR function names to their declared LLVM functions.
	funcs map[string]*ir.Func

	// intrinsics maps runtime symbols to their declarations.
	intrinsics map[string]*ir.Func

	// locals maps local names to their stack slots within the function
	// being generated.
	locals map[string]value.Value

	// enclosingFunc is the function enclosing the block being compiled.
	enclosingFunc *ir.Func

	// strGlobals interns string literal data globals by content.
	strGlobals map[string]*ir.Global

	// strCounter is used to name interned string globals.
	strCounter int

	// block stores the current block being generated.
	block *ir.Block
}

// NewGenerator creates a generator for the given MIR module.
func NewGenerator(mirMod *mir.Module) *Generator {
	g := &Generator{
		mirMod:     mirMod,
		mod:        ir.NewModule(),
		structDefs: make(map[string]*mir.StructDef),
		sumDefs:    make(map[string]*mir.SumTypeDef),
		namedTypes: make(map[string]types.Type),
		funcs:      make(map[string]*ir.Func),
		intrinsics: make(map[string]*ir.Func),
		strGlobals: make(map[string]*ir.Global),
	}

	for _, sd := range mirMod.Structs {
		g.structDefs[sd.Name] = sd
	}
	for _, sd := range mirMod.SumTypes {
		g.sumDefs[sd.Name] = sd
	}

	return g
}

// Generate runs the main generation algorithm for the module.  The process is
// assumed to always succeed: anything that goes wrong here is a compiler bug
// and aborts via ReportICE.
func (g *Generator) Generate() *ir.Module {
	g.declareIntrinsics()
	g.defineNamedTypes()

	// Forward-declare every function so call sites resolve regardless of
	// definition order.
	for _, fn := range g.mirMod.Functions {
		g.declareFunc(fn)
	}

	for _, fn := range g.mirMod.Functions {
		if fn.Body != nil {
			g.genFuncBody(fn)
		}
	}

	if g.mirMod.Entry != "" {
		g.genMainWrapper()
	}

	return g.mod
}

// defineNamedTypes emits LLVM type definitions for every MIR struct and sum
// type, in module order.
func (g *Generator) defineNamedTypes() {
	for _, sd := range g.mirMod.Structs {
		fields := make([]types.Type, len(sd.Fields))
		for i, f := range sd.Fields {
			fields[i] = g.convType(f.Type)
		}

		g.namedTypes[sd.Name] = g.mod.NewTypeDef(sd.Name, types.NewStruct(fields...))
	}

	for _, sd := range g.mirMod.SumTypes {
		payload := g.sumPayloadSize(sd)

		var st *types.StructType
		if payload == 0 {
			// All variants are nullary: the tag is the whole value.
			st = types.NewStruct(types.I8)
		} else {
			st = types.NewStruct(types.I8, types.NewArray(uint64(payload), types.I8))
		}

		g.namedTypes[sd.Name] = g.mod.NewTypeDef(sd.Name, st)
	}
}

// declareFunc declares one MIR function.  Closure functions receive an
// implicit leading environment pointer.
func (g *Generator) declareFunc(fn *mir.Function) {
	var params []*ir.Param
	if fn.IsClosureFn {
		params = append(params, ir.NewParam("__env", types.I8Ptr))
	}
	for _, p := range fn.Params {
		params = append(params, ir.NewParam(p.Name, g.convType(p.Type)))
	}

	g.funcs[fn.Name] = g.mod.NewFunc(fn.Name, g.convType(fn.Return), params...)
}

// genFuncBody generates the body of one function: parameters are spilled to
// stack slots, closure captures are unpacked from the environment record,
// and the body expression's value is returned.
func (g *Generator) genFuncBody(fn *mir.Function) {
	llFunc, ok := g.funcs[fn.Name]
	if !ok {
		g.ice("undeclared function `%s`", fn.Name)
	}

	g.enclosingFunc = llFunc
	g.locals = make(map[string]value.Value)
	g.block = llFunc.NewBlock("entry")

	paramOffset := 0
	if fn.IsClosureFn {
		paramOffset = 1
	}

	for i, p := range fn.Params {
		slot := g.block.NewAlloca(g.convType(p.Type))
		g.block.NewStore(llFunc.Params[i+paramOffset], slot)
		g.locals[p.Name] = slot
	}

	if fn.IsClosureFn && len(fn.Captures) > 0 {
		g.unpackCaptures(fn, llFunc.Params[0])
	}

	result := g.genExpr(fn.Body)

	if g.block.Term == nil {
		g.block.NewRet(result)
	}
}

// unpackCaptures loads each captured value out of the environment record
// into a local stack slot, making captures indistinguishable from ordinary
// locals in the body.
func (g *Generator) unpackCaptures(fn *mir.Function, env value.Value) {
	envTypes := make([]types.Type, len(fn.Captures))
	for i, capture := range fn.Captures {
		envTypes[i] = g.convType(capture.Type)
	}
	envStruct := types.NewStruct(envTypes...)

	envPtr := g.block.NewBitCast(env, types.NewPointer(envStruct))

	for i, capture := range fn.Captures {
		fieldPtr := g.block.NewGetElementPtr(envStruct, envPtr, i32Const(0), i32Const(int64(i)))
		val := g.block.NewLoad(envTypes[i], fieldPtr)

		slot := g.block.NewAlloca(envTypes[i])
		g.block.NewStore(val, slot)
		g.locals[capture.Name] = slot
	}
}

// genMainWrapper emits the C-level `main`: initialize the runtime, run the
// user entry function, return success.
func (g *Generator) genMainWrapper() {
	mainFn := g.mod.NewFunc("main", types.I32,
		ir.NewParam("argc", types.I32),
		ir.NewParam("argv", types.NewPointer(types.I8Ptr)),
	)

	entry := mainFn.NewBlock("entry")
	entry.NewCall(g.intrinsics["mesh_rt_init"])
	entry.NewCall(g.funcs[g.mirMod.Entry])
	entry.NewRet(i32Const(0))
}

// -----------------------------------------------------------------------------

// appendBlock adds a new basic block to the current function.  It does *not*
// set the current block to this new block.
func (g *Generator) appendBlock() *ir.Block {
	return g.enclosingFunc.NewBlock(fmt.Sprintf("bb%d", len(g.enclosingFunc.Blocks)))
}

// ice aborts the compiler on a generation invariant violation.
func (g *Generator) ice(msg string, args ...interface{}) {
	report.ReportICE("codegen: "+msg, args...)
}
