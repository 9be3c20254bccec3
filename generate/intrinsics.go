package generate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// declareIntrinsics declares the runtime interface.  Every symbol the emitted
// code can reference is prefixed `mesh_` and defined by the runtime library
// the output is linked against.
func (g *Generator) declareIntrinsics() {
	g.declareIntrinsic("mesh_rt_init", types.Void)

	g.declareIntrinsic("mesh_gc_alloc", types.I8Ptr,
		ir.NewParam("size", types.I64),
		ir.NewParam("align", types.I64),
	)

	g.declareIntrinsic("mesh_string_new", types.I8Ptr,
		ir.NewParam("data", types.I8Ptr),
		ir.NewParam("len", types.I64),
	)
	g.declareIntrinsic("mesh_string_concat", types.I8Ptr,
		ir.NewParam("a", types.I8Ptr),
		ir.NewParam("b", types.I8Ptr),
	)
	g.declareIntrinsic("mesh_string_eq", types.I8,
		ir.NewParam("a", types.I8Ptr),
		ir.NewParam("b", types.I8Ptr),
	)

	g.declareIntrinsic("mesh_int_to_string", types.I8Ptr, ir.NewParam("v", types.I64))
	g.declareIntrinsic("mesh_float_to_string", types.I8Ptr, ir.NewParam("v", types.Double))
	g.declareIntrinsic("mesh_bool_to_string", types.I8Ptr, ir.NewParam("v", types.I8))

	g.declareIntrinsic("mesh_print", types.Void, ir.NewParam("s", types.I8Ptr))
	g.declareIntrinsic("mesh_println", types.Void, ir.NewParam("s", types.I8Ptr))

	panicFn := g.declareIntrinsic("mesh_panic", types.Void,
		ir.NewParam("msg", types.I8Ptr),
		ir.NewParam("msg_len", types.I64),
		ir.NewParam("file", types.I8Ptr),
		ir.NewParam("file_len", types.I64),
		ir.NewParam("line", types.I32),
	)
	panicFn.FuncAttrs = append(panicFn.FuncAttrs, enum.FuncAttrNoReturn)
}

func (g *Generator) declareIntrinsic(name string, ret types.Type, params ...*ir.Param) *ir.Func {
	fn := g.mod.NewFunc(name, ret, params...)
	g.intrinsics[name] = fn
	return fn
}

// callIntrinsic emits a call to a named runtime symbol.
func (g *Generator) callIntrinsic(name string, args ...value.Value) value.Value {
	fn, ok := g.intrinsics[name]
	if !ok {
		g.ice("unknown runtime symbol `%s`", name)
	}

	return g.block.NewCall(fn, args...)
}
