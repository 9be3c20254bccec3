package generate

import (
	"fmt"

	"github.com/snowdamiz/mesh-lang-sub005/mir"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genExpr generates an expression.  It may change the current block; callers
// must check for an already-terminated block before appending stores or
// branches after a subexpression.
func (g *Generator) genExpr(expr mir.Expr) value.Value {
	switch v := expr.(type) {
	case *mir.Literal:
		return g.genLiteral(v)
	case *mir.Var:
		return g.genVar(v)
	case *mir.Let:
		val := g.genExpr(v.Value)

		slot := g.block.NewAlloca(g.convType(v.Value.Type()))
		g.block.NewStore(val, slot)
		g.locals[v.Name] = slot

		return unitValue()
	case *mir.Block:
		var result value.Value = unitValue()
		for _, sub := range v.Exprs {
			result = g.genExpr(sub)
			if g.block.Term != nil {
				break
			}
		}
		return result
	case *mir.If:
		return g.genIfExpr(v)
	case *mir.BinaryExpr:
		return g.genBinaryExpr(v)
	case *mir.UnaryExpr:
		return g.genUnaryExpr(v)
	case *mir.Call:
		return g.genCall(v)
	case *mir.ClosureCall:
		return g.genClosureCall(v)
	case *mir.MakeClosure:
		return g.genMakeClosure(v)
	case *mir.TupleLit:
		var result value.Value = constant.NewUndef(g.convType(v.Type()))
		for i, elem := range v.Elems {
			result = g.block.NewInsertValue(result, g.genExpr(elem), uint64(i))
		}
		return result
	case *mir.TupleGet:
		return g.block.NewExtractValue(g.genExpr(v.Tuple), uint64(v.Index))
	case *mir.StructLit:
		var result value.Value = constant.NewUndef(g.convType(v.Type()))
		for i, field := range v.Fields {
			result = g.block.NewInsertValue(result, g.genExpr(field), uint64(i))
		}
		return result
	case *mir.StructGet:
		return g.block.NewExtractValue(g.genExpr(v.Struct), uint64(v.Index))
	case *mir.MakeVariant:
		return g.genMakeVariant(v)
	case *mir.Match:
		return g.genMatch(v)
	case *mir.Panic:
		return g.genPanic(v.Msg, v.File, v.Line)
	default:
		g.ice("unknown MIR node `%s`", fmt.Sprintf("%T", expr))
		return nil
	}
}

// genLiteral generates a constant.  String literals become interned byte
// globals wrapped into runtime string values.
func (g *Generator) genLiteral(lit *mir.Literal) value.Value {
	switch lit.Kind {
	case mir.LitInt:
		return i64Const(lit.IntVal)
	case mir.LitFloat:
		return constant.NewFloat(types.Double, lit.FloatVal)
	case mir.LitBool:
		return constant.NewBool(lit.BoolVal)
	case mir.LitString:
		data, length := g.stringData(lit.StrVal)
		return g.callIntrinsic("mesh_string_new", data, i64Const(length))
	case mir.LitUnit:
		return unitValue()
	default:
		g.ice("unknown literal kind `%d`", lit.Kind)
		return nil
	}
}

// genVar generates a reference to a local or, failing that, to a top-level
// function used as a value.
func (g *Generator) genVar(v *mir.Var) value.Value {
	if slot, ok := g.locals[v.Name]; ok {
		return g.block.NewLoad(g.convType(v.Type()), slot)
	}

	// A function name in value position erases to i8*.
	if fn, ok := g.funcs[v.Name]; ok {
		return g.block.NewBitCast(fn, types.I8Ptr)
	}

	g.ice("unknown variable `%s`", v.Name)
	return nil
}

// genIfExpr generates a conditional.  The result flows through a stack slot
// written by each arm; arms that diverge simply never reach the store.
func (g *Generator) genIfExpr(ifExpr *mir.If) value.Value {
	resultType := g.convType(ifExpr.Type())
	resultSlot := g.block.NewAlloca(resultType)

	cond := g.genExpr(ifExpr.Cond)

	thenBlock := g.appendBlock()
	elseBlock := g.appendBlock()
	mergeBlock := g.appendBlock()

	g.block.NewCondBr(cond, thenBlock, elseBlock)

	g.block = thenBlock
	thenVal := g.genExpr(ifExpr.Then)
	if g.block.Term == nil {
		g.block.NewStore(thenVal, resultSlot)
		g.block.NewBr(mergeBlock)
	}

	g.block = elseBlock
	elseVal := g.genExpr(ifExpr.Else)
	if g.block.Term == nil {
		g.block.NewStore(elseVal, resultSlot)
		g.block.NewBr(mergeBlock)
	}

	g.block = mergeBlock
	return g.block.NewLoad(resultType, resultSlot)
}

// genBinaryExpr generates a primitive binary operation.
func (g *Generator) genBinaryExpr(bin *mir.BinaryExpr) value.Value {
	if bin.Op == mir.OpAnd || bin.Op == mir.OpOr {
		return g.genShortCircuit(bin)
	}

	lhs := g.genExpr(bin.Lhs)
	rhs := g.genExpr(bin.Rhs)

	operandType := bin.Lhs.Type()
	switch operandType.Kind {
	case mir.TInt:
		return g.genIntOp(bin.Op, lhs, rhs)
	case mir.TFloat:
		return g.genFloatOp(bin.Op, lhs, rhs)
	case mir.TBool:
		switch bin.Op {
		case mir.OpEq:
			return g.block.NewICmp(enum.IPredEQ, lhs, rhs)
		case mir.OpNeq:
			return g.block.NewICmp(enum.IPredNE, lhs, rhs)
		}
	case mir.TString:
		eq := g.callIntrinsic("mesh_string_eq", lhs, rhs)
		switch bin.Op {
		case mir.OpEq:
			return g.block.NewICmp(enum.IPredNE, eq, constant.NewInt(types.I8, 0))
		case mir.OpNeq:
			return g.block.NewICmp(enum.IPredEQ, eq, constant.NewInt(types.I8, 0))
		}
	}

	g.ice("operator `%s` on type `%s`", bin.Op.Repr(), operandType.Repr())
	return nil
}

func (g *Generator) genIntOp(op mir.BinOpKind, lhs, rhs value.Value) value.Value {
	switch op {
	case mir.OpAdd:
		return g.block.NewAdd(lhs, rhs)
	case mir.OpSub:
		return g.block.NewSub(lhs, rhs)
	case mir.OpMul:
		return g.block.NewMul(lhs, rhs)
	case mir.OpDiv:
		return g.block.NewSDiv(lhs, rhs)
	case mir.OpRem:
		return g.block.NewSRem(lhs, rhs)
	case mir.OpEq:
		return g.block.NewICmp(enum.IPredEQ, lhs, rhs)
	case mir.OpNeq:
		return g.block.NewICmp(enum.IPredNE, lhs, rhs)
	case mir.OpLt:
		return g.block.NewICmp(enum.IPredSLT, lhs, rhs)
	case mir.OpLtEq:
		return g.block.NewICmp(enum.IPredSLE, lhs, rhs)
	case mir.OpGt:
		return g.block.NewICmp(enum.IPredSGT, lhs, rhs)
	case mir.OpGtEq:
		return g.block.NewICmp(enum.IPredSGE, lhs, rhs)
	default:
		g.ice("integer operator `%s`", op.Repr())
		return nil
	}
}

func (g *Generator) genFloatOp(op mir.BinOpKind, lhs, rhs value.Value) value.Value {
	switch op {
	case mir.OpAdd:
		return g.block.NewFAdd(lhs, rhs)
	case mir.OpSub:
		return g.block.NewFSub(lhs, rhs)
	case mir.OpMul:
		return g.block.NewFMul(lhs, rhs)
	case mir.OpDiv:
		return g.block.NewFDiv(lhs, rhs)
	case mir.OpRem:
		return g.block.NewFRem(lhs, rhs)
	case mir.OpEq:
		return g.block.NewFCmp(enum.FPredOEQ, lhs, rhs)
	case mir.OpNeq:
		return g.block.NewFCmp(enum.FPredONE, lhs, rhs)
	case mir.OpLt:
		return g.block.NewFCmp(enum.FPredOLT, lhs, rhs)
	case mir.OpLtEq:
		return g.block.NewFCmp(enum.FPredOLE, lhs, rhs)
	case mir.OpGt:
		return g.block.NewFCmp(enum.FPredOGT, lhs, rhs)
	case mir.OpGtEq:
		return g.block.NewFCmp(enum.FPredOGE, lhs, rhs)
	default:
		g.ice("float operator `%s`", op.Repr())
		return nil
	}
}

// genShortCircuit generates `and` and `or` without evaluating the right
// operand unless required.
func (g *Generator) genShortCircuit(bin *mir.BinaryExpr) value.Value {
	resultSlot := g.block.NewAlloca(types.I1)

	lhs := g.genExpr(bin.Lhs)
	g.block.NewStore(lhs, resultSlot)

	rhsBlock := g.appendBlock()
	mergeBlock := g.appendBlock()

	if bin.Op == mir.OpAnd {
		g.block.NewCondBr(lhs, rhsBlock, mergeBlock)
	} else {
		g.block.NewCondBr(lhs, mergeBlock, rhsBlock)
	}

	g.block = rhsBlock
	rhs := g.genExpr(bin.Rhs)
	if g.block.Term == nil {
		g.block.NewStore(rhs, resultSlot)
		g.block.NewBr(mergeBlock)
	}

	g.block = mergeBlock
	return g.block.NewLoad(types.I1, resultSlot)
}

// genUnaryExpr generates a primitive unary operation.
func (g *Generator) genUnaryExpr(un *mir.UnaryExpr) value.Value {
	operand := g.genExpr(un.Operand)

	switch un.Op {
	case mir.OpNeg:
		if un.Operand.Type().Kind == mir.TFloat {
			return g.block.NewFNeg(operand)
		}
		return g.block.NewSub(i64Const(0), operand)
	case mir.OpNot:
		return g.block.NewXor(operand, constant.NewBool(true))
	default:
		g.ice("unknown unary operator `%d`", un.Op)
		return nil
	}
}

// genCall generates a direct call to a user function or a runtime symbol.
func (g *Generator) genCall(call *mir.Call) value.Value {
	args := make([]value.Value, len(call.Args))
	for i, arg := range call.Args {
		args[i] = g.genExpr(arg)
	}

	if fn, ok := g.funcs[call.Func]; ok {
		return g.block.NewCall(fn, args...)
	}

	if _, ok := g.intrinsics[call.Func]; ok {
		// The runtime represents booleans as bytes.
		if call.Func == "mesh_bool_to_string" {
			args[0] = g.block.NewZExt(args[0], types.I8)
		}
		return g.callIntrinsic(call.Func, args...)
	}

	g.ice("call to unknown function `%s`", call.Func)
	return nil
}

// genClosureCall generates an indirect call.  Closure values are unpacked
// into their function and environment pointers; bare function pointers are
// cast back to their signature and called directly.
func (g *Generator) genClosureCall(call *mir.ClosureCall) value.Value {
	target := g.genExpr(call.Closure)
	sig := g.convFnSig(call.Closure.Type())

	var args []value.Value
	var fnErased value.Value

	if call.Closure.Type().Kind == mir.TClosure {
		fnErased = g.block.NewExtractValue(target, 0)
		args = append(args, g.block.NewExtractValue(target, 1))
	} else {
		fnErased = target
	}

	fn := g.block.NewBitCast(fnErased, types.NewPointer(sig))
	for _, arg := range call.Args {
		args = append(args, g.genExpr(arg))
	}

	return g.block.NewCall(fn, args...)
}

// genMakeClosure allocates the environment record on the GC heap, stores the
// captured values into it, and packs the function and environment pointers
// into a closure value.
func (g *Generator) genMakeClosure(mk *mir.MakeClosure) value.Value {
	fn, ok := g.funcs[mk.Func]
	if !ok {
		g.ice("closure over unknown function `%s`", mk.Func)
	}

	var env value.Value
	if len(mk.Captures) == 0 {
		// Capture-free closures still carry a live allocation so the
		// environment pointer is always valid.
		env = g.callIntrinsic("mesh_gc_alloc", i64Const(8), i64Const(8))
	} else {
		captures := make([]value.Value, len(mk.Captures))
		capTypes := make([]types.Type, len(mk.Captures))
		size := 0
		alignment := 1
		for i, capture := range mk.Captures {
			captures[i] = g.genExpr(capture)
			capTypes[i] = g.convType(capture.Type())

			ca := g.alignOf(capture.Type())
			if ca > alignment {
				alignment = ca
			}
			size = align(size, ca) + g.sizeOf(capture.Type())
		}
		size = align(size, alignment)

		envStruct := types.NewStruct(capTypes...)
		raw := g.callIntrinsic("mesh_gc_alloc", i64Const(int64(size)), i64Const(int64(alignment)))
		envPtr := g.block.NewBitCast(raw, types.NewPointer(envStruct))

		for i, captured := range captures {
			fieldPtr := g.block.NewGetElementPtr(envStruct, envPtr, i32Const(0), i32Const(int64(i)))
			g.block.NewStore(captured, fieldPtr)
		}

		env = raw
	}

	fnErased := g.block.NewBitCast(fn, types.I8Ptr)

	var result value.Value = constant.NewUndef(closureType)
	result = g.block.NewInsertValue(result, fnErased, 0)
	result = g.block.NewInsertValue(result, env, 1)
	return result
}

// genMakeVariant builds a sum value in a stack slot: the tag byte is written
// first, then the payload fields through the variant's field overlay.
func (g *Generator) genMakeVariant(mk *mir.MakeVariant) value.Value {
	sumType, ok := g.namedTypes[mk.SumName]
	if !ok {
		g.ice("variant of unknown sum type `%s`", mk.SumName)
	}

	slot := g.block.NewAlloca(sumType)

	tagPtr := g.block.NewGetElementPtr(sumType, slot, i32Const(0), i32Const(0))
	g.block.NewStore(constant.NewInt(types.I8, int64(mk.Tag)), tagPtr)

	if len(mk.Args) > 0 {
		overlayTypes := make([]types.Type, len(mk.Args)+1)
		overlayTypes[0] = types.I8
		for i, arg := range mk.Args {
			overlayTypes[i+1] = g.convType(arg.Type())
		}
		overlay := types.NewStruct(overlayTypes...)

		overlayPtr := g.block.NewBitCast(slot, types.NewPointer(overlay))
		for i, arg := range mk.Args {
			val := g.genExpr(arg)
			fieldPtr := g.block.NewGetElementPtr(overlay, overlayPtr, i32Const(0), i32Const(int64(i+1)))
			g.block.NewStore(val, fieldPtr)
		}
	}

	return g.block.NewLoad(sumType, slot)
}

// genPanic generates a call to the runtime abort and seals the block.  The
// returned placeholder is never observed.
func (g *Generator) genPanic(msg, file string, line int) value.Value {
	msgData, msgLen := g.stringData(msg)
	fileData, fileLen := g.stringData(file)

	g.callIntrinsic("mesh_panic",
		msgData, i64Const(msgLen),
		fileData, i64Const(fileLen),
		i32Const(int64(line)),
	)
	g.block.NewUnreachable()

	return constant.NewUndef(types.I8)
}

// stringData interns the raw bytes of a string as a private global and
// returns a pointer to its first byte along with the length.
func (g *Generator) stringData(s string) (value.Value, int64) {
	global, ok := g.strGlobals[s]
	if !ok {
		arr := constant.NewCharArrayFromString(s)
		global = g.mod.NewGlobalDef(fmt.Sprintf("__str%d", g.strCounter), arr)
		global.Linkage = enum.LinkagePrivate
		global.Immutable = true
		g.strCounter++
		g.strGlobals[s] = global
	}

	ptr := g.block.NewBitCast(global, types.I8Ptr)
	return ptr, int64(len(s))
}
