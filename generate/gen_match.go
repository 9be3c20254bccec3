package generate

import (
	"github.com/snowdamiz/mesh-lang-sub005/mir"
	"github.com/snowdamiz/mesh-lang-sub005/pattern"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// matchCtx carries the per-match state threaded through decision tree
// generation.
type matchCtx struct {
	match      *mir.Match
	subject    value.Value
	subjType   *mir.Type
	resultSlot value.Value
	mergeBlock *ir.Block
}

// genMatch compiles a match expression's arms into a decision tree and lowers
// the tree into branching code.  The result flows through a stack slot, the
// same shape the conditional generator uses.
func (g *Generator) genMatch(m *mir.Match) value.Value {
	tree := pattern.CompileMatch(m.Subject.Type(), m.Arms, g.mirMod.Name, m.Line)

	resultType := g.convType(m.Type())
	resultSlot := g.block.NewAlloca(resultType)

	subject := g.genExpr(m.Subject)

	ctx := &matchCtx{
		match:      m,
		subject:    subject,
		subjType:   m.Subject.Type(),
		resultSlot: resultSlot,
		mergeBlock: g.appendBlock(),
	}

	g.genTree(ctx, tree)

	g.block = ctx.mergeBlock
	return g.block.NewLoad(resultType, resultSlot)
}

// genTree generates the code for one decision tree node into the current
// block.
func (g *Generator) genTree(ctx *matchCtx, tree pattern.DecisionTree) {
	switch t := tree.(type) {
	case *pattern.Leaf:
		g.bindLeaf(ctx, t)

		body := g.genExpr(ctx.match.Arms[t.ArmIndex].Body)
		if g.block.Term == nil {
			g.block.NewStore(body, ctx.resultSlot)
			g.block.NewBr(ctx.mergeBlock)
		}
	case *pattern.Guard:
		// The guard condition refers to pattern variables, so the
		// success leaf's bindings are established before it runs.
		if leaf, ok := t.Success.(*pattern.Leaf); ok {
			g.bindLeaf(ctx, leaf)
		}

		cond := g.genExpr(t.Cond)

		successBlock := g.appendBlock()
		failureBlock := g.appendBlock()
		g.block.NewCondBr(cond, successBlock, failureBlock)

		g.block = successBlock
		g.genTree(ctx, t.Success)

		g.block = failureBlock
		g.genTree(ctx, t.Failure)
	case *pattern.Switch:
		scrutinee, _ := g.pathValue(ctx, t.Path)
		tag := g.block.NewExtractValue(scrutinee, 0)

		var defaultBlock *ir.Block
		if t.Default != nil {
			defaultBlock = g.appendBlock()
		} else {
			// The tree is exhaustive over the cases; the default
			// exists only to satisfy the instruction's shape.
			defaultBlock = g.appendBlock()
			defaultBlock.NewUnreachable()
		}

		var cases []*ir.Case
		caseBlocks := make([]*ir.Block, len(t.Cases))
		for i, c := range t.Cases {
			caseBlocks[i] = g.appendBlock()
			cases = append(cases, ir.NewCase(constant.NewInt(types.I8, int64(c.Tag.Tag)), caseBlocks[i]))
		}

		g.block.NewSwitch(tag, defaultBlock, cases...)

		for i, c := range t.Cases {
			g.block = caseBlocks[i]
			g.genTree(ctx, c.Tree)
		}

		if t.Default != nil {
			g.block = defaultBlock
			g.genTree(ctx, t.Default)
		}
	case *pattern.Test:
		val, valType := g.pathValue(ctx, t.Path)
		cond := g.genLitTest(val, valType, t.Value)

		successBlock := g.appendBlock()
		failureBlock := g.appendBlock()
		g.block.NewCondBr(cond, successBlock, failureBlock)

		g.block = successBlock
		g.genTree(ctx, t.Success)

		g.block = failureBlock
		g.genTree(ctx, t.Failure)
	case *pattern.Fail:
		g.genPanic(t.Msg, t.File, t.Line)
	default:
		g.ice("unknown decision tree node `%T`", tree)
	}
}

// bindLeaf spills each leaf binding's value into a local stack slot under the
// pattern variable's name.
func (g *Generator) bindLeaf(ctx *matchCtx, leaf *pattern.Leaf) {
	for _, b := range leaf.Bindings {
		val, valType := g.pathValue(ctx, b.Path)

		slot := g.block.NewAlloca(g.convType(valType))
		g.block.NewStore(val, slot)
		g.locals[b.Name] = slot
	}
}

// genLitTest compares a value against a literal, yielding an i1.
func (g *Generator) genLitTest(val value.Value, valType *mir.Type, lit *mir.Literal) value.Value {
	switch lit.Kind {
	case mir.LitInt:
		return g.block.NewICmp(enum.IPredEQ, val, i64Const(lit.IntVal))
	case mir.LitFloat:
		return g.block.NewFCmp(enum.FPredOEQ, val, constant.NewFloat(types.Double, lit.FloatVal))
	case mir.LitBool:
		return g.block.NewICmp(enum.IPredEQ, val, constant.NewBool(lit.BoolVal))
	case mir.LitString:
		eq := g.callIntrinsic("mesh_string_eq", val, g.genLiteral(lit))
		return g.block.NewICmp(enum.IPredNE, eq, constant.NewInt(types.I8, 0))
	default:
		g.ice("untestable literal kind `%d`", lit.Kind)
		return nil
	}
}

// pathValue replays an access path against the match subject, returning the
// value it designates along with its MIR type.
func (g *Generator) pathValue(ctx *matchCtx, path pattern.AccessPath) (value.Value, *mir.Type) {
	switch p := path.(type) {
	case pattern.RootPath:
		return ctx.subject, ctx.subjType
	case pattern.TupleFieldPath:
		parent, parentType := g.pathValue(ctx, p.Of)
		return g.block.NewExtractValue(parent, uint64(p.Index)), parentType.Elems[p.Index]
	case pattern.VariantFieldPath:
		parent, parentType := g.pathValue(ctx, p.Of)
		return g.variantField(parent, parentType, p.Variant, p.Index)
	default:
		g.ice("unknown access path `%T`", path)
		return nil, nil
	}
}

// variantField extracts one payload field of a sum value by spilling the
// value to a slot and reading it back through the variant's field overlay.
func (g *Generator) variantField(sum value.Value, sumType *mir.Type, variant string, index int) (value.Value, *mir.Type) {
	sd, ok := g.sumDefs[sumType.Name]
	if !ok {
		g.ice("field of unknown sum type `%s`", sumType.Name)
	}

	var fields []*mir.Type
	for _, v := range sd.Variants {
		if v.Name == variant {
			fields = v.Fields
			break
		}
	}
	if fields == nil || index >= len(fields) {
		g.ice("no field %d on variant `%s.%s`", index, sumType.Name, variant)
	}

	overlayTypes := make([]types.Type, len(fields)+1)
	overlayTypes[0] = types.I8
	for i, ft := range fields {
		overlayTypes[i+1] = g.convType(ft)
	}
	overlay := types.NewStruct(overlayTypes...)

	slot := g.block.NewAlloca(g.convType(sumType))
	g.block.NewStore(sum, slot)

	overlayPtr := g.block.NewBitCast(slot, types.NewPointer(overlay))
	fieldPtr := g.block.NewGetElementPtr(overlay, overlayPtr, i32Const(0), i32Const(int64(index+1)))

	return g.block.NewLoad(overlayTypes[index+1], fieldPtr), fields[index]
}
