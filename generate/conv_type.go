package generate

import (
	"github.com/snowdamiz/mesh-lang-sub005/mir"
	"github.com/snowdamiz/mesh-lang-sub005/util"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// unitType is the LLVM rendering of the unit value: an empty struct.
var unitType = types.NewStruct()

// closureType is the uniform two-word closure record: the erased function
// pointer followed by the erased environment pointer.
var closureType = types.NewStruct(types.I8Ptr, types.I8Ptr)

// convType converts a MIR type to its LLVM representation.
func (g *Generator) convType(typ *mir.Type) types.Type {
	switch typ.Kind {
	case mir.TInt:
		return types.I64
	case mir.TFloat:
		return types.Double
	case mir.TBool:
		return types.I1
	case mir.TString, mir.TPtr:
		// Strings are opaque pointers into the GC heap.
		return types.I8Ptr
	case mir.TUnit:
		return unitType
	case mir.TNever:
		// Never-typed expressions always terminate the block; the value
		// itself is a placeholder.
		return types.I8
	case mir.TTuple:
		return types.NewStruct(util.Map(typ.Elems, g.convType)...)
	case mir.TStruct, mir.TSum:
		if nt, ok := g.namedTypes[typ.Name]; ok {
			return nt
		}
		g.ice("unknown named type `%s`", typ.Name)
		return nil
	case mir.TFnPtr:
		// Function values are erased to i8* and cast back at call sites.
		return types.I8Ptr
	case mir.TClosure:
		return closureType
	default:
		g.ice("unconvertible type `%s`", typ.Repr())
		return nil
	}
}

// convFnSig builds the concrete LLVM function type for a MIR function type.
// Closure signatures carry a leading erased environment parameter.
func (g *Generator) convFnSig(typ *mir.Type) *types.FuncType {
	var params []types.Type
	if typ.Kind == mir.TClosure {
		params = append(params, types.I8Ptr)
	}
	for _, pt := range typ.Elems {
		params = append(params, g.convType(pt))
	}

	return types.NewFunc(g.convType(typ.Ret), params...)
}

// unitValue returns the canonical unit constant.
func unitValue() constant.Constant {
	return constant.NewStruct(unitType)
}

func i32Const(n int64) constant.Constant {
	return constant.NewInt(types.I32, n)
}

func i64Const(n int64) constant.Constant {
	return constant.NewInt(types.I64, n)
}
