package generate

import "github.com/snowdamiz/mesh-lang-sub005/mir"

// A small target layout model for a 64-bit target.  The generator needs it in
// exactly one place: sizing the byte-array payload of sum types so every
// variant's field overlay fits.

// sizeOf returns the allocation size in bytes of a MIR type's LLVM rendering.
func (g *Generator) sizeOf(typ *mir.Type) int {
	switch typ.Kind {
	case mir.TInt, mir.TFloat:
		return 8
	case mir.TBool, mir.TNever:
		return 1
	case mir.TString, mir.TPtr, mir.TFnPtr:
		return 8
	case mir.TUnit:
		return 0
	case mir.TClosure:
		return 16
	case mir.TTuple:
		return g.structSize(typ.Elems)
	case mir.TStruct:
		sd, ok := g.structDefs[typ.Name]
		if !ok {
			g.ice("layout of unknown struct `%s`", typ.Name)
		}

		fields := make([]*mir.Type, len(sd.Fields))
		for i, f := range sd.Fields {
			fields[i] = f.Type
		}
		return g.structSize(fields)
	case mir.TSum:
		sd, ok := g.sumDefs[typ.Name]
		if !ok {
			g.ice("layout of unknown sum type `%s`", typ.Name)
		}

		// Tag byte plus payload, padded out to the overlay alignment.
		return align(1+g.sumPayloadSize(sd), g.sumAlign(sd))
	default:
		g.ice("layout of unrepresentable type `%s`", typ.Repr())
		return 0
	}
}

// alignOf returns the alignment in bytes of a MIR type's LLVM rendering.
func (g *Generator) alignOf(typ *mir.Type) int {
	switch typ.Kind {
	case mir.TInt, mir.TFloat, mir.TString, mir.TPtr, mir.TFnPtr, mir.TClosure:
		return 8
	case mir.TBool, mir.TNever, mir.TUnit:
		return 1
	case mir.TTuple:
		a := 1
		for _, et := range typ.Elems {
			if ea := g.alignOf(et); ea > a {
				a = ea
			}
		}
		return a
	case mir.TStruct:
		sd, ok := g.structDefs[typ.Name]
		if !ok {
			g.ice("layout of unknown struct `%s`", typ.Name)
		}

		a := 1
		for _, f := range sd.Fields {
			if fa := g.alignOf(f.Type); fa > a {
				a = fa
			}
		}
		return a
	case mir.TSum:
		sd, ok := g.sumDefs[typ.Name]
		if !ok {
			g.ice("layout of unknown sum type `%s`", typ.Name)
		}
		return g.sumAlign(sd)
	default:
		g.ice("layout of unrepresentable type `%s`", typ.Repr())
		return 0
	}
}

// structSize computes the natural-alignment size of a struct with the given
// field types.
func (g *Generator) structSize(fields []*mir.Type) int {
	size := 0
	maxAlign := 1
	for _, ft := range fields {
		fa := g.alignOf(ft)
		if fa > maxAlign {
			maxAlign = fa
		}
		size = align(size, fa) + g.sizeOf(ft)
	}
	return align(size, maxAlign)
}

// sumPayloadSize returns the byte-array length needed to hold the largest
// variant overlay of the sum type.  Each variant is laid out as the struct
// {i8 tag, fields...}; the payload is the widest such overlay minus the tag
// byte.
func (g *Generator) sumPayloadSize(sd *mir.SumTypeDef) int {
	max := 0
	for _, v := range sd.Variants {
		if len(v.Fields) == 0 {
			continue
		}

		overlay := append([]*mir.Type{mir.NeverType}, v.Fields...)
		if sz := g.structSize(overlay) - 1; sz > max {
			max = sz
		}
	}
	return max
}

// sumAlign returns the alignment of a sum type: the strictest alignment among
// the tag byte and all variant fields.
func (g *Generator) sumAlign(sd *mir.SumTypeDef) int {
	a := 1
	for _, v := range sd.Variants {
		for _, ft := range v.Fields {
			if fa := g.alignOf(ft); fa > a {
				a = fa
			}
		}
	}
	return a
}

func align(offset, alignment int) int {
	if alignment <= 1 {
		return offset
	}
	return (offset + alignment - 1) / alignment * alignment
}
