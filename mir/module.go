package mir

// Module is the complete MIR for one compilation unit.  Function and type
// definition order is the order the lowerer emitted them in; later passes
// preserve that order so identical inputs always print identically.
type Module struct {
	// Name is the module's name as given by the build profile.
	Name string

	// Structs and SumTypes are the nominal type definitions, in
	// declaration order.
	Structs  []*StructDef
	SumTypes []*SumTypeDef

	// Functions holds every lowered function, synthesized closure
	// functions included, in emission order.
	Functions []*Function

	// Entry is the mangled name of the program entry function, or empty
	// if the module has no entry point.
	Entry string
}

// StructDef is a named aggregate definition.
type StructDef struct {
	Name   string
	Fields []StructField
}

// StructField is one named field of a struct definition.
type StructField struct {
	Name string
	Type *Type
}

// FieldIndex returns the declared index of the named field, or -1.
func (sd *StructDef) FieldIndex(name string) int {
	for i, field := range sd.Fields {
		if field.Name == name {
			return i
		}
	}

	return -1
}

// SumTypeDef is a tagged union definition.  A variant's tag is its index in
// Variants.
type SumTypeDef struct {
	Name     string
	Variants []VariantDef
}

// VariantDef is one constructor of a sum type with its payload field types.
type VariantDef struct {
	Name   string
	Fields []*Type
}

// VariantIndex returns the tag of the named variant, or -1.
func (sd *SumTypeDef) VariantIndex(name string) int {
	for i, v := range sd.Variants {
		if v.Name == name {
			return i
		}
	}

	return -1
}

// Function is a single lowered function body.
type Function struct {
	// Name is the function's symbol name.  Trait method implementations
	// use the mangled `Trait__Method__Type` form; synthesized closure
	// functions use `__closure_N` names.
	Name string

	Params []Param
	Return *Type

	// Body is nil for external declarations.
	Body Expr

	// IsClosureFn marks synthesized closure functions whose first
	// parameter is the opaque environment pointer.
	IsClosureFn bool

	// Captures lists the captured free variables of a closure function in
	// environment layout order.
	Captures []Param
}

// Param is one function parameter.
type Param struct {
	Name string
	Type *Type
}
