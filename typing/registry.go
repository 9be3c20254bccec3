package typing

// StructField is a single named, typed field of a struct definition.
type StructField struct {
	Name string
	Type *Ty
}

// StructDef is the checker's layout for a named struct: its fields in
// declaration order.
type StructDef struct {
	Name   string
	Fields []StructField
}

// FieldIndex returns the declaration index of the named field, or -1 if the
// struct has no such field.
func (sd *StructDef) FieldIndex(name string) int {
	for i, f := range sd.Fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// VariantDef is a single variant of a sum type definition.  The variant's tag
// is its index in the owning definition's Variants slice; tags are assigned in
// declaration order and never reordered.
type VariantDef struct {
	Name   string
	Fields []*Ty
}

// SumTypeDef is the checker's layout for a named sum type: its variants in
// declaration order.
type SumTypeDef struct {
	Name     string
	Variants []VariantDef
}

// ImplKey identifies one trait-method implementation on one concrete type.
type ImplKey struct {
	Trait  string
	Method string
	Type   string
}

// Registry is the read-only type context handed to the lowerer.  It exposes
// each struct's ordered field list, each sum type's ordered variant list, and
// the trait implementation table used to resolve method and operator calls to
// concrete functions.  It is built by the front end and never mutated by the
// backend.
type Registry struct {
	Structs map[string]*StructDef
	Sums    map[string]*SumTypeDef

	// Impls records which (trait, method, concrete type) triples have an
	// implementation.  The implementing function itself is registered under
	// the mangled name by the lowerer's pre-registration pass.
	Impls map[ImplKey]struct{}

	// MethodTraits maps a method name to the traits that declare it, so a
	// bare call like `area(shape)` can be resolved against the first
	// argument's type.
	MethodTraits map[string][]string
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		Structs:      make(map[string]*StructDef),
		Sums:         make(map[string]*SumTypeDef),
		Impls:        make(map[ImplKey]struct{}),
		MethodTraits: make(map[string][]string),
	}
}

// DefineStruct adds a struct layout to the registry.
func (r *Registry) DefineStruct(def *StructDef) {
	r.Structs[def.Name] = def
}

// DefineSumType adds a sum type layout to the registry.
func (r *Registry) DefineSumType(def *SumTypeDef) {
	r.Sums[def.Name] = def
}

// DefineImpl records a trait-method implementation for a concrete type.
func (r *Registry) DefineImpl(trait, method, typeName string) {
	r.Impls[ImplKey{Trait: trait, Method: method, Type: typeName}] = struct{}{}

	for _, t := range r.MethodTraits[method] {
		if t == trait {
			return
		}
	}
	r.MethodTraits[method] = append(r.MethodTraits[method], trait)
}

// HasImpl returns whether an implementation exists for the given triple.
func (r *Registry) HasImpl(trait, method, typeName string) bool {
	_, ok := r.Impls[ImplKey{Trait: trait, Method: method, Type: typeName}]
	return ok
}

// SumForVariant finds the sum type declaring the given variant name, if any.
func (r *Registry) SumForVariant(variant string) (*SumTypeDef, int, bool) {
	for _, def := range r.Sums {
		for tag, v := range def.Variants {
			if v.Name == variant {
				return def, tag, true
			}
		}
	}

	return nil, 0, false
}

// -----------------------------------------------------------------------------

// MangleImpl builds the stable mangled name a trait-method implementation is
// registered under: `Trait__Method__Type`.
func MangleImpl(trait, method, typeName string) string {
	return trait + "__" + method + "__" + typeName
}

// ImplTypeName extracts the type name segment used in mangled implementation
// names from a checker type.  Types that cannot carry implementations map to
// "Unknown".
func ImplTypeName(t *Ty) string {
	switch t.Kind {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindNamed:
		return t.Name
	}

	return "Unknown"
}
