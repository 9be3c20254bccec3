package pattern

import (
	"testing"

	"github.com/snowdamiz/mesh-lang-sub005/mir"
)

func arm(pat mir.Pattern, guard mir.Expr, body mir.Expr) mir.MatchArm {
	return mir.MatchArm{Pattern: pat, Guard: guard, Body: body}
}

func ctorPat(sum, variant string, tag int, args ...mir.Pattern) mir.CtorPattern {
	return mir.CtorPattern{SumName: sum, Variant: variant, Tag: tag, Args: args}
}

func asLeaf(t *testing.T, tree DecisionTree) *Leaf {
	t.Helper()

	leaf, ok := tree.(*Leaf)
	if !ok {
		t.Fatalf("expected leaf, got %T", tree)
	}
	return leaf
}

func asTest(t *testing.T, tree DecisionTree) *Test {
	t.Helper()

	test, ok := tree.(*Test)
	if !ok {
		t.Fatalf("expected test, got %T", tree)
	}
	return test
}

func asSwitch(t *testing.T, tree DecisionTree) *Switch {
	t.Helper()

	sw, ok := tree.(*Switch)
	if !ok {
		t.Fatalf("expected switch, got %T", tree)
	}
	return sw
}

func asGuard(t *testing.T, tree DecisionTree) *Guard {
	t.Helper()

	g, ok := tree.(*Guard)
	if !ok {
		t.Fatalf("expected guard, got %T", tree)
	}
	return g
}

func TestWildcardArm(t *testing.T) {
	arms := []mir.MatchArm{
		arm(mir.WildcardPattern{}, nil, mir.NewIntLit(1)),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	leaf := asLeaf(t, tree)
	if leaf.ArmIndex != 0 || len(leaf.Bindings) != 0 {
		t.Errorf("expected bare leaf for arm 0, got arm %d with %d bindings", leaf.ArmIndex, len(leaf.Bindings))
	}
}

func TestVariableBinding(t *testing.T) {
	arms := []mir.MatchArm{
		arm(mir.VarPattern{Name: "y", Type: mir.IntType}, nil, mir.NewVar("y", mir.IntType)),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	leaf := asLeaf(t, tree)
	if len(leaf.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(leaf.Bindings))
	}
	b := leaf.Bindings[0]
	if b.Name != "y" || b.Type != mir.IntType || b.Path != (RootPath{}) {
		t.Errorf("unexpected binding %v at %s", b.Name, b.Path.Repr())
	}
}

func TestUnitTypedBindingTakesColumnType(t *testing.T) {
	// Unresolved types degrade to unit upstream, so a unit-typed variable
	// pattern binds at the column's type instead.
	arms := []mir.MatchArm{
		arm(mir.VarPattern{Name: "n", Type: mir.UnitType}, nil, mir.NewVar("n", mir.IntType)),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	leaf := asLeaf(t, tree)
	if len(leaf.Bindings) != 1 || leaf.Bindings[0].Type != mir.IntType {
		t.Fatalf("expected one int binding, got %v", leaf.Bindings)
	}

	// A unit-typed variable over a unit column keeps the unit type.
	unitArms := []mir.MatchArm{
		arm(mir.VarPattern{Name: "u", Type: mir.UnitType}, nil, mir.NewIntLit(0)),
	}
	unitLeaf := asLeaf(t, CompileMatch(mir.UnitType, unitArms, "test.mpl", 1))
	if unitLeaf.Bindings[0].Type.Kind != mir.TUnit {
		t.Errorf("unit column binding = %s, want unit", unitLeaf.Bindings[0].Type.Repr())
	}
}

func TestGuardFailureSkipsLaterPatternTests(t *testing.T) {
	// When a guarded irrefutable row fails its guard, the remaining rows are
	// chained without retesting their patterns: the literal row below wins
	// its arm unconditionally and the wildcard arm is never reached.
	arms := []mir.MatchArm{
		arm(mir.VarPattern{Name: "n", Type: mir.IntType}, mir.NewBoolLit(false), mir.NewIntLit(0)),
		arm(mir.LitPattern{Lit: mir.NewIntLit(1)}, nil, mir.NewIntLit(1)),
		arm(mir.WildcardPattern{}, nil, mir.NewIntLit(2)),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	g := asGuard(t, tree)
	if asLeaf(t, g.Success).ArmIndex != 0 {
		t.Errorf("guard success must select arm 0")
	}

	fallback := asLeaf(t, g.Failure)
	if fallback.ArmIndex != 1 {
		t.Errorf("guard failure falls through to arm %d, want 1", fallback.ArmIndex)
	}
}

func TestIntegerLiteralChain(t *testing.T) {
	// The chain tests literals in arm order: 1 first, then 2, then the
	// wildcard default.
	arms := []mir.MatchArm{
		arm(mir.LitPattern{Lit: mir.NewIntLit(1)}, nil, mir.NewStringLit("one")),
		arm(mir.LitPattern{Lit: mir.NewIntLit(2)}, nil, mir.NewStringLit("two")),
		arm(mir.WildcardPattern{}, nil, mir.NewStringLit("other")),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	first := asTest(t, tree)
	if first.Path != (RootPath{}) || first.Value.IntVal != 1 {
		t.Fatalf("expected first test against 1 at root, got %s", first.Value.Repr())
	}
	if asLeaf(t, first.Success).ArmIndex != 0 {
		t.Errorf("first test success should reach arm 0")
	}

	second := asTest(t, first.Failure)
	if second.Value.IntVal != 2 {
		t.Fatalf("expected second test against 2, got %s", second.Value.Repr())
	}
	if asLeaf(t, second.Success).ArmIndex != 1 {
		t.Errorf("second test success should reach arm 1")
	}
	if asLeaf(t, second.Failure).ArmIndex != 2 {
		t.Errorf("chain should fall through to the wildcard arm")
	}
}

func TestBooleanLiteralsWithoutDefault(t *testing.T) {
	// Bools with no wildcard row still end in a Fail node; exhaustiveness
	// over tags is not inferred for literals.
	arms := []mir.MatchArm{
		arm(mir.LitPattern{Lit: mir.NewBoolLit(true)}, nil, mir.NewIntLit(1)),
		arm(mir.LitPattern{Lit: mir.NewBoolLit(false)}, nil, mir.NewIntLit(0)),
	}

	tree := CompileMatch(mir.BoolType, arms, "test.mpl", 1)

	first := asTest(t, tree)
	if !first.Value.BoolVal {
		t.Fatalf("expected first test against true")
	}

	second := asTest(t, first.Failure)
	if second.Value.BoolVal {
		t.Fatalf("expected second test against false")
	}
	if _, ok := second.Failure.(*Fail); !ok {
		t.Errorf("expected fail node after exhausting literals, got %T", second.Failure)
	}
}

func TestConstructorSwitch(t *testing.T) {
	arms := []mir.MatchArm{
		arm(
			ctorPat("Shape", "Circle", 0, mir.VarPattern{Name: "r", Type: mir.FloatType}),
			nil, mir.NewVar("r", mir.FloatType),
		),
		arm(
			ctorPat("Shape", "Rect", 1,
				mir.VarPattern{Name: "w", Type: mir.FloatType},
				mir.VarPattern{Name: "h", Type: mir.FloatType},
			),
			nil, mir.NewVar("w", mir.FloatType),
		),
	}

	tree := CompileMatch(mir.SumType("Shape"), arms, "test.mpl", 1)

	sw := asSwitch(t, tree)
	if sw.Path != (RootPath{}) || len(sw.Cases) != 2 || sw.Default != nil {
		t.Fatalf("expected 2-case defaultless switch at root")
	}

	circle := sw.Cases[0]
	if circle.Tag.Variant != "Circle" || circle.Tag.Tag != 0 {
		t.Fatalf("expected Circle with tag 0 first, got %s/%d", circle.Tag.Variant, circle.Tag.Tag)
	}
	leaf := asLeaf(t, circle.Tree)
	wantPath := VariantFieldPath{Of: RootPath{}, Variant: "Circle", Index: 0}
	if len(leaf.Bindings) != 1 || leaf.Bindings[0].Name != "r" || leaf.Bindings[0].Path != AccessPath(wantPath) {
		t.Errorf("Circle leaf should bind r at %s", wantPath.Repr())
	}

	rect := sw.Cases[1]
	if rect.Tag.Variant != "Rect" || rect.Tag.Tag != 1 {
		t.Fatalf("expected Rect with tag 1 second")
	}
	rectLeaf := asLeaf(t, rect.Tree)
	if len(rectLeaf.Bindings) != 2 || rectLeaf.Bindings[0].Name != "w" || rectLeaf.Bindings[1].Name != "h" {
		t.Errorf("Rect leaf should bind w then h")
	}
}

func TestNestedTupleConstructor(t *testing.T) {
	// (Some(x), _) and (None, y): the switch lands on the first tuple
	// field since that column has the most distinct constructors.
	arms := []mir.MatchArm{
		arm(
			mir.TuplePattern{Elems: []mir.Pattern{
				ctorPat("Option", "Some", 1, mir.VarPattern{Name: "x", Type: mir.IntType}),
				mir.WildcardPattern{},
			}},
			nil, mir.NewVar("x", mir.IntType),
		),
		arm(
			mir.TuplePattern{Elems: []mir.Pattern{
				ctorPat("Option", "None", 0),
				mir.VarPattern{Name: "y", Type: mir.IntType},
			}},
			nil, mir.NewVar("y", mir.IntType),
		),
	}

	subjectTy := mir.TupleType(mir.SumType("Option"), mir.IntType)
	tree := CompileMatch(subjectTy, arms, "test.mpl", 1)

	sw := asSwitch(t, tree)
	if sw.Path != AccessPath(TupleFieldPath{Of: RootPath{}, Index: 0}) {
		t.Fatalf("expected switch on first tuple field, got %s", sw.Path.Repr())
	}

	for _, c := range sw.Cases {
		leaf := asLeaf(t, c.Tree)

		switch c.Tag.Variant {
		case "Some":
			if leaf.ArmIndex != 0 {
				t.Errorf("Some case should reach arm 0")
			}
			found := false
			for _, b := range leaf.Bindings {
				if b.Name == "x" {
					found = true
				}
			}
			if !found {
				t.Errorf("Some case should bind x")
			}
		case "None":
			if leaf.ArmIndex != 1 {
				t.Errorf("None case should reach arm 1")
			}
			found := false
			for _, b := range leaf.Bindings {
				if b.Name == "y" && b.Path == AccessPath(TupleFieldPath{Of: RootPath{}, Index: 1}) {
					found = true
				}
			}
			if !found {
				t.Errorf("None case should bind y at the second tuple field")
			}
		default:
			t.Errorf("unexpected case %s", c.Tag.Variant)
		}
	}
}

func TestOrPatternSharesArm(t *testing.T) {
	// 1 | 2 expands to two rows that both reach arm 0.
	arms := []mir.MatchArm{
		arm(
			mir.OrPattern{Alts: []mir.Pattern{
				mir.LitPattern{Lit: mir.NewIntLit(1)},
				mir.LitPattern{Lit: mir.NewIntLit(2)},
			}},
			nil, mir.NewStringLit("small"),
		),
		arm(mir.WildcardPattern{}, nil, mir.NewStringLit("big")),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	first := asTest(t, tree)
	if first.Value.IntVal != 1 || asLeaf(t, first.Success).ArmIndex != 0 {
		t.Fatalf("first alternative should reach arm 0")
	}

	second := asTest(t, first.Failure)
	if second.Value.IntVal != 2 || asLeaf(t, second.Success).ArmIndex != 0 {
		t.Fatalf("second alternative should also reach arm 0")
	}
	if asLeaf(t, second.Failure).ArmIndex != 1 {
		t.Errorf("default should reach arm 1")
	}
}

func TestGuardExpression(t *testing.T) {
	guard := mir.NewBinaryExpr(mir.OpGt, mir.NewVar("n", mir.IntType), mir.NewIntLit(0), mir.BoolType)

	arms := []mir.MatchArm{
		arm(mir.VarPattern{Name: "n", Type: mir.IntType}, guard, mir.NewStringLit("positive")),
		arm(mir.WildcardPattern{}, nil, mir.NewStringLit("non-positive")),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	g := asGuard(t, tree)
	leaf := asLeaf(t, g.Success)
	if leaf.ArmIndex != 0 || len(leaf.Bindings) != 1 || leaf.Bindings[0].Name != "n" {
		t.Errorf("guard success should be arm 0 with n bound at root")
	}
	if asLeaf(t, g.Failure).ArmIndex != 1 {
		t.Errorf("guard failure should fall through to arm 1")
	}
}

func TestGuardWithFailFallback(t *testing.T) {
	guard := mir.NewBinaryExpr(mir.OpGt, mir.NewVar("n", mir.IntType), mir.NewIntLit(0), mir.BoolType)

	arms := []mir.MatchArm{
		arm(mir.VarPattern{Name: "n", Type: mir.IntType}, guard, mir.NewStringLit("positive")),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 7)

	g := asGuard(t, tree)
	fail, ok := g.Failure.(*Fail)
	if !ok {
		t.Fatalf("lone guarded arm should fail on guard failure, got %T", g.Failure)
	}
	if fail.Msg != "non-exhaustive match" || fail.Line != 7 {
		t.Errorf("unexpected fail node: %q at line %d", fail.Msg, fail.Line)
	}
}

func TestConstructorWithWildcardDefault(t *testing.T) {
	arms := []mir.MatchArm{
		arm(
			ctorPat("Option", "Some", 1, mir.VarPattern{Name: "x", Type: mir.IntType}),
			nil, mir.NewVar("x", mir.IntType),
		),
		arm(mir.WildcardPattern{}, nil, mir.NewIntLit(0)),
	}

	tree := CompileMatch(mir.SumType("Option"), arms, "test.mpl", 1)

	sw := asSwitch(t, tree)
	if len(sw.Cases) != 1 || sw.Cases[0].Tag.Variant != "Some" {
		t.Fatalf("expected single Some case")
	}
	if sw.Default == nil {
		t.Fatalf("expected default branch for the wildcard arm")
	}
	if asLeaf(t, sw.Default).ArmIndex != 1 {
		t.Errorf("default should reach arm 1")
	}
}

func TestTupleLiteralMix(t *testing.T) {
	// (1, y) and (x, 2): both tuple fields end up tested.
	arms := []mir.MatchArm{
		arm(
			mir.TuplePattern{Elems: []mir.Pattern{
				mir.LitPattern{Lit: mir.NewIntLit(1)},
				mir.VarPattern{Name: "y", Type: mir.IntType},
			}},
			nil, mir.NewVar("y", mir.IntType),
		),
		arm(
			mir.TuplePattern{Elems: []mir.Pattern{
				mir.VarPattern{Name: "x", Type: mir.IntType},
				mir.LitPattern{Lit: mir.NewIntLit(2)},
			}},
			nil, mir.NewVar("x", mir.IntType),
		),
		arm(mir.WildcardPattern{}, nil, mir.NewIntLit(0)),
	}

	subjectTy := mir.TupleType(mir.IntType, mir.IntType)
	tree := CompileMatch(subjectTy, arms, "test.mpl", 1)

	var sawTupleField func(tree DecisionTree) bool
	sawTupleField = func(tree DecisionTree) bool {
		switch v := tree.(type) {
		case *Test:
			if _, ok := v.Path.(TupleFieldPath); ok {
				return true
			}
			return sawTupleField(v.Success) || sawTupleField(v.Failure)
		case *Guard:
			return sawTupleField(v.Success) || sawTupleField(v.Failure)
		case *Switch:
			for _, c := range v.Cases {
				if sawTupleField(c.Tree) {
					return true
				}
			}
			return v.Default != nil && sawTupleField(v.Default)
		default:
			return false
		}
	}

	if !sawTupleField(tree) {
		t.Errorf("decision tree should test tuple fields, not the root")
	}
}

func TestStringLiterals(t *testing.T) {
	arms := []mir.MatchArm{
		arm(mir.LitPattern{Lit: mir.NewStringLit("hello")}, nil, mir.NewIntLit(1)),
		arm(mir.LitPattern{Lit: mir.NewStringLit("world")}, nil, mir.NewIntLit(2)),
		arm(mir.WildcardPattern{}, nil, mir.NewIntLit(0)),
	}

	tree := CompileMatch(mir.StringType, arms, "test.mpl", 1)

	first := asTest(t, tree)
	if first.Path != (RootPath{}) || first.Value.StrVal != "hello" {
		t.Errorf("expected first test against %q at root, got %q", "hello", first.Value.StrVal)
	}
}

func TestMultipleGuardsChain(t *testing.T) {
	guardPos := mir.NewBinaryExpr(mir.OpGt, mir.NewVar("n", mir.IntType), mir.NewIntLit(0), mir.BoolType)
	guardNeg := mir.NewBinaryExpr(mir.OpLt, mir.NewVar("n", mir.IntType), mir.NewIntLit(0), mir.BoolType)

	arms := []mir.MatchArm{
		arm(mir.VarPattern{Name: "n", Type: mir.IntType}, guardPos, mir.NewStringLit("pos")),
		arm(mir.VarPattern{Name: "n", Type: mir.IntType}, guardNeg, mir.NewStringLit("neg")),
		arm(mir.WildcardPattern{}, nil, mir.NewStringLit("zero")),
	}

	tree := CompileMatch(mir.IntType, arms, "test.mpl", 1)

	first := asGuard(t, tree)
	if asLeaf(t, first.Success).ArmIndex != 0 {
		t.Errorf("first guard success should reach arm 0")
	}

	second := asGuard(t, first.Failure)
	if asLeaf(t, second.Success).ArmIndex != 1 {
		t.Errorf("second guard success should reach arm 1")
	}
	if asLeaf(t, second.Failure).ArmIndex != 2 {
		t.Errorf("both guards failing should reach arm 2")
	}
}

func TestOrPatternConstructors(t *testing.T) {
	arms := []mir.MatchArm{
		arm(
			mir.OrPattern{Alts: []mir.Pattern{
				ctorPat("Color", "Red", 0),
				ctorPat("Color", "Blue", 2),
			}},
			nil, mir.NewStringLit("cool"),
		),
		arm(ctorPat("Color", "Green", 1), nil, mir.NewStringLit("warm")),
	}

	tree := CompileMatch(mir.SumType("Color"), arms, "test.mpl", 1)

	sw := asSwitch(t, tree)
	wantArms := map[string]int{"Red": 0, "Blue": 0, "Green": 1}
	for _, c := range sw.Cases {
		want, ok := wantArms[c.Tag.Variant]
		if !ok {
			t.Errorf("unexpected case %s", c.Tag.Variant)
			continue
		}
		if got := asLeaf(t, c.Tree).ArmIndex; got != want {
			t.Errorf("%s should reach arm %d, got %d", c.Tag.Variant, want, got)
		}
		delete(wantArms, c.Tag.Variant)
	}
	if len(wantArms) != 0 {
		t.Errorf("missing cases: %v", wantArms)
	}
}

func TestCompileDeterministic(t *testing.T) {
	build := func() DecisionTree {
		arms := []mir.MatchArm{
			arm(
				ctorPat("Option", "Some", 1, mir.LitPattern{Lit: mir.NewIntLit(0)}),
				nil, mir.NewStringLit("zero"),
			),
			arm(
				ctorPat("Option", "Some", 1, mir.VarPattern{Name: "n", Type: mir.IntType}),
				nil, mir.NewStringLit("nonzero"),
			),
			arm(ctorPat("Option", "None", 0), nil, mir.NewStringLit("none")),
		}
		return CompileMatch(mir.SumType("Option"), arms, "test.mpl", 1)
	}

	first := asSwitch(t, build())
	second := asSwitch(t, build())

	if len(first.Cases) != len(second.Cases) {
		t.Fatalf("case counts differ across identical compilations")
	}
	for i := range first.Cases {
		if first.Cases[i].Tag != second.Cases[i].Tag {
			t.Errorf("case %d ordering differs across identical compilations", i)
		}
	}
}
