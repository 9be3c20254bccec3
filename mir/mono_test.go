package mir

import "testing"

func testFunc(name string, body Expr) *Function {
	return &Function{
		Name:   name,
		Return: UnitType,
		Body:   body,
	}
}

func TestPruneDropsUnreachable(t *testing.T) {
	m := &Module{
		Name: "test",
		Functions: []*Function{
			testFunc("mesh_main", NewCall("helper", nil, UnitType)),
			testFunc("helper", NewUnitLit()),
			testFunc("dead", NewUnitLit()),
		},
		Entry: "mesh_main",
	}

	pruned := m.Prune()

	if len(pruned.Functions) != 2 {
		t.Fatalf("expected 2 live functions, got %d", len(pruned.Functions))
	}

	for _, fn := range pruned.Functions {
		if fn.Name == "dead" {
			t.Errorf("function `dead` should have been pruned")
		}
	}
}

func TestPrunePreservesOrder(t *testing.T) {
	m := &Module{
		Name: "test",
		Functions: []*Function{
			testFunc("c", NewUnitLit()),
			testFunc("b", NewCall("c", nil, UnitType)),
			testFunc("unused", NewUnitLit()),
			testFunc("mesh_main", NewCall("b", nil, UnitType)),
		},
		Entry: "mesh_main",
	}

	pruned := m.Prune()

	want := []string{"c", "b", "mesh_main"}
	if len(pruned.Functions) != len(want) {
		t.Fatalf("expected %d functions, got %d", len(want), len(pruned.Functions))
	}
	for i, name := range want {
		if pruned.Functions[i].Name != name {
			t.Errorf("function %d: expected %s, got %s", i, name, pruned.Functions[i].Name)
		}
	}
}

func TestPruneFollowsClosures(t *testing.T) {
	m := &Module{
		Name: "test",
		Functions: []*Function{
			testFunc("mesh_main", NewMakeClosure("__closure_0", nil, ClosureType(nil, IntType))),
			testFunc("__closure_0", NewCall("captured_helper", nil, IntType)),
			testFunc("captured_helper", NewIntLit(1)),
			testFunc("other", NewUnitLit()),
		},
		Entry: "mesh_main",
	}

	pruned := m.Prune()

	if len(pruned.Functions) != 3 {
		t.Fatalf("expected 3 live functions, got %d", len(pruned.Functions))
	}
}

func TestPruneFollowsVarReferences(t *testing.T) {
	// A bare variable naming a function keeps it live even without a
	// direct call site.
	m := &Module{
		Name: "test",
		Functions: []*Function{
			testFunc("mesh_main", NewBlock([]Expr{
				NewLet("f", NewVar("pointee", FnPtrType(nil, IntType))),
				NewUnitLit(),
			})),
			testFunc("pointee", NewIntLit(7)),
		},
		Entry: "mesh_main",
	}

	pruned := m.Prune()

	if len(pruned.Functions) != 2 {
		t.Fatalf("expected 2 live functions, got %d", len(pruned.Functions))
	}
}

func TestPruneNoEntryKeepsAll(t *testing.T) {
	m := &Module{
		Name: "test",
		Functions: []*Function{
			testFunc("a", NewUnitLit()),
			testFunc("b", NewUnitLit()),
		},
	}

	pruned := m.Prune()

	if len(pruned.Functions) != 2 {
		t.Fatalf("expected all functions kept without an entry point, got %d", len(pruned.Functions))
	}
}

func TestPruneCyclicCalls(t *testing.T) {
	m := &Module{
		Name: "test",
		Functions: []*Function{
			testFunc("mesh_main", NewCall("even", nil, BoolType)),
			testFunc("even", NewCall("odd", nil, BoolType)),
			testFunc("odd", NewCall("even", nil, BoolType)),
		},
		Entry: "mesh_main",
	}

	pruned := m.Prune()

	if len(pruned.Functions) != 3 {
		t.Fatalf("expected 3 live functions through the cycle, got %d", len(pruned.Functions))
	}
}
