// Package pattern compiles match arms into decision trees.
//
// The compiler implements Maranget-style pattern matrix compilation: match
// arms become matrix rows, the column with the most constructor diversity is
// tested first, and the matrix is specialized per constructor until every
// row reduces to a leaf.  The resulting tree maps directly onto switch
// instructions and conditional branches in the backend.
package pattern

import (
	"fmt"

	"github.com/snowdamiz/mesh-lang-sub005/mir"
)

// AccessPath describes how to reach a sub-value of the match subject.  Paths
// are built from comparable value structs so they can be used as map keys and
// compared directly.
type AccessPath interface {
	// Repr returns the printed form of the path.
	Repr() string
}

// RootPath is the subject itself.
type RootPath struct{}

func (RootPath) Repr() string {
	return "root"
}

// TupleFieldPath is element Index of the tuple at Of.
type TupleFieldPath struct {
	Of    AccessPath
	Index int
}

func (p TupleFieldPath) Repr() string {
	return fmt.Sprintf("%s.%d", p.Of.Repr(), p.Index)
}

// VariantFieldPath is payload field Index of the value at Of, viewed as the
// named variant.
type VariantFieldPath struct {
	Of      AccessPath
	Variant string
	Index   int
}

func (p VariantFieldPath) Repr() string {
	return fmt.Sprintf("%s.%s#%d", p.Of.Repr(), p.Variant, p.Index)
}

// ConstructorTag identifies one sum type constructor in a switch case.
type ConstructorTag struct {
	TypeName string
	Variant  string
	Tag      int
	Arity    int
}

// -----------------------------------------------------------------------------

// DecisionTree is a compiled match.  Each node is one runtime decision point.
type DecisionTree interface {
	isDecisionTree()
}

// Binding maps a pattern variable to the path of the sub-value it binds.
type Binding struct {
	Name string
	Type *mir.Type
	Path AccessPath
}

// Leaf executes the body of arm ArmIndex with the given bindings in scope.
type Leaf struct {
	ArmIndex int
	Bindings []Binding
}

// Switch branches on the constructor tag of the sum value at Path.  Default
// is nil when every reachable tag has a case.
type Switch struct {
	Path    AccessPath
	Cases   []SwitchCase
	Default DecisionTree
}

// SwitchCase is one constructor case of a Switch.
type SwitchCase struct {
	Tag  ConstructorTag
	Tree DecisionTree
}

// Test compares the value at Path against a literal and branches.
type Test struct {
	Path    AccessPath
	Value   *mir.Literal
	Success DecisionTree
	Failure DecisionTree
}

// Guard evaluates an arm's guard expression with the success leaf's bindings
// in scope and branches.
type Guard struct {
	Cond    mir.Expr
	Success DecisionTree
	Failure DecisionTree
}

// Fail aborts the running program: no arm matched the subject.
type Fail struct {
	Msg  string
	File string
	Line int
}

func (*Leaf) isDecisionTree()   {}
func (*Switch) isDecisionTree() {}
func (*Test) isDecisionTree()   {}
func (*Guard) isDecisionTree()  {}
func (*Fail) isDecisionTree()   {}
