package pattern

import (
	"github.com/snowdamiz/mesh-lang-sub005/mir"
	"github.com/snowdamiz/mesh-lang-sub005/util"
)

// matRow is one row of the pattern matrix: one pattern per column plus the
// metadata of the arm the row came from.  Or-pattern expansion can produce
// several rows sharing one arm index.
type matRow struct {
	patterns []mir.Pattern
	armIndex int
	guard    mir.Expr
	bindings []Binding
}

// matrix is the pattern matrix with the access path and type of each column.
type matrix struct {
	rows  []matRow
	paths []AccessPath
	types []*mir.Type
}

// headCtor is a head constructor found in a matrix column: either a literal
// value or a sum type constructor.
type headCtor struct {
	lit *mir.Literal
	tag ConstructorTag
}

// failMessage is the abort message baked into compiled programs when a match
// subject fits no arm.
const failMessage = "non-exhaustive match"

// CompileMatch compiles the arms of one match expression into a decision
// tree.  The file and line locate the match for the runtime abort raised
// when no arm applies.
func CompileMatch(subjectType *mir.Type, arms []mir.MatchArm, file string, line int) DecisionTree {
	rows := expandOrPatterns(arms)

	m := matrix{
		rows:  rows,
		paths: []AccessPath{RootPath{}},
		types: []*mir.Type{subjectType},
	}

	return compileMatrix(m, file, line)
}

// -----------------------------------------------------------------------------

// expandOrPatterns flattens or-patterns into one row per alternative.  All
// alternatives keep the arm index and guard of the arm they came from.
func expandOrPatterns(arms []mir.MatchArm) []matRow {
	var rows []matRow

	var expand func(armIndex int, pat mir.Pattern, guard mir.Expr)
	expand = func(armIndex int, pat mir.Pattern, guard mir.Expr) {
		if or, ok := pat.(mir.OrPattern); ok {
			for _, alt := range or.Alts {
				expand(armIndex, alt, guard)
			}
			return
		}

		rows = append(rows, matRow{
			patterns: []mir.Pattern{pat},
			armIndex: armIndex,
			guard:    guard,
		})
	}

	for i, arm := range arms {
		expand(i, arm.Pattern, arm.Guard)
	}

	return rows
}

// -----------------------------------------------------------------------------

// compileMatrix is the recursive core of Maranget's algorithm.
func compileMatrix(m matrix, file string, line int) DecisionTree {
	// No rows left: nothing can match here.
	if len(m.rows) == 0 {
		return &Fail{Msg: failMessage, File: file, Line: line}
	}

	// No columns left: every pattern is consumed and the first row wins.
	if len(m.paths) == 0 {
		return makeLeafOrGuard(m.rows[0], m.rows[1:], file, line)
	}

	// First row is irrefutable: it matches whatever reaches it.
	if rowAllWildcards(m.rows[0]) {
		row := m.rows[0]
		row.bindings = collectRowBindings(row, m.paths, m.types)
		return makeLeafOrGuard(row, m.rows[1:], file, line)
	}

	col := selectColumn(m)

	// Tuples are structural: decompose the column instead of testing it.
	if columnHasTuples(m, col) {
		return compileMatrix(expandTupleColumn(m, col), file, line)
	}

	ctors := collectHeadCtors(m, col)
	if len(ctors) == 0 {
		// Only wildcards and variables in this column.
		return compileMatrix(removeWildcardColumn(m, col), file, line)
	}

	for _, hc := range ctors {
		if hc.lit == nil {
			return compileCtorSwitch(m, col, ctors, file, line)
		}
	}

	return compileLitTests(m, col, ctors, file, line)
}

// makeLeafOrGuard builds the leaf for a winning row.  A guarded row becomes
// a Guard node whose failure branch chains through the remaining rows.  The
// remaining rows are taken as-is on guard failure: their patterns are not
// retested, so a refutable row behind a guarded irrefutable one wins its arm
// unconditionally.
func makeLeafOrGuard(row matRow, rest []matRow, file string, line int) DecisionTree {
	leaf := &Leaf{ArmIndex: row.armIndex, Bindings: row.bindings}

	if row.guard == nil {
		return leaf
	}

	var failure DecisionTree
	if len(rest) == 0 {
		failure = &Fail{Msg: failMessage, File: file, Line: line}
	} else {
		failure = makeLeafOrGuard(rest[0], rest[1:], file, line)
	}

	return &Guard{Cond: row.guard, Success: leaf, Failure: failure}
}

// -----------------------------------------------------------------------------

func isWildcardLike(pat mir.Pattern) bool {
	switch pat.(type) {
	case mir.WildcardPattern, mir.VarPattern:
		return true
	default:
		return false
	}
}

func rowAllWildcards(row matRow) bool {
	for _, pat := range row.patterns {
		if !isWildcardLike(pat) {
			return false
		}
	}

	return true
}

// collectRowBindings gathers the variable bindings of an irrefutable row.  A
// variable pattern with no usable recorded type binds at the column's type.
func collectRowBindings(row matRow, paths []AccessPath, types []*mir.Type) []Binding {
	bindings := row.bindings

	for i, pat := range row.patterns {
		if v, ok := pat.(mir.VarPattern); ok {
			bindings = append(bindings, Binding{Name: v.Name, Type: bindingType(v, types[i]), Path: paths[i]})
		}
	}

	return bindings
}

// bindingType resolves the type a variable pattern binds at.  A missing or
// unit recorded type defers to the column's type when one is known: unit is
// what unresolved types degrade to upstream, so the column carries the
// better information.
func bindingType(vp mir.VarPattern, colType *mir.Type) *mir.Type {
	if vp.Type == nil || (vp.Type.Kind == mir.TUnit && colType != nil) {
		return colType
	}

	return vp.Type
}

// -----------------------------------------------------------------------------

// selectColumn picks the column with the most distinct head constructors.
// Ties break to the leftmost column, which keeps compilation deterministic.
func selectColumn(m matrix) int {
	bestCol := 0
	bestScore := 0

	for col := range m.paths {
		var seen []string

		for _, row := range m.rows {
			if col >= len(row.patterns) {
				continue
			}

			key, ok := headKey(row.patterns[col])
			if ok && !util.Contains(seen, key) {
				seen = append(seen, key)
			}
		}

		if len(seen) > bestScore {
			bestScore = len(seen)
			bestCol = col
		}
	}

	return bestCol
}

// headKey returns a deduplication key for a pattern's head constructor, or
// false for patterns that match anything.
func headKey(pat mir.Pattern) (string, bool) {
	switch v := pat.(type) {
	case mir.LitPattern:
		return "lit:" + v.Lit.Key(), true
	case mir.CtorPattern:
		return "ctor:" + v.Variant, true
	case mir.TuplePattern:
		return "tuple", true
	default:
		return "", false
	}
}

// collectHeadCtors gathers the distinct head constructors of a column in
// first-appearance order.  A column never mixes literals and constructors in
// a well typed program.
func collectHeadCtors(m matrix, col int) []headCtor {
	var result []headCtor
	var seen []string

	for _, row := range m.rows {
		if col >= len(row.patterns) {
			continue
		}

		switch v := row.patterns[col].(type) {
		case mir.LitPattern:
			key := "lit:" + v.Lit.Key()
			if !util.Contains(seen, key) {
				seen = append(seen, key)
				result = append(result, headCtor{lit: v.Lit})
			}
		case mir.CtorPattern:
			key := "ctor:" + v.Variant
			if !util.Contains(seen, key) {
				seen = append(seen, key)
				result = append(result, headCtor{tag: ConstructorTag{
					TypeName: v.SumName,
					Variant:  v.Variant,
					Tag:      v.Tag,
					Arity:    len(v.Args),
				}})
			}
		}
	}

	return result
}

// -----------------------------------------------------------------------------

// compileCtorSwitch builds a Switch over the constructor tags appearing in a
// column, with a default branch for rows that match any constructor.
func compileCtorSwitch(m matrix, col int, ctors []headCtor, file string, line int) DecisionTree {
	path := m.paths[col]

	var cases []SwitchCase
	for _, hc := range ctors {
		if hc.lit != nil {
			continue
		}

		specialized := specializeCtor(m, col, hc.tag.Variant, hc.tag.Arity)
		cases = append(cases, SwitchCase{
			Tag:  hc.tag,
			Tree: compileMatrix(specialized, file, line),
		})
	}

	var dflt DecisionTree
	if dm := defaultMatrix(m, col); len(dm.rows) > 0 {
		dflt = compileMatrix(dm, file, line)
	}

	return &Switch{Path: path, Cases: cases, Default: dflt}
}

// specializeCtor restricts the matrix to rows compatible with one
// constructor, replacing the tested column with one column per payload
// field.
func specializeCtor(m matrix, col int, variant string, arity int) matrix {
	parent := m.paths[col]

	var newRows []matRow
	for _, row := range m.rows {
		switch v := row.patterns[col].(type) {
		case mir.CtorPattern:
			if v.Variant != variant {
				continue
			}

			newPats := make([]mir.Pattern, 0, arity+len(row.patterns)-1)
			newPats = append(newPats, v.Args...)
			newPats = append(newPats, otherColumns(row.patterns, col)...)

			newRows = append(newRows, matRow{
				patterns: newPats,
				armIndex: row.armIndex,
				guard:    row.guard,
				bindings: row.bindings,
			})
		case mir.WildcardPattern, mir.VarPattern:
			bindings := row.bindings
			if vp, ok := v.(mir.VarPattern); ok {
				bindings = appendBinding(bindings, vp, parent, m.types[col])
			}

			newPats := make([]mir.Pattern, 0, arity+len(row.patterns)-1)
			for i := 0; i < arity; i++ {
				newPats = append(newPats, mir.WildcardPattern{})
			}
			newPats = append(newPats, otherColumns(row.patterns, col)...)

			newRows = append(newRows, matRow{
				patterns: newPats,
				armIndex: row.armIndex,
				guard:    row.guard,
				bindings: bindings,
			})
		}
	}

	newPaths := make([]AccessPath, 0, arity+len(m.paths)-1)
	newTypes := make([]*mir.Type, 0, arity+len(m.types)-1)
	for i := 0; i < arity; i++ {
		newPaths = append(newPaths, VariantFieldPath{Of: parent, Variant: variant, Index: i})
		// Payload field types ride on the sub-patterns themselves.
		newTypes = append(newTypes, nil)
	}
	newPaths = append(newPaths, otherColumns(m.paths, col)...)
	newTypes = append(newTypes, otherColumns(m.types, col)...)

	return matrix{rows: newRows, paths: newPaths, types: newTypes}
}

// -----------------------------------------------------------------------------

// compileLitTests builds a chain of Test nodes over the distinct literals of
// a column.  The chain is assembled from the last literal back to the first
// so the first literal ends up at the head of the chain; the final failure
// branch handles the remaining wildcard rows.
func compileLitTests(m matrix, col int, ctors []headCtor, file string, line int) DecisionTree {
	path := m.paths[col]

	var lits []*mir.Literal
	for _, hc := range ctors {
		if hc.lit != nil {
			lits = append(lits, hc.lit)
		}
	}

	failure := compileMatrix(defaultMatrix(m, col), file, line)

	for _, lit := range util.Reverse(lits) {
		specialized := specializeLit(m, col, lit)
		failure = &Test{
			Path:    path,
			Value:   lit,
			Success: compileMatrix(specialized, file, line),
			Failure: failure,
		}
	}

	return failure
}

// specializeLit restricts the matrix to rows compatible with one literal,
// removing the tested column.
func specializeLit(m matrix, col int, target *mir.Literal) matrix {
	var newRows []matRow
	for _, row := range m.rows {
		switch v := row.patterns[col].(type) {
		case mir.LitPattern:
			if !v.Lit.EqualTo(target) {
				continue
			}

			newRows = append(newRows, matRow{
				patterns: otherColumns(row.patterns, col),
				armIndex: row.armIndex,
				guard:    row.guard,
				bindings: row.bindings,
			})
		case mir.WildcardPattern, mir.VarPattern:
			bindings := row.bindings
			if vp, ok := v.(mir.VarPattern); ok {
				bindings = appendBinding(bindings, vp, m.paths[col], m.types[col])
			}

			newRows = append(newRows, matRow{
				patterns: otherColumns(row.patterns, col),
				armIndex: row.armIndex,
				guard:    row.guard,
				bindings: bindings,
			})
		}
	}

	return matrix{
		rows:  newRows,
		paths: otherColumns(m.paths, col),
		types: otherColumns(m.types, col),
	}
}

// -----------------------------------------------------------------------------

// defaultMatrix keeps the rows that match any constructor in the given
// column and drops that column.
func defaultMatrix(m matrix, col int) matrix {
	var newRows []matRow
	for _, row := range m.rows {
		pat := row.patterns[col]
		if !isWildcardLike(pat) {
			continue
		}

		bindings := row.bindings
		if vp, ok := pat.(mir.VarPattern); ok {
			bindings = appendBinding(bindings, vp, m.paths[col], m.types[col])
		}

		newRows = append(newRows, matRow{
			patterns: otherColumns(row.patterns, col),
			armIndex: row.armIndex,
			guard:    row.guard,
			bindings: bindings,
		})
	}

	return matrix{
		rows:  newRows,
		paths: otherColumns(m.paths, col),
		types: otherColumns(m.types, col),
	}
}

// removeWildcardColumn drops a column that holds only wildcards and
// variables, collecting any variable bindings first.
func removeWildcardColumn(m matrix, col int) matrix {
	newRows := make([]matRow, 0, len(m.rows))
	for _, row := range m.rows {
		bindings := row.bindings
		if vp, ok := row.patterns[col].(mir.VarPattern); ok {
			bindings = appendBinding(bindings, vp, m.paths[col], m.types[col])
		}

		newRows = append(newRows, matRow{
			patterns: otherColumns(row.patterns, col),
			armIndex: row.armIndex,
			guard:    row.guard,
			bindings: bindings,
		})
	}

	return matrix{
		rows:  newRows,
		paths: otherColumns(m.paths, col),
		types: otherColumns(m.types, col),
	}
}

// -----------------------------------------------------------------------------

// columnHasTuples returns whether any row has a tuple pattern in the column.
func columnHasTuples(m matrix, col int) bool {
	for _, row := range m.rows {
		if col < len(row.patterns) {
			if _, ok := row.patterns[col].(mir.TuplePattern); ok {
				return true
			}
		}
	}

	return false
}

// expandTupleColumn decomposes a tuple column into one column per element.
// Wildcards pad to the tuple's arity; a variable binds the whole tuple and
// then pads.
func expandTupleColumn(m matrix, col int) matrix {
	arity := 0
	for _, row := range m.rows {
		if col < len(row.patterns) {
			if tp, ok := row.patterns[col].(mir.TuplePattern); ok {
				arity = len(tp.Elems)
				break
			}
		}
	}

	if arity == 0 {
		return removeWildcardColumn(m, col)
	}

	parent := m.paths[col]
	parentType := m.types[col]

	var newRows []matRow
	for _, row := range m.rows {
		pat := row.patterns[col]
		bindings := row.bindings

		newPats := make([]mir.Pattern, 0, arity+len(row.patterns)-1)
		if tp, ok := pat.(mir.TuplePattern); ok {
			newPats = append(newPats, tp.Elems...)
		} else {
			if vp, ok := pat.(mir.VarPattern); ok {
				bindings = appendBinding(bindings, vp, parent, parentType)
			}

			for i := 0; i < arity; i++ {
				newPats = append(newPats, mir.WildcardPattern{})
			}
		}
		newPats = append(newPats, otherColumns(row.patterns, col)...)

		newRows = append(newRows, matRow{
			patterns: newPats,
			armIndex: row.armIndex,
			guard:    row.guard,
			bindings: bindings,
		})
	}

	newPaths := make([]AccessPath, 0, arity+len(m.paths)-1)
	newTypes := make([]*mir.Type, 0, arity+len(m.types)-1)
	for i := 0; i < arity; i++ {
		newPaths = append(newPaths, TupleFieldPath{Of: parent, Index: i})

		if parentType != nil && parentType.Kind == mir.TTuple && i < len(parentType.Elems) {
			newTypes = append(newTypes, parentType.Elems[i])
		} else {
			newTypes = append(newTypes, nil)
		}
	}
	newPaths = append(newPaths, otherColumns(m.paths, col)...)
	newTypes = append(newTypes, otherColumns(m.types, col)...)

	return matrix{rows: newRows, paths: newPaths, types: newTypes}
}

// -----------------------------------------------------------------------------

// otherColumns returns a copy of the slice with the given index removed.
func otherColumns[T any](slice []T, col int) []T {
	result := make([]T, 0, len(slice)-1)
	result = append(result, slice[:col]...)
	result = append(result, slice[col+1:]...)
	return result
}

// appendBinding copies-and-appends a variable binding so sibling rows never
// share backing arrays.
func appendBinding(bindings []Binding, vp mir.VarPattern, path AccessPath, colType *mir.Type) []Binding {
	result := make([]Binding, 0, len(bindings)+1)
	result = append(result, bindings...)
	return append(result, Binding{Name: vp.Name, Type: bindingType(vp, colType), Path: path})
}
