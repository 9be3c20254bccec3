package mir

// Prune removes every function not reachable from the module's entry point.
// Reachability is purely syntactic: a function is live if the entry function
// is it, or if any live function names it in a direct call, a closure
// construction, or a bare variable reference.  Function order is preserved so
// pruning never perturbs output ordering.
//
// A module with no entry point is returned unchanged.
func (m *Module) Prune() *Module {
	if m.Entry == "" {
		return m
	}

	funcs := make(map[string]*Function, len(m.Functions))
	for _, fn := range m.Functions {
		funcs[fn.Name] = fn
	}

	live := make(map[string]struct{})
	worklist := []string{m.Entry}

	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]

		if _, ok := live[name]; ok {
			continue
		}

		fn, ok := funcs[name]
		if !ok {
			// Runtime symbols and other externals are not module
			// functions; nothing to chase.
			continue
		}

		live[name] = struct{}{}

		if fn.Body != nil {
			worklist = append(worklist, referencedFuncs(fn.Body)...)
		}
	}

	kept := make([]*Function, 0, len(live))
	for _, fn := range m.Functions {
		if _, ok := live[fn.Name]; ok {
			kept = append(kept, fn)
		}
	}

	return &Module{
		Name:      m.Name,
		Structs:   m.Structs,
		SumTypes:  m.SumTypes,
		Functions: kept,
		Entry:     m.Entry,
	}
}

// referencedFuncs collects every function name an expression tree mentions.
func referencedFuncs(expr Expr) []string {
	var names []string

	var visit func(Expr)
	visit = func(e Expr) {
		if e == nil {
			return
		}

		switch v := e.(type) {
		case *Var:
			names = append(names, v.Name)
		case *Let:
			visit(v.Value)
		case *Block:
			for _, sub := range v.Exprs {
				visit(sub)
			}
		case *If:
			visit(v.Cond)
			visit(v.Then)
			visit(v.Else)
		case *BinaryExpr:
			visit(v.Lhs)
			visit(v.Rhs)
		case *UnaryExpr:
			visit(v.Operand)
		case *Call:
			names = append(names, v.Func)
			for _, arg := range v.Args {
				visit(arg)
			}
		case *ClosureCall:
			visit(v.Closure)
			for _, arg := range v.Args {
				visit(arg)
			}
		case *MakeClosure:
			names = append(names, v.Func)
			for _, cap := range v.Captures {
				visit(cap)
			}
		case *TupleLit:
			for _, elem := range v.Elems {
				visit(elem)
			}
		case *TupleGet:
			visit(v.Tuple)
		case *StructLit:
			for _, field := range v.Fields {
				visit(field)
			}
		case *StructGet:
			visit(v.Struct)
		case *MakeVariant:
			for _, arg := range v.Args {
				visit(arg)
			}
		case *Match:
			visit(v.Subject)
			for _, arm := range v.Arms {
				if arm.Guard != nil {
					visit(arm.Guard)
				}
				visit(arm.Body)
			}
		}
	}

	visit(expr)
	return names
}
