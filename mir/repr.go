package mir

import (
	"fmt"
	"strings"
)

// Repr renders the whole module as stable text.  Two structurally identical
// modules always render identically, so the output doubles as a determinism
// check in tests and as `--dump-mir` output.
func (m *Module) Repr() string {
	sb := strings.Builder{}

	fmt.Fprintf(&sb, "module %s\n", m.Name)

	for _, sd := range m.Structs {
		fmt.Fprintf(&sb, "\nstruct %s {\n", sd.Name)
		for _, field := range sd.Fields {
			fmt.Fprintf(&sb, "  %s: %s\n", field.Name, field.Type.Repr())
		}
		sb.WriteString("}\n")
	}

	for _, sd := range m.SumTypes {
		fmt.Fprintf(&sb, "\nsum %s {\n", sd.Name)
		for tag, v := range sd.Variants {
			fmt.Fprintf(&sb, "  [%d] %s", tag, v.Name)
			if len(v.Fields) > 0 {
				sb.WriteRune('(')
				for i, ft := range v.Fields {
					if i > 0 {
						sb.WriteString(", ")
					}
					sb.WriteString(ft.Repr())
				}
				sb.WriteRune(')')
			}
			sb.WriteRune('\n')
		}
		sb.WriteString("}\n")
	}

	for _, fn := range m.Functions {
		sb.WriteRune('\n')
		sb.WriteString(fn.Repr())
	}

	return sb.String()
}

// Repr renders one function with its body.
func (fn *Function) Repr() string {
	sb := strings.Builder{}

	fmt.Fprintf(&sb, "fn %s(", fn.Name)
	for i, param := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", param.Name, param.Type.Repr())
	}
	fmt.Fprintf(&sb, ") -> %s", fn.Return.Repr())

	if fn.Body == nil {
		sb.WriteString(" extern\n")
		return sb.String()
	}

	sb.WriteString(" =\n")
	writeExpr(&sb, fn.Body, 1)
	sb.WriteRune('\n')
	return sb.String()
}

// ReprExpr renders a single expression tree as indented text.
func ReprExpr(expr Expr) string {
	sb := strings.Builder{}
	writeExpr(&sb, expr, 0)
	return sb.String()
}

func writeExpr(sb *strings.Builder, expr Expr, indent int) {
	pad := strings.Repeat("  ", indent)

	switch v := expr.(type) {
	case *Literal:
		sb.WriteString(pad + v.Repr())
	case *Var:
		sb.WriteString(pad + v.Name)
	case *Let:
		fmt.Fprintf(sb, "%slet %s =\n", pad, v.Name)
		writeExpr(sb, v.Value, indent+1)
	case *Block:
		sb.WriteString(pad + "block")
		for _, sub := range v.Exprs {
			sb.WriteRune('\n')
			writeExpr(sb, sub, indent+1)
		}
	case *If:
		sb.WriteString(pad + "if\n")
		writeExpr(sb, v.Cond, indent+1)
		sb.WriteRune('\n')
		writeExpr(sb, v.Then, indent+1)
		sb.WriteRune('\n')
		writeExpr(sb, v.Else, indent+1)
	case *BinaryExpr:
		fmt.Fprintf(sb, "%sbinary %s\n", pad, v.Op.Repr())
		writeExpr(sb, v.Lhs, indent+1)
		sb.WriteRune('\n')
		writeExpr(sb, v.Rhs, indent+1)
	case *UnaryExpr:
		if v.Op == OpNeg {
			sb.WriteString(pad + "neg\n")
		} else {
			sb.WriteString(pad + "not\n")
		}
		writeExpr(sb, v.Operand, indent+1)
	case *Call:
		fmt.Fprintf(sb, "%scall %s", pad, v.Func)
		for _, arg := range v.Args {
			sb.WriteRune('\n')
			writeExpr(sb, arg, indent+1)
		}
	case *ClosureCall:
		sb.WriteString(pad + "closure-call\n")
		writeExpr(sb, v.Closure, indent+1)
		for _, arg := range v.Args {
			sb.WriteRune('\n')
			writeExpr(sb, arg, indent+1)
		}
	case *MakeClosure:
		fmt.Fprintf(sb, "%smake-closure %s", pad, v.Func)
		for _, cap := range v.Captures {
			sb.WriteRune('\n')
			writeExpr(sb, cap, indent+1)
		}
	case *TupleLit:
		sb.WriteString(pad + "tuple")
		for _, elem := range v.Elems {
			sb.WriteRune('\n')
			writeExpr(sb, elem, indent+1)
		}
	case *TupleGet:
		fmt.Fprintf(sb, "%stuple-get %d\n", pad, v.Index)
		writeExpr(sb, v.Tuple, indent+1)
	case *StructLit:
		fmt.Fprintf(sb, "%sstruct %s", pad, v.StructName)
		for _, field := range v.Fields {
			sb.WriteRune('\n')
			writeExpr(sb, field, indent+1)
		}
	case *StructGet:
		fmt.Fprintf(sb, "%sstruct-get %s\n", pad, v.Field)
		writeExpr(sb, v.Struct, indent+1)
	case *MakeVariant:
		fmt.Fprintf(sb, "%svariant %s.%s [%d]", pad, v.SumName, v.Variant, v.Tag)
		for _, arg := range v.Args {
			sb.WriteRune('\n')
			writeExpr(sb, arg, indent+1)
		}
	case *Match:
		sb.WriteString(pad + "match\n")
		writeExpr(sb, v.Subject, indent+1)
		for _, arm := range v.Arms {
			fmt.Fprintf(sb, "\n%s  %s", pad, arm.Pattern.Repr())
			if arm.Guard != nil {
				sb.WriteString(" when\n")
				writeExpr(sb, arm.Guard, indent+2)
			}
			sb.WriteString(" =>\n")
			writeExpr(sb, arm.Body, indent+2)
		}
	case *Panic:
		fmt.Fprintf(sb, "%spanic %q at %s:%d", pad, v.Msg, v.File, v.Line)
	default:
		fmt.Fprintf(sb, "%s<%s>", pad, exprName(expr))
	}
}
