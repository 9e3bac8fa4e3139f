package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/lim/internal/runeio"
)

// dumpTree writes an indented rendering of decls (a VARDECL/PROCDECL list)
// to out, for the -debug tree-dump bits. withMarks includes each node's
// computed Mark, meaningful only after Mark has run.
func dumpTree(out io.Writer, decls *Node, withMarks bool) {
	for p := decls; p != nil; p = p.Link {
		dumpDecl(out, p, withMarks)
	}
}

func dumpDecl(out io.Writer, p *Node, withMarks bool) {
	switch p.Kind {
	case VarDecl:
		for _, b := range p.Globals {
			fmt.Fprintf(out, "var %s :=\n", dumpVarName(b.Lhs))
			dumpExpr(out, b.Rhs, 1, withMarks)
		}
	case ProcDecl:
		pd := p.ProcData
		fmt.Fprintf(out, "proc %s(out:%d inout:%d in:%d frame:%d)\n",
			pd.Name, len(pd.Outs), len(pd.Inouts), len(pd.Ins), pd.Frame)
		dumpCmd(out, pd.Body, 1, withMarks)
	default:
		panic("dump: unexpected top-level kind " + p.Kind.String())
	}
}

func dumpVarName(v Var) string {
	if v.Name == nil {
		return "_"
	}
	return v.Name.Name()
}

func indentOf(depth int) string { return strings.Repeat("  ", depth) }

func dumpCmd(out io.Writer, p *Node, depth int, withMarks bool) {
	indent := indentOf(depth)
	fmt.Fprintf(out, "%s%s%s\n", indent, p.Kind, markSuffix(p, withMarks))
	switch p.Kind {
	case Skip, Fail, Abort:
	case Seq, Alt:
		dumpCmd(out, p.Left, depth+1, withMarks)
		dumpCmd(out, p.Right, depth+1, withMarks)
	case Guard:
		dumpExpr(out, p.Left, depth+1, withMarks)
		dumpCmd(out, p.Right, depth+1, withMarks)
	case Do:
		dumpCmd(out, p.Body, depth+1, withMarks)
	case Til:
		dumpCmd(out, p.Left, depth+1, withMarks)
		dumpCmd(out, p.Right, depth+1, withMarks)
	case Eval:
		dumpExpr(out, p.Expr, depth+1, withMarks)
	case VarBlock:
		for _, b := range p.Bindings {
			fmt.Fprintf(out, "%s%s :=\n", indentOf(depth+1), dumpVarName(b.Lhs))
			dumpExpr(out, b.Rhs, depth+2, withMarks)
		}
		dumpCmd(out, p.Body, depth+1, withMarks)
	case Assign:
		fmt.Fprintf(out, "%s%s :=\n", indentOf(depth+1), dumpVarName(*p.Lhs))
		dumpExpr(out, p.Rhs, depth+2, withMarks)
	case Call:
		dumpCall(out, p, depth, withMarks)
	default:
		panic("dump: unexpected command kind " + p.Kind.String())
	}
}

func dumpExpr(out io.Writer, p *Node, depth int, withMarks bool) {
	indent := indentOf(depth)
	switch p.Kind {
	case Binop:
		fmt.Fprintf(out, "%s%s %s%s\n", indent, p.Kind, opName(p.Op), markSuffix(p, withMarks))
		dumpExpr(out, p.Left, depth+1, withMarks)
		dumpExpr(out, p.Right, depth+1, withMarks)
	case Unop:
		fmt.Fprintf(out, "%s%s %s%s\n", indent, p.Kind, opName(p.Op), markSuffix(p, withMarks))
		dumpExpr(out, p.Expr, depth+1, withMarks)
	case IntConst:
		fmt.Fprintf(out, "%s%d%s\n", indent, p.IntVal, markSuffix(p, withMarks))
	case StrConst:
		fmt.Fprintf(out, "%s%s%s\n", indent, dumpString(p.StrVal), markSuffix(p, withMarks))
	case VarUse:
		fmt.Fprintf(out, "%s%s%s\n", indent, dumpVarName(*p.VarRef), markSuffix(p, withMarks))
	case Call:
		dumpCall(out, p, depth, withMarks)
	default:
		panic("dump: unexpected expression kind " + p.Kind.String())
	}
}

func dumpCall(out io.Writer, p *Node, depth int, withMarks bool) {
	indent := indentOf(depth)
	fmt.Fprintf(out, "%s%s %s%s\n", indent, p.Kind, p.CallName, markSuffix(p, withMarks))
	for _, o := range p.Outs {
		fmt.Fprintf(out, "%sout %s\n", indentOf(depth+1), dumpVarName(o))
	}
	for _, iov := range p.Inouts {
		fmt.Fprintf(out, "%sinout %s\n", indentOf(depth+1), dumpVarName(iov))
	}
	for _, e := range p.Ins {
		dumpExpr(out, e, depth+1, withMarks)
	}
}

func opName(op Op) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	}
	return "?"
}

// dumpString renders a byte string the way LIM's built-ins see it: each
// byte as a rune, controls in caret form.
func dumpString(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		if caret := runeio.CaretForm(rune(c)); caret != "" {
			sb.WriteString(caret)
			continue
		}
		runeio.WriteANSIRune(&sb, rune(c))
	}
	sb.WriteByte('"')
	return sb.String()
}

// markSuffix renders a node's Mark as a trailing annotation, when dumping
// after annotation (zero Mark) would just be noise.
func markSuffix(p *Node, withMarks bool) string {
	if !withMarks {
		return ""
	}
	m := p.Mark
	ivar := "none"
	if m.InputVar != NoInputVar {
		ivar = fmt.Sprintf("%d", m.InputVar)
	}
	return fmt.Sprintf(" {total=%v pure=%04b safe=%04b stable=%v ivar=%s imask=%#08x}",
		m.Total, m.Pure, m.Safe, m.Stable, ivar, uint32(m.InputMask))
}
