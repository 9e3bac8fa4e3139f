package main

import "github.com/jcorbin/lim/internal/atom"

// Parser is a recursive-descent parser for LIM's concrete syntax (see
// SPEC_FULL.md for the grammar this implements; the tree-walking core
// downstream of it only ever sees the resulting Node structure, which is
// the only part grounded in the original language). Errors are
// accumulated rather than failing fast, mirroring the annotator.
type Parser struct {
	lx    *lexer
	tok   token
	atoms *atom.Table
	errs  errorList
}

// NewParser builds a Parser reading tokens from lx and interning
// identifiers against atoms.
func NewParser(lx *lexer, atoms *atom.Table) *Parser {
	p := &Parser{lx: lx, atoms: atoms}
	p.advance()
	return p
}

// Parse reads a whole program: a sequence of var and proc declarations,
// returned as a list linked through Node.Link. A non-nil error means one
// or more syntax errors were accumulated.
func (p *Parser) Parse() (*Node, error) {
	var head, tail *Node
	for p.tok.Kind != tEOF {
		d := p.parseDecl()
		if d == nil {
			break
		}
		if head == nil {
			head = d
		} else {
			tail.Link = d
		}
		tail = d
	}
	if !p.errs.ok() {
		return nil, &p.errs
	}
	return head, nil
}

func (p *Parser) advance() {
	t, err := p.lx.next()
	if err != nil {
		if ce, ok := err.(*compileError); ok {
			p.errs.errs = append(p.errs.errs, *ce)
		} else {
			p.errs.add(p.tok.Line, "%v", err)
		}
		p.tok = token{Kind: tEOF}
		return
	}
	p.tok = t
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs.add(p.tok.Line, format, args...)
}

func (p *Parser) expectSym(s string) bool {
	if p.tok.isSym(s) {
		p.advance()
		return true
	}
	p.errorf("expected %q, got %q", s, p.tok.Text)
	return false
}

func (p *Parser) expectKeyword(s string) bool {
	if p.tok.isKeyword(s) {
		p.advance()
		return true
	}
	p.errorf("expected %q", s)
	return false
}

func (p *Parser) parseDecl() *Node {
	switch {
	case p.tok.isKeyword("var"):
		return p.parseVarDecl()
	case p.tok.isKeyword("proc"):
		return p.parseProcDecl()
	default:
		p.errorf("expected a var or proc declaration, got %q", p.tok.Text)
		return nil
	}
}

func (p *Parser) parseVarDecl() *Node {
	line := p.tok.Line
	p.advance() // "var"
	n := NewNode(VarDecl, line)
	for {
		if p.tok.Kind != tIdent || keywords[p.tok.Text] {
			p.errorf("expected an identifier")
			break
		}
		name := p.tok.Text
		p.advance()
		if !p.expectSym(":=") {
			break
		}
		rhs := p.parseExpr()
		n.Globals = append(n.Globals, Binding{Lhs: Var{Name: p.atoms.Intern(name)}, Rhs: rhs})
		if p.tok.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectSym(";")
	return n
}

func (p *Parser) parseProcDecl() *Node {
	line := p.tok.Line
	p.advance() // "proc"
	if p.tok.Kind != tIdent {
		p.errorf("expected a procedure name")
		return nil
	}
	name := p.tok.Text
	p.advance()
	p.expectSym("(")
	outs, inouts, ins := p.parseFormals()
	p.expectSym(")")
	body := p.parseCmd()
	n := NewNode(ProcDecl, line)
	n.ProcData = &Proc{Name: p.atoms.Intern(name), Outs: outs, Inouts: inouts, Ins: ins, Body: body}
	return n
}

func (p *Parser) parseFormals() (outs, inouts, ins []Var) {
	for !p.tok.isSym(")") {
		switch {
		case p.tok.isKeyword("out"):
			p.advance()
			outs = p.parseIdentList()
		case p.tok.isKeyword("inout"):
			p.advance()
			inouts = p.parseIdentList()
		case p.tok.isKeyword("in"):
			p.advance()
			ins = p.parseIdentList()
		default:
			p.errorf("expected out, inout, or in")
			return
		}
		if p.tok.isSym(";") {
			p.advance()
		}
	}
	return
}

func (p *Parser) parseIdentList() []Var {
	var vs []Var
	for {
		if p.tok.Kind != tIdent || keywords[p.tok.Text] {
			p.errorf("expected an identifier")
			break
		}
		vs = append(vs, Var{Name: p.atoms.Intern(p.tok.Text)})
		p.advance()
		if p.tok.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	return vs
}

// parseCmd parses a full command: the loosest-binding level is `|`
// (ALT), then `;` (SEQ), then `->` (GUARD), then the atoms.
func (p *Parser) parseCmd() *Node {
	left := p.parseSeq()
	for p.tok.isSym("|") {
		line := p.tok.Line
		p.advance()
		right := p.parseSeq()
		n := NewNode(Alt, line)
		n.Left, n.Right = left, right
		left = n
	}
	return left
}

func (p *Parser) parseSeq() *Node {
	left := p.parseGuardAtom()
	for p.tok.isSym(";") {
		line := p.tok.Line
		p.advance()
		right := p.parseGuardAtom()
		n := NewNode(Seq, line)
		n.Left, n.Right = left, right
		left = n
	}
	return left
}

// parseGuardAtom parses one command atom, folding in a trailing `-> cmd`
// guard when a leading expression is followed by one. A leading `(`
// always introduces a grouped command, never a grouped guard condition —
// write the condition without parens if it needs one (e.g. `a = b -> c`).
func (p *Parser) parseGuardAtom() *Node {
	switch {
	case p.tok.isKeyword("skip"):
		line := p.tok.Line
		p.advance()
		return NewNode(Skip, line)
	case p.tok.isKeyword("fail"):
		line := p.tok.Line
		p.advance()
		return NewNode(Fail, line)
	case p.tok.isKeyword("abort"):
		line := p.tok.Line
		p.advance()
		return NewNode(Abort, line)
	case p.tok.isKeyword("eval"):
		line := p.tok.Line
		p.advance()
		n := NewNode(Eval, line)
		n.Expr = p.parseExpr()
		return n
	case p.tok.isKeyword("do"):
		return p.parseDo()
	case p.tok.isKeyword("til"):
		return p.parseTil()
	case p.tok.isKeyword("var"):
		return p.parseVarCmd()
	case p.tok.isSym("("):
		p.advance()
		inner := p.parseCmd()
		p.expectSym(")")
		return inner
	case p.tok.Kind == tIdent && !keywords[p.tok.Text]:
		return p.parseIdentLed()
	default:
		line := p.tok.Line
		e := p.parseExpr()
		if p.tok.isSym("->") {
			gline := p.tok.Line
			p.advance()
			c := p.parseGuardAtom()
			g := NewNode(Guard, gline)
			g.Left, g.Right = e, c
			return g
		}
		p.errorf("expected a command")
		return NewNode(Fail, line)
	}
}

// parseIdentLed disambiguates the three things a leading identifier can
// start in command position: an assignment (`x := e`), a call (either a
// labeled command-form call or a bare zero-out one), or a variable
// reference leading a guard condition (`flag -> c`).
func (p *Parser) parseIdentLed() *Node {
	name := p.tok.Text
	line := p.tok.Line
	p.advance()
	switch {
	case p.tok.isSym(":="):
		p.advance()
		rhs := p.parseExpr()
		n := NewNode(Assign, line)
		n.Lhs = &Var{Name: p.atoms.Intern(name)}
		n.Rhs = rhs
		return n
	case p.tok.isSym("("):
		p.advance()
		call := p.parseCallArgs(name, line, false)
		p.expectSym(")")
		if p.tok.isSym("->") {
			call.ExprForm = true
			if len(call.Outs) == 0 {
				call.Outs = []Var{{}}
			}
			gline := p.tok.Line
			p.advance()
			c := p.parseGuardAtom()
			g := NewNode(Guard, gline)
			g.Left, g.Right = call, c
			return g
		}
		return call
	default:
		v := NewNode(VarUse, line)
		v.VarRef = &Var{Name: p.atoms.Intern(name)}
		e := p.parseBinRHS(v, 0)
		if p.tok.isSym("->") {
			p.advance()
			c := p.parseGuardAtom()
			g := NewNode(Guard, line)
			g.Left, g.Right = e, c
			return g
		}
		p.errorf("expected a command")
		return NewNode(Fail, line)
	}
}

func (p *Parser) parseDo() *Node {
	line := p.tok.Line
	p.advance() // "do"
	body := p.parseCmd()
	p.expectKeyword("od")
	n := NewNode(Do, line)
	n.Body = body
	return n
}

func (p *Parser) parseTil() *Node {
	line := p.tok.Line
	p.advance() // "til"
	left := p.parseCmd()
	p.expectKeyword("or")
	right := p.parseCmd()
	p.expectKeyword("od")
	n := NewNode(Til, line)
	n.Left, n.Right = left, right
	return n
}

func (p *Parser) parseVarCmd() *Node {
	line := p.tok.Line
	p.advance() // "var"
	n := NewNode(VarBlock, line)
	for {
		if p.tok.Kind != tIdent || keywords[p.tok.Text] {
			p.errorf("expected an identifier")
			break
		}
		name := p.tok.Text
		p.advance()
		p.expectSym(":=")
		rhs := p.parseExpr()
		n.Bindings = append(n.Bindings, Binding{Lhs: Var{Name: p.atoms.Intern(name)}, Rhs: rhs})
		if p.tok.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectKeyword("in")
	n.Body = p.parseCmd()
	p.expectKeyword("end")
	return n
}

// parseCallArgs parses a call's arguments after its name and `(` have
// been consumed, up to (but not including) the closing `)`. With
// exprForm set, a bare positional argument list gets an implicit single
// anonymous out, matching a procedure (or Rd's zero-argument builtin
// form) used as a single-valued expression; without it, a bare
// positional list is ins-only with zero outs, matching a void command
// call. Either way, explicit out:/inout:/in: sections override this.
func (p *Parser) parseCallArgs(name string, line int, exprForm bool) *Node {
	n := NewNode(Call, line)
	n.CallName = p.atoms.Intern(name)
	n.ExprForm = exprForm
	if p.tok.isKeyword("out") || p.tok.isKeyword("inout") || p.tok.isKeyword("in") {
		for !p.tok.isSym(")") {
			switch {
			case p.tok.isKeyword("out"):
				p.advance()
				p.expectSym(":")
				n.Outs = p.parseIdentList()
			case p.tok.isKeyword("inout"):
				p.advance()
				p.expectSym(":")
				n.Inouts = p.parseIdentList()
			case p.tok.isKeyword("in"):
				p.advance()
				p.expectSym(":")
				n.Ins = p.parseExprList()
			default:
				p.errorf("expected out, inout, or in")
				return n
			}
			if p.tok.isSym(";") {
				p.advance()
			}
		}
		return n
	}
	if !p.tok.isSym(")") {
		n.Ins = p.parseExprList()
	}
	if exprForm {
		n.Outs = []Var{{}}
	}
	return n
}

func (p *Parser) parseExprList() []*Node {
	var es []*Node
	for {
		es = append(es, p.parseExpr())
		if p.tok.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	return es
}

// binPrec gives each binary operator's precedence (higher binds
// tighter); binOps maps the same spellings to their Op.
var binPrec = map[string]int{
	"||": 1, "&&": 2,
	"=": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

var binOps = map[string]Op{
	"||": OpOr, "&&": OpAnd,
	"=": OpEq, "!=": OpNeq, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"+": OpAdd, "-": OpSub,
	"*": OpMul, "/": OpDiv, "%": OpMod,
}

func (p *Parser) parseExpr() *Node {
	return p.parseBinRHS(p.parseUnary(), 0)
}

// parseBinRHS is a standard precedence-climbing loop: left was already
// parsed at a tighter level, and every operator at or above minPrec gets
// folded in left-associatively.
func (p *Parser) parseBinRHS(left *Node, minPrec int) *Node {
	for {
		prec, ok := binPrec[p.tok.Text]
		if p.tok.Kind != tSym || !ok || prec < minPrec {
			return left
		}
		op := binOps[p.tok.Text]
		line := p.tok.Line
		p.advance()
		right := p.parseUnary()
		for {
			nprec, ok2 := binPrec[p.tok.Text]
			if p.tok.Kind != tSym || !ok2 || nprec <= prec {
				break
			}
			right = p.parseBinRHS(right, nprec)
		}
		n := NewNode(Binop, line)
		n.Op = op
		n.Left, n.Right = left, right
		left = n
	}
}

func (p *Parser) parseUnary() *Node {
	switch {
	case p.tok.isSym("-"):
		line := p.tok.Line
		p.advance()
		n := NewNode(Unop, line)
		n.Op = OpNeg
		n.Expr = p.parseUnary()
		return n
	case p.tok.isSym("!"):
		line := p.tok.Line
		p.advance()
		n := NewNode(Unop, line)
		n.Op = OpNot
		n.Expr = p.parseUnary()
		return n
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() *Node {
	switch {
	case p.tok.Kind == tInt:
		n := NewNode(IntConst, p.tok.Line)
		n.IntVal = p.tok.IntVal
		p.advance()
		return n
	case p.tok.Kind == tString:
		n := NewNode(StrConst, p.tok.Line)
		n.StrVal = p.tok.StrVal
		p.advance()
		return n
	case p.tok.isSym("("):
		p.advance()
		e := p.parseExpr()
		p.expectSym(")")
		return e
	case p.tok.Kind == tIdent && !keywords[p.tok.Text]:
		name := p.tok.Text
		line := p.tok.Line
		p.advance()
		if p.tok.isSym("(") {
			p.advance()
			call := p.parseCallArgs(name, line, true)
			p.expectSym(")")
			return call
		}
		v := NewNode(VarUse, line)
		v.VarRef = &Var{Name: p.atoms.Intern(name)}
		return v
	default:
		p.errorf("expected an expression, got %q", p.tok.Text)
		n := NewNode(IntConst, p.tok.Line)
		p.advance()
		return n
	}
}
