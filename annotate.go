package main

import (
	"github.com/jcorbin/lim/internal/atom"
	"github.com/jcorbin/lim/internal/scope"
)

// annodata threads the bookkeeping a single Annotate() call accumulates:
// the running local-variable counter, the linked list of every global
// variable reference seen so far (chained through Var.link for pass 3's
// reindexing), and which globals were seen as an assignment target.
type annodata struct {
	nlocals int
	varp    *Var
	mutant  []bool
}

// Annotator resolves names to variable indices and procedure/builtin
// bindings over a program's top-level declaration list, grounded on the
// original front end's three-pass annotate().
type Annotator struct {
	atoms    *atom.Table
	builtins map[*atom.Atom]*Builtin
	rdName   *atom.Atom
	errs     errorList
}

// NewAnnotator builds an Annotator whose builtin scope reflects debug's
// Err-purity bit.
func NewAnnotator(atoms *atom.Table, debug int) *Annotator {
	return &Annotator{
		atoms:    atoms,
		builtins: newBuiltinScope(atoms, debug),
		rdName:   atoms.Intern("Rd"),
	}
}

// Annotate mutates decls (a linked list through Node.Link of VARDECL and
// PROCDECL nodes) to fill in variable indices, procedure references, and
// builtin bindings. It returns the body of Main, the total number of
// global slots (including the reserved result slot 0), the number of
// those that are mutable, and Main's frame size. A non-nil error means
// compilation failed; every error accumulated along the way is included.
func (an *Annotator) Annotate(decls *Node) (main *Node, nglobals, nmutants, mainFrame int, err error) {
	var s scope.Stack
	nglobals = 1 // global 0 is the reserved result variable.

	// Pass 1: prepopulate the scope with every top-level name so that
	// forward references (a proc calling one declared later, a global
	// initializer referencing another) resolve.
	for p := decls; p != nil; p = p.Link {
		switch p.Kind {
		case VarDecl:
			for i := range p.Globals {
				name := p.Globals[i].Lhs.Name
				if _, ok := s.Lookup(name); ok {
					an.errs.add(p.Line, "multiple definition of %s", name)
					continue
				}
				s.Bind(scope.Entity{Kind: scope.Global, Name: name, Value: nglobals})
				nglobals++
			}
		case ProcDecl:
			if _, ok := s.Lookup(p.ProcData.Name); ok {
				an.errs.add(p.Line, "multiple definition of %s", p.ProcData.Name)
				continue
			}
			s.Bind(scope.Entity{Kind: scope.Procedure, Name: p.ProcData.Name, Value: p.ProcData})
		default:
			panic("annotate: top-level declaration list holds a non-declaration node")
		}
	}

	// Pass 2: annotate every body, tracking which globals get mutated.
	d := annodata{mutant: make([]bool, nglobals)}
	mainAtom := an.atoms.Intern("Main")
	for p := decls; p != nil; p = p.Link {
		switch p.Kind {
		case VarDecl:
			for i := range p.Globals {
				b := &p.Globals[i]
				an.annotateVar(&s, &b.Lhs, p.Line, &d, false)
				an.annotateExpr(&s, b.Rhs, false, &d)
			}
		case ProcDecl:
			pd := p.ProcData
			d.nlocals = 0
			s.Save()
			an.pushProcFormals(&s, pd, &d)
			an.annotateCmd(&s, pd.Body, &d)
			pd.Frame = d.nlocals
			if pd.Name == mainAtom {
				main = pd.Body
				mainFrame = pd.Frame
			}
			s.Restore()
		}
	}
	if main == nil {
		an.errs.add(0, "no procedure Main")
	}

	// Pass 3: partition globals into a mutable prefix and an immutable
	// suffix, then rewrite every recorded Var's index to match.
	reindex := make([]int, nglobals)
	nextMutant, nextImmutable := 0, nglobals-1
	for i := 0; i != nglobals; i++ {
		if d.mutant[i] {
			reindex[i] = nextMutant
			nextMutant++
		} else {
			reindex[i] = nextImmutable
			nextImmutable--
		}
	}
	nmutants = nextMutant
	for v := d.varp; v != nil; v = v.link {
		v.Index = -1 - reindex[v.Index]
	}

	if !an.errs.ok() {
		return nil, 0, 0, 0, &an.errs
	}
	return main, nglobals, nmutants, mainFrame, nil
}

func (el *errorList) Error() string {
	if len(el.errs) == 0 {
		return "no errors"
	}
	msg := "compilation failed:"
	for _, e := range el.errs {
		msg += "\n\t" + e.Error()
	}
	return msg
}

// pushProcFormals binds pd's out, inout, and in formals to consecutive
// local indices, in that order, starting at d.nlocals.
func (an *Annotator) pushProcFormals(s *scope.Stack, pd *Proc, d *annodata) {
	bind := func(vs []Var) {
		for i := range vs {
			vs[i].Index = d.nlocals
			d.nlocals++
			s.Bind(scope.Entity{Kind: scope.Local, Name: vs[i].Name, Value: vs[i].Index})
		}
	}
	bind(pd.Outs)
	bind(pd.Inouts)
	bind(pd.Ins)
}

// annotateVar resolves v's name to a bound local or global index, linking
// global references into d.varp so pass 3 can reindex them. A nil name
// (the anonymous result variable) is linked without a lookup and never
// marked as mutated. Returns true on an undeclared-identifier error.
func (an *Annotator) annotateVar(s *scope.Stack, v *Var, line int, d *annodata, ismutant bool) bool {
	if v.Name == nil {
		v.link = d.varp
		d.varp = v
		return false
	}
	e, ok := s.Lookup(v.Name)
	if !ok {
		an.errs.add(line, "undeclared id %s", v.Name)
		return true
	}
	v.Index = e.Value.(int)
	if e.Kind == scope.Global {
		if ismutant {
			d.mutant[v.Index] = true
		}
		v.link = d.varp
		d.varp = v
	}
	return false
}

// annotateCmd walks a command node, resolving every variable reference
// and procedure call it contains.
func (an *Annotator) annotateCmd(s *scope.Stack, p *Node, d *annodata) bool {
	res := false
	switch p.Kind {
	case Seq:
		res = an.annotateCmd(s, p.Left, d) || res
		res = an.annotateCmd(s, p.Right, d) || res
	case Guard:
		res = an.annotateExpr(s, p.Left, false, d) || res
		res = an.annotateCmd(s, p.Right, d) || res
	case Alt:
		res = an.annotateCmd(s, p.Left, d) || res
		res = an.annotateCmd(s, p.Right, d) || res
	case Do:
		res = an.annotateCmd(s, p.Body, d) || res
	case Eval:
		res = an.annotateExpr(s, p.Expr, false, d) || res
	case Til:
		res = an.annotateCmd(s, p.Left, d) || res
		res = an.annotateCmd(s, p.Right, d) || res
	case VarBlock:
		for i := range p.Bindings {
			b := &p.Bindings[i]
			b.Lhs.Index = d.nlocals
			d.nlocals++
			s.Bind(scope.Entity{Kind: scope.Local, Name: b.Lhs.Name, Value: b.Lhs.Index})
			if an.annotateVar(s, &b.Lhs, p.Line, d, false) {
				panic("annotate: freshly bound local failed to resolve")
			}
			res = an.annotateExpr(s, b.Rhs, false, d) || res
		}
		res = an.annotateCmd(s, p.Body, d) || res
	case Call:
		isBuiltin := an.annotateProcCall(s, p)
		for i := range p.Outs {
			res = an.annotateVar(s, &p.Outs[i], p.Line, d, true) || res
		}
		for i := range p.Inouts {
			res = an.annotateVar(s, &p.Inouts[i], p.Line, d, true) || res
		}
		for _, in := range p.Ins {
			res = an.annotateExpr(s, in, isBuiltin, d) || res
		}
	case Assign:
		res = an.annotateVar(s, p.Lhs, p.Line, d, true) || res
		res = an.annotateExpr(s, p.Rhs, false, d) || res
	case Skip, Abort, Fail:
	default:
		panic("annotate: unexpected command kind " + p.Kind.String())
	}
	return res
}

// annotateExpr walks an expression node. allowsStr permits a bare string
// constant only where the surrounding context (a builtin call's argument)
// can consume one directly.
func (an *Annotator) annotateExpr(s *scope.Stack, p *Node, allowsStr bool, d *annodata) bool {
	res := false
	switch p.Kind {
	case Binop:
		res = an.annotateExpr(s, p.Left, false, d) || res
		res = an.annotateExpr(s, p.Right, false, d) || res
	case Unop:
		res = an.annotateExpr(s, p.Expr, false, d) || res
	case IntConst:
	case StrConst:
		if !allowsStr {
			an.errs.add(p.Line, "illegal string constant")
			res = true
		}
	case VarUse:
		res = an.annotateVar(s, p.VarRef, p.Line, d, false)
	case Call:
		isBuiltin := an.annotateProcCall(s, p)
		for i := range p.Outs {
			res = an.annotateVar(s, &p.Outs[i], p.Line, d, true) || res
		}
		for i := range p.Inouts {
			res = an.annotateVar(s, &p.Inouts[i], p.Line, d, true) || res
		}
		for _, in := range p.Ins {
			res = an.annotateExpr(s, in, isBuiltin, d) || res
		}
	default:
		panic("annotate: unexpected expression kind " + p.Kind.String())
	}
	return res
}

// annotateProcCall resolves call's name against the user scope, falling
// back to the builtin scope, and checks its argument signature. It
// returns whether the call resolved to a builtin (which, unlike a user
// procedure, allows a bare string constant as an in-argument); it also
// returns true for an undefined procedure, so its string arguments draw
// no further error.
func (an *Annotator) annotateProcCall(s *scope.Stack, call *Node) bool {
	if e, ok := s.Lookup(call.CallName); ok {
		pd := e.Value.(*Proc)
		call.Proc = pd
		an.badSignature(call, len(pd.Outs), len(pd.Inouts), len(pd.Ins), false)
		return false
	}
	b, ok := an.builtins[call.CallName]
	if !ok {
		an.errs.add(call.Line, "undefined procedure %s", call.CallName)
		return true
	}
	call.Exec = b.Exec
	if call.CallName == an.rdName {
		if an.badSignature(call, b.Outs, b.Inouts, b.Ins, true) {
			an.badSignature(call, 1, 0, 0, false)
			call.Exec = execRd
		}
	} else {
		an.badSignature(call, b.Outs, b.Inouts, b.Ins, false)
	}
	return true
}

// badSignature reports (unless gag is set) and returns whether call's
// argument counts don't match outs/inouts/ins.
func (an *Annotator) badSignature(call *Node, outs, inouts, ins int, gag bool) bool {
	bad := false
	if len(call.Outs) != outs {
		if !gag {
			if outs == 0 {
				an.errs.add(call.Line, "%s returns no value", call.CallName)
			} else {
				an.errs.add(call.Line, "wrong number of out parameters to %s", call.CallName)
			}
		}
		bad = true
	}
	if len(call.Inouts) != inouts {
		if !gag {
			an.errs.add(call.Line, "wrong number of inout parameters to %s", call.CallName)
		}
		bad = true
	}
	if len(call.Ins) != ins {
		if !gag {
			an.errs.add(call.Line, "wrong number of parameters to %s", call.CallName)
		}
		bad = true
	}
	return bad
}
