package main

import (
	"fmt"
	"os"

	"github.com/jcorbin/lim/internal/ringio"
)

// runCmd executes a command node against st, returning whether it
// succeeded. On failure the state's externally visible parts may be left
// arbitrarily changed; a caller that cares has already arranged to save
// and restore per the node's mark, as run by runGuarded.
func runCmd(p *Node, st *State) bool {
	switch p.Kind {
	case Skip:
		return true
	case Fail:
		return false
	case Abort:
		doAbort(p, st)
		return false
	case Seq:
		return runCmd(p.Left, st) && runCmd(p.Right, st)
	case Guard:
		v, ok := evalExpr(p.Left, st)
		if !ok || v == 0 {
			return false
		}
		return runCmd(p.Right, st)
	case Alt:
		return runAlt(p, st)
	case Do:
		return runDo(p, st)
	case Til:
		return runTil(p, st)
	case VarBlock:
		return runVarBlock(p, st)
	case Eval:
		_, ok := evalExpr(p.Expr, st)
		return ok
	case Assign:
		v, ok := evalExpr(p.Rhs, st)
		if !ok {
			return false
		}
		st.Assign(*p.Lhs, v)
		return true
	case Call:
		return execCall(p, st)
	default:
		panic("run: unexpected command kind " + p.Kind.String())
	}
}

// runGuarded runs p with save/restore gated by its mark's safety: a fully
// safe node runs directly, otherwise its non-safe parts are saved first
// and discarded or restored depending on the outcome.
func runGuarded(p *Node, st *State) bool {
	if p.Mark.Safe == AllDims {
		return runCmd(p, st)
	}
	st.Save(p.Mark.Safe)
	if runCmd(p, st) {
		st.Discard(p.Mark.Safe)
		return true
	}
	st.Restore(p.Mark.Safe)
	return false
}

// shouldSkip reports whether a predictively-dispatched branch with mark m
// can be skipped without attempting it, given a peek of c: true means the
// branch is provably doomed to fail and needn't even be tried.
func shouldSkip(m Mark, c int, st *State) bool {
	if m.CheckInput && c == ringio.Unknown {
		return false
	}
	if !MaskHas(m.InputMask, c) {
		return true
	}
	if m.InputVar != NoInputVar {
		want := st.Lookup(Var{Index: m.InputVar})
		if byte(want) != byte(c) {
			return true
		}
	}
	return false
}

// runAlt runs the first of l, r that is not provably doomed and succeeds.
func runAlt(p *Node, st *State) bool {
	c := st.Reader().Peek()
	ok := false
	if !shouldSkip(p.Left.Mark, c, st) {
		ok = runGuarded(p.Left, st)
	}
	if ok {
		return true
	}
	return runCmd(p.Right, st)
}

// runDo loops p's body until it fails, always succeeding overall. When
// the body isn't fully safe each iteration is individually saved and
// discarded or restored.
func runDo(p *Node, st *State) bool {
	safe := p.Body.Mark.Safe
	if safe == AllDims {
		for runCmd(p.Body, st) {
		}
		return true
	}
	for {
		st.Save(safe)
		if runCmd(p.Body, st) {
			st.Discard(safe)
			continue
		}
		st.Restore(safe)
		return true
	}
}

// runTil repeats: try l predictively; on success the loop succeeds; on
// failure run r (no prediction) and continue iff r succeeds.
func runTil(p *Node, st *State) bool {
	for {
		c := st.Reader().Peek()
		ok := false
		if !shouldSkip(p.Left.Mark, c, st) {
			ok = runGuarded(p.Left, st)
		}
		if ok {
			return true
		}
		if !runCmd(p.Right, st) {
			return false
		}
	}
}

// runVarBlock evaluates each binding's rhs in turn, assigning it to the
// freshly scoped local lhs; any failed binding fails the whole block.
func runVarBlock(p *Node, st *State) bool {
	for _, b := range p.Bindings {
		v, ok := evalExpr(b.Rhs, st)
		if !ok {
			return false
		}
		st.Assign(b.Lhs, v)
	}
	return runCmd(p.Body, st)
}

// execCall dispatches a CALL node, whether to a builtin executor or a
// user procedure's frame machinery, shared by command- and
// expression-form calls alike.
func execCall(p *Node, st *State) bool {
	if p.Exec != nil {
		return p.Exec(p, st)
	}
	pd := p.Proc

	// Small-size optimization: most calls pass a handful of in-arguments,
	// so evaluate them into a stack array rather than a heap slice.
	var insArr [10]int
	var ins []int
	if len(p.Ins) <= len(insArr) {
		ins = insArr[:len(p.Ins)]
	} else {
		ins = make([]int, len(p.Ins))
	}
	for i, e := range p.Ins {
		v, ok := evalExpr(e, st)
		if !ok {
			return false
		}
		ins[i] = v
	}

	st.NewFrame(len(p.Outs), p.Inouts, ins, pd.Frame)
	ok := runCmd(pd.Body, st)
	st.OldFrame(p.Outs, p.Inouts, ok)
	return ok
}

// evalExpr evaluates an expression node, returning its value and whether
// evaluation succeeded.
func evalExpr(p *Node, st *State) (int, bool) {
	switch p.Kind {
	case Binop:
		return evalBinop(p, st)
	case Unop:
		v, ok := evalExpr(p.Expr, st)
		if !ok {
			return 0, false
		}
		switch p.Op {
		case OpNeg:
			return -v, true
		case OpNot:
			if v == 0 {
				return 1, true
			}
			return 0, true
		}
		panic("eval: unexpected unop")
	case IntConst:
		return p.IntVal, true
	case VarUse:
		return st.Lookup(*p.VarRef), true
	case Call:
		if !execCall(p, st) {
			return 0, false
		}
		return st.Lookup(p.Outs[0]), true
	default:
		panic("eval: unexpected expression kind " + p.Kind.String())
	}
}

func evalBinop(p *Node, st *State) (int, bool) {
	switch p.Op {
	case OpAnd:
		l, ok := evalExpr(p.Left, st)
		if !ok || l == 0 {
			return l, ok
		}
		return evalExpr(p.Right, st)
	case OpOr:
		l, ok := evalExpr(p.Left, st)
		if !ok || l != 0 {
			return l, ok
		}
		return evalExpr(p.Right, st)
	}

	l, ok := evalExpr(p.Left, st)
	if !ok {
		return 0, false
	}
	r, ok := evalExpr(p.Right, st)
	if !ok {
		return 0, false
	}
	switch p.Op {
	case OpAdd:
		return l + r, true
	case OpSub:
		return l - r, true
	case OpMul:
		return l * r, true
	case OpDiv:
		if r == 0 {
			abortf(st, p.Line, "division by zero")
		}
		return idiv(l, r), true
	case OpMod:
		if r == 0 {
			abortf(st, p.Line, "mod by zero")
		}
		return imod(l, r), true
	case OpEq:
		return boolInt(l == r), true
	case OpNeq:
		return boolInt(l != r), true
	case OpLt:
		return boolInt(l < r), true
	case OpLe:
		return boolInt(l <= r), true
	case OpGt:
		return boolInt(l > r), true
	case OpGe:
		return boolInt(l >= r), true
	}
	panic("eval: unexpected binop")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// idiv is floor division: negate both operands if the denominator is
// negative, then round a negative numerator's quotient away from zero, so
// the result always rounds toward negative infinity (idiv(-7, 2) == -4).
func idiv(n, m int) int {
	if m < 0 {
		m, n = -m, -n
	}
	if n < 0 {
		return -((-n + m - 1) / m)
	}
	return n / m
}

func imod(n, m int) int {
	return n - m*idiv(n, m)
}

// abortf prints a fatal runtime message and terminates the process with
// status 2, matching division-by-zero and mod-by-zero's documented
// wording.
func abortf(st *State, line int, reason string) {
	fmt.Fprintf(os.Stderr, "%s: %s near line %d\n", st.ProgName, reason, line)
	panic(haltError{error: fmt.Errorf("%s near line %d", reason, line), ExitCode: 2})
}

// doAbort prints the ABORT command's message and terminates the process
// with status 2.
func doAbort(p *Node, st *State) {
	fmt.Fprintf(os.Stderr, "%s aborted at line %d, read %d chars, wrote %d chars\n",
		st.ProgName, p.Line, st.Reader().Tell(), st.Writer().Tell())
	panic(haltError{error: fmt.Errorf("aborted at line %d", p.Line), ExitCode: 2})
}

// initialize evaluates every global's initializer in declaration order
// and assigns it, failing the whole initialization if any does.
func initialize(decls *Node, st *State) bool {
	for p := decls; p != nil; p = p.Link {
		if p.Kind != VarDecl {
			continue
		}
		for i := range p.Globals {
			v, ok := evalExpr(p.Globals[i].Rhs, st)
			if !ok {
				return false
			}
			st.Assign(p.Globals[i].Lhs, v)
		}
	}
	return true
}
