package main

import "github.com/jcorbin/lim/internal/atom"

// Marker computes the monotone fixed point of purity, totality, safety,
// and predictive first-character information over every procedure body,
// then marks global initializer expressions once. Grounded on the
// original front end's mark()/markp().
type Marker struct {
	builtins map[*atom.Atom]*Builtin
	rdName   *atom.Atom
}

// NewMarker builds a Marker sharing an Annotator's resolved builtin
// table, so CALL nodes bound to a builtin can recover its fixed mark.
func NewMarker(builtins map[*atom.Atom]*Builtin, rdName *atom.Atom) *Marker {
	return &Marker{builtins: builtins, rdName: rdName}
}

// Mark runs the fixed point over decls (the same top-level declaration
// list Annotate walked), mutating every node's Mark field in place.
func (mk *Marker) Mark(decls *Node) {
	for {
		done := true
		for p := decls; p != nil; p = p.Link {
			if p.Kind != ProcDecl || p.Mark.Stable {
				continue
			}
			pd := p.ProcData
			before := pd.Body.Mark
			mk.markp(pd.Body)
			after := pd.Body.Mark
			if before.Total != after.Total || before.Safe != after.Safe ||
				before.Pure != after.Pure || before.InputVar != after.InputVar ||
				before.InputMask != after.InputMask {
				done = false
			}
			p.Mark = pd.Body.Mark
		}
		if done {
			break
		}
	}
	for p := decls; p != nil; p = p.Link {
		if p.Kind == VarDecl {
			for i := range p.Globals {
				mk.markp(p.Globals[i].Rhs)
			}
		}
	}
}

// markp computes p's mark from its children, memoizing once p.Mark.Stable
// is set (a stable mark never needs recomputing).
func (mk *Marker) markp(p *Node) Mark {
	r := &p.Mark
	if r.Stable {
		return *r
	}
	switch p.Kind {
	case Seq:
		a, b := mk.markp(p.Left), mk.markp(p.Right)
		*r = seqLike(a, b)
	case Guard:
		a, b := mk.markp(p.Left), mk.markp(p.Right)
		r.Total = false
		r.Stable = a.Stable && b.Stable
		r.Pure = a.Pure & b.Pure
		r.Safe = a.Pure & b.Safe
		r.InputMask = a.InputMask
		r.InputVar = a.InputVar
		if a.Pure&DimI != 0 {
			r.InputMask &= b.InputMask
			if a.InputVar == NoInputVar && a.Pure&DimL != 0 && a.Pure&DimG != 0 {
				r.InputVar = b.InputVar
			}
		}
	case Alt:
		a, b := mk.markp(p.Left), mk.markp(p.Right)
		*r = altLike(a, b)
	case Do:
		a := mk.markp(p.Body)
		if a.Stable && a.Safe != AllDims && p.Body.Kind == Alt {
			mk.rewriteDeadBranch(p)
			a = mk.markp(p.Body)
		}
		r.Total = true
		r.Stable = a.Stable
		r.Pure = a.Pure | boolMask(a.Total)
		r.Safe = AllDims
		r.InputVar = NoInputVar
		r.InputMask = AllMask
	case Eval:
		a := mk.markp(p.Expr)
		r.Total, r.Stable, r.Pure, r.Safe = a.Total, a.Stable, a.Pure, a.Safe
		r.InputVar, r.InputMask = a.InputVar, a.InputMask
	case Til:
		a, b := mk.markp(p.Left), mk.markp(p.Right)
		*r = altLike(a, b)
	case VarBlock:
		a := Mark{Total: true, Pure: AllDims, Safe: AllDims, Stable: true, InputVar: NoInputVar, InputMask: AllMask}
		for i := range p.Bindings {
			b := mk.markp(p.Bindings[i].Rhs)
			if a.Pure&DimI != 0 {
				a.InputMask &= b.InputMask
				if a.InputVar == NoInputVar && a.Pure&DimL != 0 && a.Pure&DimG != 0 {
					a.InputVar = b.InputVar
				}
			}
			a.Safe = (a.Safe & boolMask(b.Total)) | (a.Pure & b.Safe)
			a.Total = a.Total && b.Total
			a.Stable = a.Stable && b.Stable
			a.Pure &= b.Pure
		}
		b := mk.markp(p.Body)
		r.Safe = (a.Safe & boolMask(b.Total)) | (a.Pure & b.Safe)
		r.Total = a.Total && b.Total
		r.Stable = a.Stable && b.Stable
		r.Pure = a.Pure & b.Pure
		r.InputMask = a.InputMask
		r.InputVar = a.InputVar
		if a.Pure&DimI != 0 {
			r.InputMask &= b.InputMask
			if a.InputVar == NoInputVar && a.Pure&DimL != 0 && a.Pure&DimG != 0 {
				r.InputVar = b.InputVar
			}
		}
	case Assign:
		a := mk.markp(p.Rhs)
		r.Total = a.Total
		r.Stable = a.Stable
		if p.Lhs.Index >= 0 {
			r.Pure = DimI | DimO | DimG // local assign: impure on L
		} else {
			r.Pure = DimI | DimO | DimL // global assign: impure on G
		}
		r.Safe = a.Safe
		r.InputVar, r.InputMask = a.InputVar, a.InputMask
	case VarUse, IntConst, StrConst, Skip, Abort:
		r.Pure, r.Safe, r.Total, r.Stable = AllDims, AllDims, true, true
		r.InputVar, r.InputMask = NoInputVar, AllMask
	case Fail:
		r.Pure, r.Safe, r.Total, r.Stable = AllDims, AllDims, false, true
		r.InputVar, r.InputMask = NoInputVar, 0
	case Binop:
		a, b := mk.markp(p.Left), mk.markp(p.Right)
		*r = seqLike(a, b)
	case Unop:
		a := mk.markp(p.Expr)
		r.Total, r.Stable, r.Pure, r.Safe = a.Total, a.Stable, a.Pure, a.Safe
		r.InputMask, r.InputVar = a.InputMask, a.InputVar
	case Call:
		*r = mk.markCall(p)
	default:
		panic("mark: unexpected node kind " + p.Kind.String())
	}
	r.CheckInput = r.InputVar != NoInputVar || r.InputMask != AllMask
	return *r
}

// seqLike is the SEQ/BINOP combination rule: both sides run in order,
// either's failure fails the whole, input prediction chains through a's
// input-purity.
func seqLike(a, b Mark) Mark {
	var r Mark
	r.Total = a.Total && b.Total
	r.Stable = a.Stable && b.Stable
	r.Pure = a.Pure & b.Pure
	r.Safe = (a.Safe & boolMask(b.Total)) | (a.Pure & b.Safe)
	r.InputMask = a.InputMask
	r.InputVar = a.InputVar
	if a.Pure&DimI != 0 {
		r.InputMask &= b.InputMask
		if a.InputVar == NoInputVar && a.Pure&DimL != 0 && a.Pure&DimG != 0 {
			r.InputVar = b.InputVar
		}
	}
	return r
}

// altLike is the ALT/TIL combination rule: only one side need succeed.
func altLike(a, b Mark) Mark {
	var r Mark
	r.Total = a.Total || b.Total
	r.Stable = a.Stable && b.Stable
	r.Pure = a.Pure & (boolMask(a.Total) | b.Pure)
	r.Safe = boolMask(a.Total) | b.Safe
	r.InputMask = a.InputMask | b.InputMask
	if a.InputVar == b.InputVar {
		r.InputVar = a.InputVar
	} else {
		r.InputVar = NoInputVar
	}
	return r
}

func boolMask(b bool) int {
	if b {
		return AllDims
	}
	return 0
}

// markCall folds the argument expressions' marks together, then combines
// with the callee's mark (a user procedure's body mark, or a builtin's
// fixed table entry), then clears PURE_L/PURE_G per out/inout parameter
// passed by reference.
func (mk *Marker) markCall(p *Node) Mark {
	a := Mark{Total: true, Pure: AllDims, Safe: AllDims, Stable: true, InputVar: NoInputVar, InputMask: AllMask}
	for _, in := range p.Ins {
		b := mk.markp(in)
		if a.Pure&DimI != 0 {
			a.InputMask &= b.InputMask
			if a.InputVar == NoInputVar && a.Pure&DimL != 0 && a.Pure&DimG != 0 {
				a.InputVar = b.InputVar
			}
		}
		a.Safe = (a.Safe & boolMask(b.Total)) | (a.Pure & b.Safe)
		a.Total = a.Total && b.Total
		a.Stable = a.Stable && b.Stable
		a.Pure &= b.Pure
	}

	var b Mark
	if p.Proc != nil {
		b = p.Proc.Body.Mark
	} else {
		b = mk.builtins[p.CallName].Mark
		if p.CallName == mk.rdName && len(p.Ins) == 0 {
			b.InputVar = NoInputVar
		}
	}
	b.Safe |= DimL // callee can't change our locals
	b.Pure |= DimL

	var r Mark
	r.Safe = (a.Safe & boolMask(b.Total)) | (a.Pure & b.Safe)
	r.Total = a.Total && b.Total
	r.Stable = a.Stable && b.Stable
	r.Pure = a.Pure & b.Pure
	r.InputMask = a.InputMask
	r.InputVar = a.InputVar
	if a.Pure&DimI != 0 {
		r.InputMask &= b.InputMask
	}
	if a.InputVar == NoInputVar && a.Pure&DimI != 0 && a.Pure&DimL != 0 && a.Pure&DimG != 0 {
		switch {
		case b.InputVar < 0:
			r.InputVar = b.InputVar
		case b.InputVar < len(p.Outs):
			r.InputVar = NoInputVar // out parameter (!)
		case b.InputVar < len(p.Outs)+len(p.Inouts):
			r.InputVar = p.Inouts[b.InputVar-len(p.Outs)].Index
		case b.InputVar < len(p.Outs)+len(p.Inouts)+len(p.Ins):
			inp := p.Ins[b.InputVar-len(p.Outs)-len(p.Inouts)]
			switch {
			case inp.Kind == VarUse:
				r.InputVar = inp.VarRef.Index
			case inp.Kind == IntConst:
				r.InputVar = NoInputVar
				r.InputMask = MaskAdd(0, inp.IntVal)
			case inp.Kind == StrConst && len(inp.StrVal) > 0:
				r.InputVar = NoInputVar
				r.InputMask = MaskAdd(0, int(inp.StrVal[0]))
			default:
				r.InputVar = NoInputVar
			}
		default:
			r.InputVar = NoInputVar
		}
	}
	for i := range p.Outs {
		if p.Outs[i].Index >= 0 {
			r.Pure &^= DimL
		} else {
			r.Pure &^= DimG
		}
	}
	for i := range p.Inouts {
		if p.Inouts[i].Index >= 0 {
			r.Pure &^= DimL
		} else {
			r.Pure &^= DimG
		}
	}
	return r
}

// rewriteDeadBranch appends ALT(…, FAIL) onto the right-most spine of an
// ALT-rooted DO body, so the body becomes fully safe and the DO no longer
// pays save/restore cost on every iteration. Runs at most once per DO:
// the appended FAIL is fully safe, so re-marking makes every ALT on the
// spine, and with it the body, fully safe, and the condition that caused
// this rewrite no longer holds.
func (mk *Marker) rewriteDeadBranch(p *Node) {
	oldAlt := p.Body
	oldAlt.Mark.Stable = false
	for oldAlt.Right.Kind == Alt {
		oldAlt = oldAlt.Right
		oldAlt.Mark.Stable = false
	}
	newAlt := NewNode(Alt, oldAlt.Line)
	newAlt.Left = oldAlt.Right
	newAlt.Right = NewNode(Fail, oldAlt.Line)
	oldAlt.Right = newAlt
}
